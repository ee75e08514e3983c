package models

// FakepayError maps a gateway decline code to the human-readable description
// shown to the customer. Loaded read-only at startup.
type FakepayError struct {
	Code        int    `gorm:"column:code;primaryKey" json:"code"`
	Description string `gorm:"column:description;size:8000" json:"description"`
}

func (FakepayError) TableName() string {
	return "fakepay_errors"
}
