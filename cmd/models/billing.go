package models

import (
	"time"
)

// Billing holds the card details recorded for one successful charge. The token
// is issued by the payment gateway and doubles as the primary key.
type Billing struct {
	Token      string    `gorm:"column:token;primaryKey;size:255" json:"token"`
	CVV        string    `gorm:"column:cvv;size:10" json:"-"`
	Expiration time.Time `gorm:"column:expiration;type:date" json:"expiration"`
	Zip        string    `gorm:"column:zip;size:255" json:"zip"`
}

func (Billing) TableName() string {
	return "billings"
}
