package models

// Box is a purchasable subscription box. Prices are stored in the smallest
// currency unit (cents) and never change after seeding.
type Box struct {
	BoxID string `gorm:"column:box_id;primaryKey;size:100" json:"box_id"`
	Price int    `gorm:"column:price;not null" json:"price"`
}

func (Box) TableName() string {
	return "boxes"
}
