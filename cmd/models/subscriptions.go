package models

// Subscription is one customer's standing order for one box. The composite
// primary key (name, box_id) is what enforces "one subscription per customer
// per box"; there is no application-level locking on top of it.
type Subscription struct {
	Name     string `gorm:"column:name;primaryKey;size:255" json:"name"`
	BoxID    string `gorm:"column:box_id;primaryKey;size:100" json:"box_id"`
	Address  string `gorm:"column:address;size:255" json:"address"`
	Zip      string `gorm:"column:zip;size:255" json:"zip"`
	Active   bool   `gorm:"column:active;default:true" json:"active"`
	Quantity int    `gorm:"column:quantity;default:1" json:"quantity"`
	Token    string `gorm:"column:token;size:255;not null" json:"token"`

	Billing Billing `gorm:"foreignKey:Token;references:Token;constraint:OnDelete:CASCADE;" json:"billing,omitempty"`
	Box     Box     `gorm:"foreignKey:BoxID;references:BoxID" json:"box,omitempty"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
