package gormslot

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CartSlot mirrors the cart_slots table.
type CartSlot struct {
	SlotID    string         `gorm:"type:uuid;primaryKey"`
	SlotKey   string         `gorm:"not null;uniqueIndex:uniq_cart_slots_key"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (CartSlot) TableName() string { return "cart_slots" }

func (slot *CartSlot) BeforeCreate(tx *gorm.DB) error {
	if slot.SlotID == "" {
		slot.SlotID = uuid.NewString()
	}
	return nil
}
