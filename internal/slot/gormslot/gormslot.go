// Package gormslot persists the cart in a SQL table through GORM.
package gormslot

import (
	"context"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/billing/internal/slot"
	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Slot implements cartstore.Slot using GORM.
type Slot struct {
	db  *gorm.DB
	key string
	now func() time.Time
}

// New returns a Slot storing the cart under key. A blank key selects the default slot key.
func New(db *gorm.DB, key string) *Slot {
	return &Slot{
		db:  db,
		key: slot.KeyOrDefault(key),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the cart_slots table when it is missing.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&CartSlot{}); err != nil {
		return slot.WrapError(slot.ErrorCodeOpen, err)
	}
	return nil
}

func (store *Slot) Load(ctx context.Context) (cart.Cart, bool, error) {
	var model CartSlot
	err := store.db.WithContext(ctx).
		Where("slot_key = ?", store.key).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cart.Cart{}, false, nil
	}
	if err != nil {
		return cart.Cart{}, false, slot.WrapError(slot.ErrorCodeLoad, err)
	}
	current, err := slot.Decode(model.Payload)
	if err != nil {
		return cart.Cart{}, false, err
	}
	return current, true, nil
}

func (store *Slot) Save(ctx context.Context, current cart.Cart) error {
	raw, err := slot.Encode(current)
	if err != nil {
		return err
	}
	now := store.now()
	model := CartSlot{
		SlotKey:   store.key,
		Payload:   datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&model).Error
	if err != nil {
		return slot.WrapError(slot.ErrorCodeSave, err)
	}
	return nil
}
