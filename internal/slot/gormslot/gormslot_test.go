package gormslot

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/MarkoPoloResearchLab/billing/pkg/billing"
	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/MarkoPoloResearchLab/billing/pkg/cartstore"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSlotRoundTrip(test *testing.T) {
	db := openTestDB(test)
	store := New(db, "")

	_, found, err := store.Load(context.Background())
	require.NoError(test, err)
	assert.False(test, found)

	current, err := cart.AddItem(cart.NewCart(), cart.NewItem{
		ProductID: "studio-hour",
		Name:      "Studio hour",
		Price:     decimal.RequireFromString("35.50"),
		Quantity:  2,
		Vertical:  cart.VerticalStudios,
		Metadata:  cart.Metadata{"room": cart.StringValue("A"), "late": cart.BoolValue(true)},
	})
	require.NoError(test, err)
	require.NoError(test, store.Save(context.Background(), current))

	loaded, found, err := store.Load(context.Background())
	require.NoError(test, err)
	require.True(test, found)
	require.Len(test, loaded.Items, 1)
	assert.Equal(test, current.Items[0].ID, loaded.Items[0].ID)
	assert.True(test, cart.Total(loaded).Equal(decimal.RequireFromString("71")))
	room, _ := loaded.Items[0].Metadata["room"].AsString()
	assert.Equal(test, "A", room)
}

func TestSlotSaveOverwritesSingleRow(test *testing.T) {
	db := openTestDB(test)
	store := New(db, cartstore.DefaultSlotKey)

	first, err := cart.AddItem(cart.NewCart(), cart.NewItem{ProductID: "a", Name: "A", Price: decimal.NewFromInt(1), Quantity: 1})
	require.NoError(test, err)
	require.NoError(test, store.Save(context.Background(), first))
	require.NoError(test, store.Save(context.Background(), cart.Clear()))

	var rows int64
	require.NoError(test, db.Model(&CartSlot{}).Count(&rows).Error)
	assert.EqualValues(test, 1, rows)

	loaded, found, err := store.Load(context.Background())
	require.NoError(test, err)
	require.True(test, found)
	assert.True(test, loaded.IsEmpty())
}

func TestSlotKeysAreIsolated(test *testing.T) {
	db := openTestDB(test)
	first := New(db, "first")
	second := New(db, "second")

	current, err := cart.AddItem(cart.NewCart(), cart.NewItem{ProductID: "a", Name: "A", Price: decimal.NewFromInt(1), Quantity: 1})
	require.NoError(test, err)
	require.NoError(test, first.Save(context.Background(), current))

	_, found, err := second.Load(context.Background())
	require.NoError(test, err)
	assert.False(test, found)
}

func TestSlotLoadRejectsCorruptPayload(test *testing.T) {
	db := openTestDB(test)
	require.NoError(test, db.Create(&CartSlot{SlotKey: cartstore.DefaultSlotKey, Payload: []byte(`{"version":7}`)}).Error)

	_, _, err := New(db, "").Load(context.Background())
	require.ErrorIs(test, err, cartstore.ErrCorruptCart)
	var operationError billing.OperationError
	require.ErrorAs(test, err, &operationError)
	assert.Equal(test, "decode", operationError.Code)
	assert.Equal(test, "slot.cart.decode", operationError.Path())
}

func TestResolveDriver(test *testing.T) {
	directory := test.TempDir()
	testCases := []struct {
		dsn        string
		wantDriver string
		wantPath   string
	}{
		{dsn: "postgres://user@localhost/billing", wantDriver: driverPostgres},
		{dsn: "postgresql://user@localhost/billing", wantDriver: driverPostgres},
		{dsn: "sqlite://" + filepath.Join(directory, "nested", "billing.db"), wantDriver: driverSQLite, wantPath: filepath.Join(directory, "nested", "billing.db")},
		{dsn: sqliteMemory, wantDriver: driverSQLite, wantPath: sqliteMemory},
	}
	for _, testCase := range testCases {
		driver, path, err := resolveDriver(testCase.dsn)
		require.NoError(test, err, testCase.dsn)
		assert.Equal(test, testCase.wantDriver, driver, testCase.dsn)
		assert.Equal(test, testCase.wantPath, path, testCase.dsn)
	}
	assert.DirExists(test, filepath.Join(directory, "nested"))
}

func TestOpenMigratesSQLite(test *testing.T) {
	path := filepath.Join(test.TempDir(), "billing.db")
	db, cleanup, err := Open(context.Background(), "sqlite://"+path)
	require.NoError(test, err)
	test.Cleanup(func() { _ = cleanup() })
	assert.True(test, db.Migrator().HasTable(&CartSlot{}))
}

func openTestDB(test *testing.T) *gorm.DB {
	test.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(test, err)
	sqlDB, err := db.DB()
	require.NoError(test, err)
	test.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(test, Migrate(db))
	return db
}
