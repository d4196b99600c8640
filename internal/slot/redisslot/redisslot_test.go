package redisslot

import (
	"context"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/MarkoPoloResearchLab/billing/pkg/cartstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(test *testing.T) (*redis.Client, *miniredis.Miniredis) {
	test.Helper()
	server := miniredis.RunT(test)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	test.Cleanup(func() { _ = client.Close() })
	return client, server
}

func TestSlotRoundTrip(test *testing.T) {
	client, server := setupTestRedis(test)
	store := New(client, "")

	_, found, err := store.Load(context.Background())
	require.NoError(test, err)
	assert.False(test, found)

	current, err := cart.AddItem(cart.NewCart(), cart.NewItem{
		ProductID: "ebook",
		Name:      "Ebook",
		Price:     decimal.RequireFromString("9.99"),
		Quantity:  3,
		Vertical:  cart.VerticalDigital,
	})
	require.NoError(test, err)
	require.NoError(test, store.Save(context.Background(), current))
	assert.True(test, server.Exists(cartstore.DefaultSlotKey))

	loaded, found, err := store.Load(context.Background())
	require.NoError(test, err)
	require.True(test, found)
	assert.Equal(test, 3, cart.ItemCount(loaded))
	assert.True(test, cart.Total(loaded).Equal(decimal.RequireFromString("29.97")))
	assert.Equal(test, cart.VerticalDigital, loaded.Items[0].Vertical)
}

func TestSlotTTL(test *testing.T) {
	client, server := setupTestRedis(test)
	store := New(client, "ttl-cart", WithTTL(time.Hour))
	require.NoError(test, store.Save(context.Background(), cart.NewCart()))
	assert.Equal(test, time.Hour, server.TTL("ttl-cart"))

	server.FastForward(2 * time.Hour)
	_, found, err := store.Load(context.Background())
	require.NoError(test, err)
	assert.False(test, found)
}

func TestSlotLoadRejectsGarbage(test *testing.T) {
	client, server := setupTestRedis(test)
	require.NoError(test, server.Set(cartstore.DefaultSlotKey, "not json"))
	_, _, err := New(client, "").Load(context.Background())
	require.Error(test, err)
	assert.Contains(test, err.Error(), "slot.cart.decode")
}

func TestSlotReportsConnectionFailure(test *testing.T) {
	client, server := setupTestRedis(test)
	server.Close()
	err := New(client, "").Save(context.Background(), cart.NewCart())
	require.Error(test, err)
	assert.Contains(test, err.Error(), "slot.cart.save")
}

func TestDial(test *testing.T) {
	server := miniredis.RunT(test)
	client, err := Dial(context.Background(), "redis://"+server.Addr()+"/0")
	require.NoError(test, err)
	require.NoError(test, client.Close())

	_, err = Dial(context.Background(), "not-a-url")
	require.Error(test, err)
}
