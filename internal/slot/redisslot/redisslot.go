// Package redisslot persists the cart as one Redis string value.
package redisslot

import (
	"context"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/billing/internal/slot"
	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/redis/go-redis/v9"
)

// Slot implements cartstore.Slot over Redis.
type Slot struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// Option configures a Slot.
type Option func(*Slot)

// WithTTL expires the stored cart ttl after its last save. Zero keeps it forever.
func WithTTL(ttl time.Duration) Option {
	return func(store *Slot) {
		if ttl > 0 {
			store.ttl = ttl
		}
	}
}

// New returns a Slot storing the cart under key. A blank key selects the default slot key.
func New(client redis.Cmdable, key string, options ...Option) *Slot {
	store := &Slot{client: client, key: slot.KeyOrDefault(key)}
	for _, option := range options {
		if option != nil {
			option(store)
		}
	}
	return store
}

// Dial opens a client for a redis:// or rediss:// URL and checks it answers.
func Dial(ctx context.Context, rawURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, slot.WrapError(slot.ErrorCodeOpen, err)
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, slot.WrapError(slot.ErrorCodeOpen, err)
	}
	return client, nil
}

func (store *Slot) Load(ctx context.Context) (cart.Cart, bool, error) {
	raw, err := store.client.Get(ctx, store.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.Cart{}, false, nil
	}
	if err != nil {
		return cart.Cart{}, false, slot.WrapError(slot.ErrorCodeLoad, err)
	}
	current, err := slot.Decode(raw)
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
	if err := store.client.Set(ctx, store.key, raw, store.ttl).Err(); err != nil {
		return slot.WrapError(slot.ErrorCodeSave, err)
	}
	return nil
}
