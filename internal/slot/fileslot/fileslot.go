// Package fileslot persists the cart as a JSON file, the server-side stand-in for browser
// local storage.
package fileslot

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/MarkoPoloResearchLab/billing/internal/slot"
	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/spf13/afero"
)

const (
	fileExtension  = ".json"
	tempSuffix     = ".tmp"
	filePermission = 0o600
	dirPermission  = 0o755
)

// Slot implements cartstore.Slot over an afero filesystem.
type Slot struct {
	fs   afero.Fs
	path string
}

// New returns a Slot keeping the cart in <directory>/<key>.json. A blank key selects the
// default slot key.
func New(filesystem afero.Fs, directory string, key string) *Slot {
	return &Slot{
		fs:   filesystem,
		path: filepath.Join(directory, slot.KeyOrDefault(key)+fileExtension),
	}
}

// Path returns the file holding the cart.
func (store *Slot) Path() string {
	return store.path
}

func (store *Slot) Load(ctx context.Context) (cart.Cart, bool, error) {
	if err := ctx.Err(); err != nil {
		return cart.Cart{}, false, slot.WrapError(slot.ErrorCodeLoad, err)
	}
	raw, err := afero.ReadFile(store.fs, store.path)
	if errors.Is(err, fs.ErrNotExist) {
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

// Save replaces the file through a temporary sibling so readers never see a partial write.
func (store *Slot) Save(ctx context.Context, current cart.Cart) error {
	if err := ctx.Err(); err != nil {
		return slot.WrapError(slot.ErrorCodeSave, err)
	}
	raw, err := slot.Encode(current)
	if err != nil {
		return err
	}
	if err := store.fs.MkdirAll(filepath.Dir(store.path), dirPermission); err != nil {
		return slot.WrapError(slot.ErrorCodeSave, err)
	}
	tempPath := store.path + tempSuffix
	if err := afero.WriteFile(store.fs, tempPath, raw, filePermission); err != nil {
		return slot.WrapError(slot.ErrorCodeSave, err)
	}
	if err := store.fs.Rename(tempPath, store.path); err != nil {
		_ = store.fs.Remove(tempPath)
		return slot.WrapError(slot.ErrorCodeSave, err)
	}
	return nil
}
