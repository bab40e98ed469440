package toml

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/marketplace-cart/internal/domain"
	"github.com/bnema/marketplace-cart/internal/ports"
	"github.com/spf13/viper"
)

const (
	StorePathKey  = "store.path"
	storeFileName = "store.toml"
)

// SlotStore keeps every key-value slot in a single versioned TOML file.
type SlotStore struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.KeyValueStore = (*SlotStore)(nil)

func NewSlotStore(cfg *viper.Viper) (*SlotStore, error) {
	path, err := resolvePath(cfg, StorePathKey, storeFileName)
	if err != nil {
		return nil, err
	}

	return &SlotStore{path: path, mu: lockForPath(path)}, nil
}

func (s *SlotStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateSlotKey(key); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return "", err
	}

	for _, slot := range file.Slots {
		if slot.Key == key {
			return slot.Value, nil
		}
	}

	return "", fmt.Errorf("toml slot %q: %w", key, domain.ErrKeyNotFound)
}

func (s *SlotStore) Set(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateSlotKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}

	updated := false
	for i := range file.Slots {
		if file.Slots[i].Key == key {
			file.Slots[i].Value = value
			updated = true
			break
		}
	}
	if !updated {
		file.Slots = append(file.Slots, slotSchema{Key: key, Value: value})
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeTOMLFile(s.path, file)
}

func (s *SlotStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateSlotKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}

	kept := file.Slots[:0]
	for _, slot := range file.Slots {
		if slot.Key != key {
			kept = append(kept, slot)
		}
	}
	if len(kept) == len(file.Slots) {
		return nil
	}
	file.Slots = kept

	return writeTOMLFile(s.path, file)
}

func (s *SlotStore) readSchema() (slotsFileSchema, error) {
	var file slotsFileSchema
	if err := readTOMLFile(s.path, "slots", &file); err != nil {
		return slotsFileSchema{}, err
	}
	if err := file.validateVersion(); err != nil {
		return slotsFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func validateSlotKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("slot key is empty")
	}

	return nil
}
