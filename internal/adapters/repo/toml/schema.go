package toml

import "fmt"

const (
	currentSlotsSchemaVersion   = 1
	currentCatalogSchemaVersion = 1
)

type slotsFileSchema struct {
	Version int          `toml:"version"`
	Slots   []slotSchema `toml:"slots"`
}

func (s *slotsFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSlotsSchemaVersion
	}
}

func (s slotsFileSchema) validateVersion() error {
	if s.Version > currentSlotsSchemaVersion {
		return fmt.Errorf("unsupported slots schema version %d (current %d)", s.Version, currentSlotsSchemaVersion)
	}

	return nil
}

type slotSchema struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`
}

type catalogFileSchema struct {
	Version  int             `toml:"version"`
	Products []productSchema `toml:"products"`
}

func (s *catalogFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentCatalogSchemaVersion
	}
}

func (s catalogFileSchema) validateVersion() error {
	if s.Version > currentCatalogSchemaVersion {
		return fmt.Errorf("unsupported catalog schema version %d (current %d)", s.Version, currentCatalogSchemaVersion)
	}

	return nil
}

type productSchema struct {
	ID       string  `toml:"id"`
	Title    string  `toml:"title"`
	ImageURL string  `toml:"image_url"`
	Price    float64 `toml:"price"`
}
