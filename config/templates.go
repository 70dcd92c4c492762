package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
)

// LoadCatalog returns the built-in template catalog, or the one defined in
// the JSON file at path when path is set. The file is validated fully; a bad
// file fails startup instead of falling back silently.
func LoadCatalog(path string) (*lineup.Catalog, error) {
	if path == "" {
		return lineup.DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates file: %w", err)
	}

	var def lineup.CatalogDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse templates file %s: %w", path, err)
	}

	catalog, err := lineup.NewCatalog(def)
	if err != nil {
		return nil, fmt.Errorf("templates file %s: %w", path, err)
	}
	return catalog, nil
}
