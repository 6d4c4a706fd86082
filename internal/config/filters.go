package config

import (
	"fmt"
	"os"

	"github.com/georgemunganga/stocksync/internal/modules/catalog"
	"github.com/georgemunganga/stocksync/internal/modules/storefront"
	"gopkg.in/yaml.v3"
)

// LoadFilters reads the catalog selection from a YAML file. Keys left out of the
// file keep their built-in defaults; an empty path returns the defaults.
func LoadFilters(path string) (catalog.Filters, error) {
	f := catalog.DefaultFilters()
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.Filters{}, fmt.Errorf("read filters %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return catalog.Filters{}, fmt.Errorf("parse filters %s: %w", path, err)
	}
	if _, err := PolicyOverrides(f); err != nil {
		return catalog.Filters{}, err
	}
	return f, nil
}

// PolicyOverrides converts and validates the per-colour policy overrides.
func PolicyOverrides(f catalog.Filters) (map[string]storefront.InventoryPolicy, error) {
	out := make(map[string]storefront.InventoryPolicy, len(f.ColorPolicyOverrides))
	for color, v := range f.ColorPolicyOverrides {
		p := storefront.InventoryPolicy(v)
		if !p.Valid() {
			return nil, fmt.Errorf("color_policy_overrides[%q]: %q is not continue or deny", color, v)
		}
		out[catalog.NormalizeSpace(color)] = p
	}
	return out, nil
}
