package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gamebot-server/internal/domain/item"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

type fileFormat struct {
	Items []itemEntry `yaml:"items"`
}

type itemEntry struct {
	ID               string  `yaml:"id"`
	Name             string  `yaml:"name"`
	Cost             int64   `yaml:"cost"`
	Category         string  `yaml:"category"`
	Duration         string  `yaml:"duration"`
	EffectID         string  `yaml:"effect_id"`
	PayoutMultiplier float64 `yaml:"payout_multiplier"`
}

// Load path のYAMLからカタログを読み込む。path が空なら組み込みの既定カタログを使う
func Load(path string) (*item.Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse YAMLバイト列からカタログを作成
func Parse(data []byte) (*item.Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(f.Items) == 0 {
		return nil, fmt.Errorf("%w: catalog has no items", item.ErrInvalidDefinition)
	}

	defs := make([]item.Definition, 0, len(f.Items))
	for _, e := range f.Items {
		category, err := item.NewCategory(e.Category)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", e.ID, err)
		}

		var duration time.Duration
		if e.Duration != "" {
			duration, err = time.ParseDuration(e.Duration)
			if err != nil {
				return nil, fmt.Errorf("item %s: invalid duration %q: %w", e.ID, e.Duration, item.ErrInvalidDefinition)
			}
		}

		defs = append(defs, item.Definition{
			ID:               e.ID,
			Name:             e.Name,
			Cost:             e.Cost,
			Category:         category,
			Duration:         duration,
			EffectID:         e.EffectID,
			PayoutMultiplier: e.PayoutMultiplier,
		})
	}
	return item.NewCatalog(defs)
}
