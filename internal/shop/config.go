package shop

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyndra/outfitscout/internal/models"
	"gopkg.in/yaml.v3"
)

// LoadConfigs reads every *.yaml file in dir into a validated
// ShopConfig. A file that fails validation aborts the load: a bad shop
// definition is an operator error, not a runtime condition.
func LoadConfigs(dir string) ([]*models.ShopConfig, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob shop configs: %w", err)
	}

	var configs []*models.ShopConfig
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		cfg, err := ParseConfig(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// ParseConfig unmarshals and validates a single shop definition.
func ParseConfig(data []byte) (*models.ShopConfig, error) {
	var cfg models.ShopConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	return &cfg, nil
}

// ValidateConfig enforces the typed-configuration contract: enumerated
// source kind, matching capability block, and sane numeric ranges.
func ValidateConfig(cfg *models.ShopConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("shop config: id is required")
	}
	if cfg.Name == "" {
		return fmt.Errorf("shop %s: name is required", cfg.ID)
	}
	if cfg.URL == "" {
		return fmt.Errorf("shop %s: url is required", cfg.ID)
	}
	if cfg.Currency == "" {
		return fmt.Errorf("shop %s: currency is required", cfg.ID)
	}
	if cfg.TrustScore < 0 || cfg.TrustScore > 100 {
		return fmt.Errorf("shop %s: trust_score %d out of range 0-100", cfg.ID, cfg.TrustScore)
	}
	if cfg.FlatShipping.IsNegative() {
		return fmt.Errorf("shop %s: flat_shipping must not be negative", cfg.ID)
	}
	if cfg.FreeShipThreshold.IsNegative() {
		return fmt.Errorf("shop %s: free_ship_threshold must not be negative", cfg.ID)
	}
	for country, charge := range cfg.ShippingTable {
		if charge.IsNegative() {
			return fmt.Errorf("shop %s: shipping_table entry %s must not be negative", cfg.ID, country)
		}
	}

	switch cfg.Kind {
	case models.SourceAffiliateFeed:
		if cfg.Feed == nil || cfg.Feed.URL == "" {
			return fmt.Errorf("shop %s: kind affiliate_feed requires a feed block with url", cfg.ID)
		}
		switch cfg.Feed.Type {
		case "csv", "xml":
		default:
			return fmt.Errorf("shop %s: feed type %q must be csv or xml", cfg.ID, cfg.Feed.Type)
		}
	case models.SourceScraper:
		if cfg.Scrape == nil || cfg.Scrape.ItemSelector == "" {
			return fmt.Errorf("shop %s: kind scraper requires a scrape block with item_selector", cfg.ID)
		}
	case models.SourceCustom:
		if cfg.Custom == "" {
			return fmt.Errorf("shop %s: kind custom requires a custom adapter name", cfg.ID)
		}
	default:
		return fmt.Errorf("shop %s: unknown kind %q", cfg.ID, cfg.Kind)
	}

	return nil
}
