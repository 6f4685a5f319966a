package custom

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
)

// Constructor builds a custom adapter for one shop.
type Constructor func(cfg *models.ShopConfig, client *http.Client) (shop.Adapter, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register makes a custom adapter available under a name referenced by
// shop config files. Call from an init function.
func Register(name string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("custom adapter %q registered twice", name))
	}
	registry[name] = c
}

// New instantiates the custom adapter named by the shop config.
func New(cfg *models.ShopConfig, client *http.Client) (shop.Adapter, error) {
	mu.RLock()
	c, ok := registry[cfg.Custom]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown custom adapter %q (have %v)", cfg.Custom, Names())
	}
	return c(cfg, client)
}

// Names lists the registered custom adapters, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
