package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/fyndra/outfitscout/config"
	"github.com/fyndra/outfitscout/internal/adapters/custom"
	"github.com/fyndra/outfitscout/internal/adapters/feed"
	"github.com/fyndra/outfitscout/internal/adapters/scrape"
	"github.com/fyndra/outfitscout/internal/cost"
	"github.com/fyndra/outfitscout/internal/httputil"
	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/notify"
	"github.com/fyndra/outfitscout/internal/service"
	"github.com/fyndra/outfitscout/internal/shop"
	"github.com/fyndra/outfitscout/internal/stealth"
	"github.com/fyndra/outfitscout/internal/store"
	"github.com/fyndra/outfitscout/internal/watch"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "outfitscout",
	Short: "OutfitScout - cross-shop clothing search, outfit budgeting and price watching",
	Long:  "Aggregates clothing listings from configured shops, normalizes landed costs for your destination, assembles outfits under a budget, and watches prices.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("shops-dir", "", "Directory with shop config YAML files")
	rootCmd.PersistentFlags().String("currency", "", "Comparison currency (default SEK)")
	rootCmd.PersistentFlags().String("delay-profile", "", "Delay profile: cautious, normal, aggressive")
	rootCmd.PersistentFlags().Bool("respect-robots", true, "Respect robots.txt rules")
	rootCmd.PersistentFlags().String("proxy-mode", "", "Proxy mode: custom, direct")
	rootCmd.PersistentFlags().String("proxy-file", "", "Path to proxy list file")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("shops-dir"); v != "" {
		cfg.ShopsDir = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("currency"); v != "" {
		cfg.Currency = strings.ToUpper(v)
	}
	if v, _ := rootCmd.PersistentFlags().GetString("delay-profile"); v != "" {
		cfg.DelayProfile = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("respect-robots"); !v {
		cfg.RespectRobots = false
	}
	if v, _ := rootCmd.PersistentFlags().GetString("proxy-mode"); v != "" {
		cfg.ProxyMode = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("proxy-file"); v != "" {
		cfg.ProxyFile = v
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// buildScrapeClient creates the stealth-wrapped HTTP client used for
// scraped shops.
func buildScrapeClient() *http.Client {
	fpPool := stealth.NewFingerprintPool(true)
	delay := stealth.NewHumanDelay(stealth.DelayProfile(cfg.DelayProfile))
	limiter := rate.NewLimiter(rate.Limit(2.0), 3)

	baseTransport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}

	var proxyRotator *stealth.ProxyRotator
	if cfg.ProxyMode == "custom" && cfg.ProxyFile != "" {
		providers, err := loadProxyProviders(cfg.ProxyFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: proxy file ignored: %v\n", err)
		} else {
			proxyRotator = stealth.NewProxyRotator(providers)
		}
	}

	robotsClient := &http.Client{Timeout: 10 * time.Second}
	robots := stealth.NewRobotsChecker(robotsClient, cfg.RespectRobots)

	transport := &stealth.StealthTransport{
		Base:        baseTransport,
		Robots:      robots,
		Fingerprint: fpPool,
		Proxy:       proxyRotator,
		Delay:       delay,
		RateLimiter: limiter,
	}

	return &http.Client{Transport: transport}
}

func loadProxyProviders(path string) ([]stealth.ProxyProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var providers []stealth.ProxyProvider
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		providers = append(providers, &stealth.HTTPProxyProvider{RawURL: line, Label: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no proxies in %s", path)
	}
	return providers, nil
}

// buildRegistry loads shop configs and registers an adapter per shop.
func buildRegistry(logger *slog.Logger) (*shop.Registry, error) {
	configs, err := shop.LoadConfigs(cfg.ShopsDir)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("no shop configs in %s", cfg.ShopsDir)
	}

	scrapeClient := buildScrapeClient()
	feedClient := httputil.NewHTTPClient(nil)

	registry := shop.NewRegistry(cfg.MaxConcurrent, time.Duration(cfg.CallTimeout)*time.Second, logger)
	for _, sc := range configs {
		var adapter shop.Adapter
		switch sc.Kind {
		case models.SourceAffiliateFeed:
			adapter = feed.New(sc, feedClient)
		case models.SourceScraper:
			adapter = scrape.New(sc, scrapeClient)
		case models.SourceCustom:
			adapter, err = custom.New(sc, scrapeClient)
			if err != nil {
				return nil, fmt.Errorf("shop %s: %w", sc.ID, err)
			}
		default:
			return nil, fmt.Errorf("shop %s: unknown source kind %q", sc.ID, sc.Kind)
		}
		registry.Register(sc, adapter)
	}
	return registry, nil
}

func buildEngine() *cost.Engine {
	var rates cost.RateSource = cost.DefaultStaticRates()
	if cfg.RatesURL != "" {
		rates = cost.NewLiveRates(cfg.RatesURL, rates)
	}

	rules := cost.Rules{
		DestinationCountry:  cfg.DestinationCountry,
		DestinationEU:       cfg.DestinationEU,
		Currency:            cfg.Currency,
		VATRate:             cfg.VATRate,
		CustomsThresholdEUR: cfg.CustomsThresholdEUR,
		DutyRates: cost.DutyRates{
			Clothing:    cfg.DutyClothing,
			Footwear:    cfg.DutyFootwear,
			Accessories: cfg.DutyAccessories,
			Default:     cfg.DutyDefault,
		},
	}
	return cost.NewEngine(rules, rates)
}

func buildService(logger *slog.Logger) (*service.Service, error) {
	registry, err := buildRegistry(logger)
	if err != nil {
		return nil, err
	}
	return service.New(registry, buildEngine(), logger), nil
}

func buildStore() (store.Store, error) {
	if cfg.DatabaseDSN != "" {
		return store.OpenMySQL(cfg.DatabaseDSN)
	}
	return store.NewMemory(), nil
}

func buildNotifier(logger *slog.Logger) watch.Notifier {
	if cfg.ResendAPIKey != "" && cfg.AlertFrom != "" && len(cfg.AlertTo) > 0 {
		return notify.NewEmailNotifier(cfg.ResendAPIKey, cfg.AlertFrom, cfg.AlertTo)
	}
	return &notify.LogNotifier{Logger: logger}
}
