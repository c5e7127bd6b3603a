package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	defaultFeedURL        = "https://interview.switcheo.com/prices.json"
	defaultIconListingURL = "https://api.github.com/repos/Switcheo/token-icons/contents/tokens"
	defaultIconBaseURL    = "https://raw.githubusercontent.com/Switcheo/token-icons/main/tokens"
	defaultListenAddr     = ":8080"
	defaultRefresh        = time.Minute
	defaultSettleDelay    = 2 * time.Second
	defaultSettleTimeout  = 10 * time.Second
	defaultDisplayDigits  = 8
)

type Config struct {
	FeedURL         string
	IconListingURL  string
	IconBaseURL     string
	ListenAddr      string
	RefreshInterval time.Duration
	SettleDelay     time.Duration
	SettleTimeout   time.Duration
	DisplayDigits   int32
	// Balances seeds the ledger; keys are currency codes.
	Balances map[string]decimal.Decimal
}

type configTmp struct {
	FeedURL         string            `yaml:"feed_url,omitempty"`
	IconListingURL  string            `yaml:"icon_listing_url,omitempty"`
	IconBaseURL     string            `yaml:"icon_base_url,omitempty"`
	ListenAddr      string            `yaml:"listen_addr,omitempty"`
	RefreshInterval time.Duration     `yaml:"refresh_interval,omitempty"`
	SettleDelay     time.Duration     `yaml:"settle_delay,omitempty"`
	SettleTimeout   time.Duration     `yaml:"settle_timeout,omitempty"`
	DisplayDigits   int32             `yaml:"display_digits,omitempty"`
	Balances        map[string]string `yaml:"balances,omitempty"`
}

// Get loads configuration from the yaml file named by --config, falling
// back to flags with built-in defaults. The default balances mirror the
// demo seeding: 10 ETH and 1000 USD.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	feedURL := flag.String("feedurl", defaultFeedURL, "price feed endpoint")
	listenAddr := flag.String("listen", defaultListenAddr, "web ui listen address")
	refresh := flag.Duration("refreshinterval", defaultRefresh, "price feed refresh interval")
	settleDelay := flag.Duration("settledelay", defaultSettleDelay, "simulated settlement delay")
	settleTimeout := flag.Duration("settletimeout", defaultSettleTimeout, "settlement timeout")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	return Config{
		FeedURL:         *feedURL,
		IconListingURL:  defaultIconListingURL,
		IconBaseURL:     defaultIconBaseURL,
		ListenAddr:      *listenAddr,
		RefreshInterval: *refresh,
		SettleDelay:     *settleDelay,
		SettleTimeout:   *settleTimeout,
		DisplayDigits:   defaultDisplayDigits,
		Balances:        defaultBalances(),
	}, nil
}

func defaultBalances() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"ETH": decimal.NewFromInt(10),
		"USD": decimal.NewFromInt(1000),
	}
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	conf := Config{
		FeedURL:         tmp.FeedURL,
		IconListingURL:  tmp.IconListingURL,
		IconBaseURL:     tmp.IconBaseURL,
		ListenAddr:      tmp.ListenAddr,
		RefreshInterval: tmp.RefreshInterval,
		SettleDelay:     tmp.SettleDelay,
		SettleTimeout:   tmp.SettleTimeout,
		DisplayDigits:   tmp.DisplayDigits,
	}

	if conf.FeedURL == "" {
		conf.FeedURL = defaultFeedURL
	}
	if conf.IconListingURL == "" {
		conf.IconListingURL = defaultIconListingURL
	}
	if conf.IconBaseURL == "" {
		conf.IconBaseURL = defaultIconBaseURL
	}
	if conf.ListenAddr == "" {
		conf.ListenAddr = defaultListenAddr
	}
	if conf.RefreshInterval <= 0 {
		conf.RefreshInterval = defaultRefresh
	}
	if conf.SettleDelay <= 0 {
		conf.SettleDelay = defaultSettleDelay
	}
	if conf.SettleTimeout <= 0 {
		conf.SettleTimeout = defaultSettleTimeout
	}
	if conf.DisplayDigits <= 0 {
		conf.DisplayDigits = defaultDisplayDigits
	}

	if len(tmp.Balances) == 0 {
		conf.Balances = defaultBalances()
		return conf, nil
	}

	conf.Balances = make(map[string]decimal.Decimal, len(tmp.Balances))
	for code, raw := range tmp.Balances {
		bal, err := decimal.NewFromString(raw)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect balance for %q in yaml config (correct format is 10.5), error: %w", code, err)
		}
		if bal.IsNegative() {
			return Config{}, fmt.Errorf("balance for %q must be non-negative, got %s", code, bal.String())
		}
		conf.Balances[code] = bal
	}

	return conf, nil
}
