// Package config loads the storefront's runtime settings. Sources are
// layered: defaults, then environment variables (with optional .env file),
// then a JSON file given via -c/-config, then command-line flags. Later
// sources take precedence.
package config

import "time"

// Config holds the runtime settings of the storefront client.
type Config struct {
	// ShopAPIURL is the base URL of the commerce REST API, without the
	// /rest/<store> suffix.
	ShopAPIURL string
	// GraphQLURL is the full GraphQL endpoint URL.
	GraphQLURL string
	// StoreCode scopes REST paths, e.g. "default".
	StoreCode string
	// StoreID is the numeric store scope sent on signup.
	StoreID int
	// StoragePath is the sqlite file backing the local KV store.
	StoragePath string
	// SpoolPath is the bbolt file backing the conversion-event spool.
	SpoolPath string
	// RequestTimeout bounds every backend request without a context deadline.
	RequestTimeout time.Duration

	// FacebookPixelID enables the facebook sink when non-empty.
	FacebookPixelID string
	// FacebookConversionToken enables server-side conversion events.
	FacebookConversionToken string
	// ConversionEndpoint is the pixel graph API base URL.
	ConversionEndpoint string
	// GoogleConversionID is the send_to destination for google conversions.
	GoogleConversionID string
	// GeoLookupURL is the IP-lookup endpoint used once per installation.
	GeoLookupURL string

	// DisablePerks skips the campaign-perk lookup on login.
	DisablePerks bool
	// ForceCreditApply levels store credit even without a cart discount.
	ForceCreditApply bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ShopAPIURL = "http://127.0.0.1:8080"
	c.GraphQLURL = "http://127.0.0.1:8080/graphql"
	c.StoreCode = "default"
	c.StoreID = 1
	c.StoragePath = "storefront.db"
	c.SpoolPath = "spool.db"
	c.RequestTimeout = 15 * time.Second
	c.ConversionEndpoint = "https://graph.facebook.com/v15.0"
	c.GeoLookupURL = "https://api.ipify.org?format=json"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment, a JSON file (if present), and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
