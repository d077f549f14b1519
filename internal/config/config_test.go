package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ShopAPIURL)
	assert.Equal(t, "default", c.StoreCode)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.False(t, c.DisablePerks)
}

func TestParseEnv_Overrides(t *testing.T) {
	t.Setenv("SHOP_API_URL", "https://shop.example.com")
	t.Setenv("STORE_ID", "3")
	t.Setenv("FORCE_CREDIT_APPLY", "true")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "https://shop.example.com", c.ShopAPIURL)
	assert.Equal(t, 3, c.StoreID)
	assert.True(t, c.ForceCreditApply)
}

func TestParseEnv_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("STORE_ID", "not-a-number")
	t.Setenv("DISABLE_PERKS", "maybe")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, 1, c.StoreID)
	assert.False(t, c.DisablePerks)
}

func TestJSONConfig_PartialOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"shop_api_url":"https://shop.example.com","request_timeout":"30s","disable_perks":true}`,
	), 0o600))

	var jc JSONConfig
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &jc))

	var c Config
	c.LoadDefaults()
	apply(&c.ShopAPIURL, jc.ShopAPIURL)
	apply(&c.DisablePerks, jc.DisablePerks)
	if jc.RequestTimeout != nil {
		c.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}

	assert.Equal(t, "https://shop.example.com", c.ShopAPIURL)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.True(t, c.DisablePerks)
	// absent fields keep defaults
	assert.Equal(t, "default", c.StoreCode)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, "default", cfg.StoreCode)
	assert.Equal(t, 1, cfg.StoreID)
}
