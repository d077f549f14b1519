package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/anhthuvo/storefront/internal/flagx"
	"github.com/anhthuvo/storefront/internal/timex"
)

// JSONConfig is the DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so the file can specify intervals either as strings like
// "15s" or as integer nanoseconds.
type JSONConfig struct {
	ShopAPIURL              *string         `json:"shop_api_url"`
	GraphQLURL              *string         `json:"graphql_url"`
	StoreCode               *string         `json:"store_code"`
	StoreID                 *int            `json:"store_id"`
	StoragePath             *string         `json:"storage_path"`
	SpoolPath               *string         `json:"spool_path"`
	RequestTimeout          *timex.Duration `json:"request_timeout"`
	FacebookPixelID         *string         `json:"facebook_pixel_id"`
	FacebookConversionToken *string         `json:"facebook_conversion_token"`
	ConversionEndpoint      *string         `json:"conversion_endpoint"`
	GoogleConversionID      *string         `json:"google_conversion_id"`
	GeoLookupURL            *string         `json:"geo_lookup_url"`
	DisablePerks            *bool           `json:"disable_perks"`
	ForceCreditApply        *bool           `json:"force_credit_apply"`
}

// parseJSON overlays Config with values loaded from the JSON file named by
// the -c/-config flag. Absent fields keep their current values. Read or
// unmarshal errors panic; configuration is resolved before anything else
// starts.
func parseJSON(cfg *Config) {
	path := flagx.JSONConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	apply(&cfg.ShopAPIURL, jc.ShopAPIURL)
	apply(&cfg.GraphQLURL, jc.GraphQLURL)
	apply(&cfg.StoreCode, jc.StoreCode)
	apply(&cfg.StoreID, jc.StoreID)
	apply(&cfg.StoragePath, jc.StoragePath)
	apply(&cfg.SpoolPath, jc.SpoolPath)
	apply(&cfg.FacebookPixelID, jc.FacebookPixelID)
	apply(&cfg.FacebookConversionToken, jc.FacebookConversionToken)
	apply(&cfg.ConversionEndpoint, jc.ConversionEndpoint)
	apply(&cfg.GoogleConversionID, jc.GoogleConversionID)
	apply(&cfg.GeoLookupURL, jc.GeoLookupURL)
	apply(&cfg.DisablePerks, jc.DisablePerks)
	apply(&cfg.ForceCreditApply, jc.ForceCreditApply)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
}

func apply[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
