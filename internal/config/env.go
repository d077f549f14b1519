package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with environment variables. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString(&cfg.ShopAPIURL, "SHOP_API_URL")
	setString(&cfg.GraphQLURL, "GRAPHQL_URL")
	setString(&cfg.StoreCode, "STORE_CODE")
	setInt(&cfg.StoreID, "STORE_ID")
	setString(&cfg.StoragePath, "STORAGE_PATH")
	setString(&cfg.SpoolPath, "SPOOL_PATH")
	setString(&cfg.FacebookPixelID, "FACEBOOK_PIXEL_ID")
	setString(&cfg.FacebookConversionToken, "FACEBOOK_CONVERSION_TOKEN")
	setString(&cfg.ConversionEndpoint, "CONVERSION_ENDPOINT")
	setString(&cfg.GoogleConversionID, "GOOGLE_CONVERSION_ID")
	setString(&cfg.GeoLookupURL, "GEO_LOOKUP_URL")
	setBool(&cfg.DisablePerks, "DISABLE_PERKS")
	setBool(&cfg.ForceCreditApply, "FORCE_CREDIT_APPLY")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
