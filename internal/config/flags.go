package config

import (
	"flag"
	"os"

	"github.com/anhthuvo/storefront/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the commerce REST API
//	-g string   GraphQL endpoint URL
//	-s string   store code
//	-d string   path of the local storage file
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-s", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ShopAPIURL, "a", cfg.ShopAPIURL, "base URL of the commerce REST API")
	fs.StringVar(&cfg.GraphQLURL, "g", cfg.GraphQLURL, "GraphQL endpoint URL")
	fs.StringVar(&cfg.StoreCode, "s", cfg.StoreCode, "store code")
	fs.StringVar(&cfg.StoragePath, "d", cfg.StoragePath, "path of the local storage file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
