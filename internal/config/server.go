package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Server is the process configuration for cmd/server, loaded from the
// environment.
type Server struct {
	Addr        string `env:"JBN_ADDR" envDefault:":8080"`
	LogLevel    string `env:"JBN_LOG_LEVEL" envDefault:"info"`
	RNGSeed     uint64 `env:"JBN_RNG_SEED"`      // 0 means OS entropy
	CatalogDir  string `env:"JBN_CATALOG_DIR"`   // empty means embedded tables
	BalancePath string `env:"JBN_BALANCE_FILE"`  // empty means Default()
}

// LoadServer parses the server configuration from environment variables.
func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
