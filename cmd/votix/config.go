package main

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// placeholderAddress is the value shipped in example configuration before deployment.
const placeholderAddress = "YOUR_DEPLOYED_CONTRACT_ADDRESS"

// Config holds the client configuration. Environment variables are read first;
// command-line flags override them.
type Config struct {
	RPCURL          string        `env:"VOTIX_RPC_URL"`                                                      // JSON-RPC endpoint (--rpc-url)
	ContractAddress string        `env:"VOTIX_CONTRACT_ADDRESS" envDefault:"YOUR_DEPLOYED_CONTRACT_ADDRESS"` // deployed Votix address (--contract)
	ChainID         int64         `env:"VOTIX_CHAIN_ID" envDefault:"11155111"`                               // expected network
	Keystore        string        `env:"VOTIX_KEYSTORE"`                                                     // keystore directory (--keystore)
	Account         string        `env:"VOTIX_ACCOUNT"`                                                      // preferred keystore account (--account)
	PrivateKey      string        `env:"VOTIX_PRIVATE_KEY"`                                                  // raw hex key, development chains only
	Passphrase      string        `env:"VOTIX_PASSPHRASE"`                                                   // keystore passphrase; prompted when empty
	ProfilesDB      string        `env:"VOTIX_PROFILES_DB"`                                                  // candidate profile catalog; in-memory when empty
	LogFile         string        `env:"VOTIX_LOG_FILE"`                                                     // --log-file
	LogLevel        string        `env:"VOTIX_LOG_LEVEL" envDefault:"info"`                                  // --log-level
	RefreshInterval time.Duration `env:"VOTIX_REFRESH_INTERVAL" envDefault:"15s"`                            // snapshot polling
	HTTPAddr        string        `env:"VOTIX_HTTP_ADDR" envDefault:":8080"`                                 // serve: /status listener
	GRPCAddr        string        `env:"VOTIX_GRPC_ADDR" envDefault:":9090"`                                 // serve: health listener
	Simulate        bool          `env:"VOTIX_SIMULATE"`                                                     // in-memory contract (--simulate)
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set are not overridden. A missing file is only an error
// when required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ParseConfig reads Config from environ, or from the process environment when
// environ is nil.
func ParseConfig(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Environment: environ}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks everything needed to reach the contract.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.Simulate {
		if c.PrivateKey != "" && len(strings.TrimPrefix(c.PrivateKey, "0x")) != 64 {
			errs = append(errs, "VOTIX_PRIVATE_KEY must be 32 hex-encoded bytes")
		}
	} else {
		if err := validateContractAddress(c.ContractAddress); err != nil {
			errs = append(errs, err.Error())
		}
		if c.RPCURL == "" {
			errs = append(errs, "missing required setting: VOTIX_RPC_URL (--rpc-url)")
		}
		if c.Keystore == "" && c.PrivateKey == "" {
			errs = append(errs, "no wallet configured: set VOTIX_KEYSTORE (--keystore) or VOTIX_PRIVATE_KEY")
		}
	}

	if c.Account != "" && !common.IsHexAddress(c.Account) {
		errs = append(errs, fmt.Sprintf("VOTIX_ACCOUNT %q is not a hex address", c.Account))
	}
	if c.ChainID <= 0 {
		errs = append(errs, "VOTIX_CHAIN_ID must be positive")
	}
	if c.RefreshInterval < time.Second {
		errs = append(errs, "VOTIX_REFRESH_INTERVAL must be at least 1s")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log level %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// validateContractAddress rejects unset, placeholder, malformed and zero addresses.
func validateContractAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	switch {
	case addr == "" || addr == placeholderAddress:
		return errors.New("contract address is not configured: deploy Votix and set VOTIX_CONTRACT_ADDRESS (--contract)")
	case !common.IsHexAddress(addr):
		return fmt.Errorf("contract address %q is not a hex address", addr)
	case common.HexToAddress(addr) == (common.Address{}):
		return errors.New("contract address is the zero address")
	}
	return nil
}

// Contract returns the parsed contract address.
func (c *Config) Contract() common.Address {
	return common.HexToAddress(strings.TrimSpace(c.ContractAddress))
}

// PreferredAccount returns the configured keystore account, or the zero address.
func (c *Config) PreferredAccount() common.Address {
	if c.Account == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.Account)
}

// ExpectedChainID is the chain the client warns about leaving.
// The simulator has no expected chain.
func (c *Config) ExpectedChainID() *big.Int {
	if c.Simulate {
		return nil
	}
	return big.NewInt(c.ChainID)
}
