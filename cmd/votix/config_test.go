package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{})
	require.NoError(t, err)

	require.Equal(t, placeholderAddress, cfg.ContractAddress)
	require.Equal(t, int64(11155111), cfg.ChainID)
	require.Equal(t, 15*time.Second, cfg.RefreshInterval)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, ":9090", cfg.GRPCAddr)
	require.False(t, cfg.Simulate)
}

func TestParseConfig_Environment(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{
		"VOTIX_RPC_URL":          "http://127.0.0.1:8545",
		"VOTIX_CONTRACT_ADDRESS": testContract,
		"VOTIX_CHAIN_ID":         "31337",
		"VOTIX_REFRESH_INTERVAL": "30s",
		"VOTIX_SIMULATE":         "true",
	})
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8545", cfg.RPCURL)
	require.Equal(t, int64(31337), cfg.ChainID)
	require.Equal(t, 30*time.Second, cfg.RefreshInterval)
	require.True(t, cfg.Simulate)
	require.Nil(t, cfg.ExpectedChainID(), "simulator has no expected chain")

	_, err = ParseConfig(map[string]string{"VOTIX_CHAIN_ID": "sepolia"})
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			RPCURL:          "http://127.0.0.1:8545",
			ContractAddress: testContract,
			ChainID:         11155111,
			Keystore:        "/tmp/keystore",
			LogLevel:        "info",
			RefreshInterval: 15 * time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{"valid", func(c *Config) {}, nil},
		{"placeholder address", func(c *Config) { c.ContractAddress = placeholderAddress }, []string{"contract address is not configured"}},
		{"empty address", func(c *Config) { c.ContractAddress = " " }, []string{"contract address is not configured"}},
		{"malformed address", func(c *Config) { c.ContractAddress = "0x123" }, []string{"is not a hex address"}},
		{"zero address", func(c *Config) { c.ContractAddress = "0x0000000000000000000000000000000000000000" }, []string{"zero address"}},
		{"no wallet", func(c *Config) { c.Keystore = "" }, []string{"no wallet configured"}},
		{"bad account", func(c *Config) { c.Account = "alice" }, []string{"VOTIX_ACCOUNT"}},
		{"fast refresh", func(c *Config) { c.RefreshInterval = time.Millisecond }, []string{"VOTIX_REFRESH_INTERVAL"}},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, []string{"invalid log level"}},
		{
			"collects every problem",
			func(c *Config) { c.RPCURL = ""; c.ContractAddress = ""; c.ChainID = 0 },
			[]string{"VOTIX_RPC_URL", "contract address", "VOTIX_CHAIN_ID"},
		},
		{
			"simulate needs no node",
			func(c *Config) { c.Simulate = true; c.RPCURL = ""; c.ContractAddress = ""; c.Keystore = "" },
			nil,
		},
		{"simulate short key", func(c *Config) { c.Simulate = true; c.PrivateKey = "0xabc" }, []string{"VOTIX_PRIVATE_KEY"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				require.Contains(t, err.Error(), want)
			}
			require.Equal(t, len(tt.wantErr)-1, strings.Count(err.Error(), "; "))
		})
	}
}

func TestConfig_Addresses(t *testing.T) {
	cfg := &Config{ContractAddress: " " + testContract + " ", ChainID: 5}
	require.Equal(t, testContract, cfg.Contract().Hex())
	require.Equal(t, int64(5), cfg.ExpectedChainID().Int64())
	require.Equal(t, "0x0000000000000000000000000000000000000000", cfg.PreferredAccount().Hex())
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, LoadEnvFile("", true))
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"), false))
	require.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"), true))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("VOTIX_TEST_FROM_FILE=loaded\nVOTIX_TEST_PRESET=file\n"), 0o600))
	t.Setenv("VOTIX_TEST_FROM_FILE", "")
	os.Unsetenv("VOTIX_TEST_FROM_FILE")
	t.Setenv("VOTIX_TEST_PRESET", "env")

	require.NoError(t, LoadEnvFile(path, true))
	require.Equal(t, "loaded", os.Getenv("VOTIX_TEST_FROM_FILE"))
	require.Equal(t, "env", os.Getenv("VOTIX_TEST_PRESET"), "existing variables win over the file")
}
