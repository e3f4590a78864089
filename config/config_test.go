package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
rpc_url: http://127.0.0.1:8545
router_address: "0x0000000000000000000000000000000000000def"
pool_address: "0x0000000000000000000000000000000000000abc"
token_a:
  address: "0x00000000000000000000000000000000000000aa"
token_b:
  address: "0x00000000000000000000000000000000000000bb"
  decimals: 6
slippage: 1.5
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leogia-swap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileWithDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	require.Equal(t, "http://127.0.0.1:8545", cfg.RPCURL)
	require.Equal(t, "LEO", cfg.TokenA.Symbol)
	require.Equal(t, int32(18), cfg.TokenA.Decimals)
	require.Equal(t, "GIA", cfg.TokenB.Symbol)
	require.Equal(t, int32(6), cfg.TokenB.Decimals)
	require.Equal(t, 1.5, cfg.Slippage)
	require.Equal(t, "1.5", cfg.SlippageDecimal().String())
	require.Equal(t, uint64(300000), cfg.GasLimit)
	require.Equal(t, uint64(10000), cfg.HistoryWindow)
	require.Equal(t, 6, cfg.HistoryLimit)
	require.Equal(t, 3*time.Minute, cfg.TxTimeout)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LEOGIA_SWAP_RPC_URL", "http://node:8545")
	t.Setenv("LEOGIA_SWAP_TOKEN_A_SYMBOL", "FOO")
	t.Setenv("LEOGIA_SWAP_TX_TIMEOUT", "30s")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	require.Equal(t, "http://node:8545", cfg.RPCURL)
	require.Equal(t, "FOO", cfg.TokenA.Symbol)
	require.Equal(t, 30*time.Second, cfg.TxTimeout)
}

func TestLoad_MissingRPCURL(t *testing.T) {
	_, err := Load(writeConfig(t, "slippage: 1\n"))
	require.ErrorIs(t, err, ErrMissingRPCURL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func validConfig() Config {
	return Config{
		RPCURL:        "http://127.0.0.1:8545",
		RouterAddress: "0x0000000000000000000000000000000000000def",
		PoolAddress:   "0x0000000000000000000000000000000000000abc",
		TokenA:        Token{Symbol: "LEO", Address: "0x00000000000000000000000000000000000000aa", Decimals: 18},
		TokenB:        Token{Symbol: "GIA", Address: "0x00000000000000000000000000000000000000bb", Decimals: 18},
		Slippage:      2,
		HistoryLimit:  6,
		TxTimeout:     time.Minute,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"bad router", func(c *Config) { c.RouterAddress = "0x12" }, "router_address"},
		{"bad account", func(c *Config) { c.Account = "me" }, "account"},
		{"too many decimals", func(c *Config) { c.TokenB.Decimals = 78 }, "token_b.decimals"},
		{"same symbol", func(c *Config) { c.TokenB.Symbol = "leo" }, "different symbols"},
		{"slippage above range", func(c *Config) { c.Slippage = 51 }, "slippage"},
		{"negative slippage", func(c *Config) { c.Slippage = -0.5 }, "slippage"},
		{"zero limit", func(c *Config) { c.HistoryLimit = 0 }, "history_limit"},
		{"zero timeout", func(c *Config) { c.TxTimeout = 0 }, "tx_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			require.ErrorContains(t, c.Validate(), tt.errMsg)
		})
	}

	c := validConfig()
	require.NoError(t, c.Validate())
}

func TestValidate_ReportsFirstInvalidFieldInOrder(t *testing.T) {
	c := validConfig()
	c.RouterAddress = "bad"
	c.PoolAddress = "bad"
	c.TokenB.Address = "bad"
	c.TokenA.Symbol = ""
	c.TokenB.Symbol = ""

	for i := 0; i < 20; i++ {
		require.EqualError(t, c.Validate(), `router_address: invalid address "bad"`)
	}

	c = validConfig()
	c.TokenA.Decimals = -1
	c.TokenB.Symbol = ""
	for i := 0; i < 20; i++ {
		require.ErrorContains(t, c.Validate(), "token_a.decimals")
	}
}
