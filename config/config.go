package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const EnvPrefix = "LEOGIA_SWAP"

var ErrMissingRPCURL = errors.New("RPC URL not found. Please set LEOGIA_SWAP_RPC_URL environment variable or create a .leogia-swap.yaml config file")

// Token is one side of the pool as configured
type Token struct {
	Symbol   string `mapstructure:"symbol"`
	Address  string `mapstructure:"address"`
	Decimals int32  `mapstructure:"decimals"`
}

// Config holds the application configuration
type Config struct {
	RPCURL        string        `mapstructure:"rpc_url"`
	PrivateKey    string        `mapstructure:"private_key"`
	Account       string        `mapstructure:"account"`
	ChainID       int64         `mapstructure:"chain_id"`
	RouterAddress string        `mapstructure:"router_address"`
	PoolAddress   string        `mapstructure:"pool_address"`
	TokenA        Token         `mapstructure:"token_a"`
	TokenB        Token         `mapstructure:"token_b"`
	Slippage      float64       `mapstructure:"slippage"`
	GasLimit      uint64        `mapstructure:"gas_limit"`
	HistoryWindow uint64        `mapstructure:"history_window"`
	HistoryLimit  int           `mapstructure:"history_limit"`
	TxTimeout     time.Duration `mapstructure:"tx_timeout"`
	LogLevel      string        `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chain_id", 0)
	v.SetDefault("token_a.symbol", "LEO")
	v.SetDefault("token_a.decimals", 18)
	v.SetDefault("token_b.symbol", "GIA")
	v.SetDefault("token_b.decimals", 18)
	v.SetDefault("slippage", 2)
	v.SetDefault("gas_limit", 300000)
	v.SetDefault("history_window", 10000)
	v.SetDefault("history_limit", 6)
	v.SetDefault("tx_timeout", "3m")
	v.SetDefault("log_level", "info")

	// registered so AutomaticEnv can see keys that have no default
	for _, key := range []string{"rpc_url", "private_key", "account", "router_address", "pool_address", "token_a.address", "token_b.address"} {
		v.SetDefault(key, "")
	}
}

// Load reads configuration from environment variables and an optional
// config file. An empty file searches $HOME and the working directory for
// .leogia-swap.yaml.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".leogia-swap")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
	}

	// Read from environment variables; token_a.address => LEOGIA_SWAP_TOKEN_A_ADDRESS
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values a session cannot start without
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return ErrMissingRPCURL
	}
	for _, f := range []struct{ name, addr string }{
		{"router_address", c.RouterAddress},
		{"pool_address", c.PoolAddress},
		{"token_a.address", c.TokenA.Address},
		{"token_b.address", c.TokenB.Address},
	} {
		if !common.IsHexAddress(f.addr) {
			return fmt.Errorf("%s: invalid address %q", f.name, f.addr)
		}
	}
	if c.Account != "" && !common.IsHexAddress(c.Account) {
		return fmt.Errorf("account: invalid address %q", c.Account)
	}
	for _, f := range []struct {
		name string
		tok  Token
	}{
		{"token_a", c.TokenA},
		{"token_b", c.TokenB},
	} {
		if f.tok.Symbol == "" {
			return fmt.Errorf("%s.symbol is required", f.name)
		}
		if f.tok.Decimals < 0 || f.tok.Decimals > 77 {
			return fmt.Errorf("%s.decimals must be between 0 and 77, got %d", f.name, f.tok.Decimals)
		}
	}
	if strings.EqualFold(c.TokenA.Symbol, c.TokenB.Symbol) {
		return fmt.Errorf("token_a and token_b must have different symbols")
	}
	if c.Slippage < 0 || c.Slippage > 50 {
		return fmt.Errorf("slippage must be between 0 and 50, got %v", c.Slippage)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.TxTimeout <= 0 {
		return fmt.Errorf("tx_timeout must be positive, got %s", c.TxTimeout)
	}
	return nil
}

// SlippageDecimal returns the configured tolerance as an exact decimal
func (c *Config) SlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Slippage)
}
