// Package config defines all configuration for the slab server and its
// dashboard. Config is loaded from a YAML file (default:
// configs/config.yaml) with sensitive fields overridable via SLAB_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	SlabID      string             `mapstructure:"slab_id"`
	Authority   AuthorityConfig    `mapstructure:"authority"`
	Pools       PoolsConfig        `mapstructure:"pools"`
	Market      MarketConfig       `mapstructure:"market"`
	Liquidity   LiquidityConfig    `mapstructure:"liquidity"`
	Instruments []InstrumentConfig `mapstructure:"instruments"`
	Store       StoreConfig        `mapstructure:"store"`
	Logging     LoggingConfig      `mapstructure:"logging"`
	Dashboard   DashboardConfig    `mapstructure:"dashboard"`
}

// InstrumentConfig declares one instrument to bootstrap on first start.
// Once a slab snapshot exists in the store, the slab is restored from it and
// none of the listed instruments is added, including ones the snapshot lacks.
type InstrumentConfig struct {
	Symbol       string `mapstructure:"symbol"`
	ContractSize uint64 `mapstructure:"contract_size"`
	Tick         uint64 `mapstructure:"tick"`
	Lot          uint64 `mapstructure:"lot"`
	IndexPrice   uint64 `mapstructure:"index_price"`
}

// AuthorityConfig identifies the keys allowed to administer a slab:
// upgrade authority, oracle publisher, and the router this slab accepts
// cross-slab instructions from.
type AuthorityConfig struct {
	AuthorityHex string `mapstructure:"authority_hex"`
	OracleHex    string `mapstructure:"oracle_hex"`
	RouterHex    string `mapstructure:"router_hex"`
}

// PoolsConfig sets the fixed slot capacities chosen at deployment time —
// these never change for the lifetime of a slab account.
type PoolsConfig struct {
	AccountCapacity     int `mapstructure:"account_capacity"`
	OrderCapacity       int `mapstructure:"order_capacity"`
	PositionCapacity    int `mapstructure:"position_capacity"`
	ReservationCapacity int `mapstructure:"reservation_capacity"`
	SliceCapacity       int `mapstructure:"slice_capacity"`
	AggressorRingSize   int `mapstructure:"aggressor_ring_size"`
}

// MarketConfig tunes the fee, margin, and anti-toxicity parameters shared
// by every instrument on a slab.
//
//   - IMRBps / MMRBps: initial / maintenance margin ratio in basis points.
//   - MakerFeeBps: negative values are a maker rebate paid to DLP makers.
//   - TakerFeeBps: charged on the taker's fill notional at commit.
//   - BatchMs: batch window length; pending orders become live every
//     BatchMs milliseconds via BatchOpen.
//   - FreezeLevels: number of best price levels a non-DLP taker cannot
//     reach during a freeze window; zero means a full freeze.
//   - KillBandBps: maximum oracle price drift tolerated between reserve
//     and commit before Commit fails with KillBand; zero disables the
//     check.
type MarketConfig struct {
	IMRBps       uint16 `mapstructure:"imr_bps"`
	MMRBps       uint16 `mapstructure:"mmr_bps"`
	MakerFeeBps  int16  `mapstructure:"maker_fee_bps"`
	TakerFeeBps  int16  `mapstructure:"taker_fee_bps"`
	BatchMs      uint64 `mapstructure:"batch_ms"`
	FreezeLevels uint16 `mapstructure:"freeze_levels"`
	KillBandBps  uint64 `mapstructure:"kill_band_bps"`
}

// LiquidityConfig tunes designated-liquidity-provider treatment and the
// price band applied to liquidation fills.
type LiquidityConfig struct {
	LiqFeeBps    uint16   `mapstructure:"liq_fee_bps"`
	PriceBandBps uint16   `mapstructure:"price_band_bps"`
	DLPAccounts  []uint32 `mapstructure:"dlp_accounts"`
}

// StoreConfig sets where slab/router state snapshots are persisted.
type StoreConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DashboardConfig controls the web dashboard server.
type DashboardConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive fields use env vars: SLAB_AUTHORITY_HEX, SLAB_ORACLE_HEX, SLAB_ROUTER_HEX.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if hex := os.Getenv("SLAB_AUTHORITY_HEX"); hex != "" {
		cfg.Authority.AuthorityHex = hex
	}
	if hex := os.Getenv("SLAB_ORACLE_HEX"); hex != "" {
		cfg.Authority.OracleHex = hex
	}
	if hex := os.Getenv("SLAB_ROUTER_HEX"); hex != "" {
		cfg.Authority.RouterHex = hex
	}

	return &cfg, nil
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Authority.AuthorityHex == "" {
		return fmt.Errorf("authority.authority_hex is required (set SLAB_AUTHORITY_HEX)")
	}
	if c.Authority.OracleHex == "" {
		return fmt.Errorf("authority.oracle_hex is required (set SLAB_ORACLE_HEX)")
	}
	if c.Pools.AccountCapacity <= 0 {
		return fmt.Errorf("pools.account_capacity must be > 0")
	}
	if c.Pools.OrderCapacity <= 0 {
		return fmt.Errorf("pools.order_capacity must be > 0")
	}
	if c.Pools.PositionCapacity <= 0 {
		return fmt.Errorf("pools.position_capacity must be > 0")
	}
	if c.Pools.ReservationCapacity <= 0 {
		return fmt.Errorf("pools.reservation_capacity must be > 0")
	}
	if c.Pools.SliceCapacity <= 0 {
		return fmt.Errorf("pools.slice_capacity must be > 0")
	}
	if c.Market.IMRBps == 0 {
		return fmt.Errorf("market.imr_bps must be > 0")
	}
	if c.Market.MMRBps == 0 || c.Market.MMRBps >= c.Market.IMRBps {
		return fmt.Errorf("market.mmr_bps must be > 0 and < market.imr_bps")
	}
	if c.Market.BatchMs == 0 {
		return fmt.Errorf("market.batch_ms must be > 0")
	}
	if c.SlabID == "" {
		return fmt.Errorf("slab_id is required")
	}
	return nil
}

// DefaultDashboardTimeout bounds dashboard shutdown: Server.Stop gives
// in-flight requests up to twice this long to finish.
const DefaultDashboardTimeout = 5 * time.Second
