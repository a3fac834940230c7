// Command slabd runs the slab server: one or more slab matching engines
// plus a router registry, served over HTTP by internal/api and persisted
// by internal/store.
//
//	cmd/slabd/main.go  — cobra entry point: serve, init subcommands
//	internal/harness    — the in-process runtime: mutexes, dispatch, persistence
//	internal/api         — HTTP/WebSocket surface over the harness
//	internal/store        — JSON snapshot persistence
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"slabcore/internal/api"
	"slabcore/internal/config"
	"slabcore/internal/harness"
	"slabcore/internal/slab"
	"slabcore/internal/store"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "slabd",
	Short: "slabd runs a slab matching engine and router registry",
	Long: `slabd loads a slab server configuration, bootstraps the configured
instruments, and serves the HTTP/WebSocket API described by the slab wire
protocol.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the slab server and block until SIGINT/SIGTERM",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			slog.Error("failed to load config", "error", err, "path", cfgPath)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid config", "error", err)
			os.Exit(1)
		}

		logger := newLogger(*cfg)

		st, err := store.Open(cfg.Store.DataDir)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}

		slabState, err := buildSlab(*cfg, st, logger)
		if err != nil {
			logger.Error("failed to build slab", "error", err)
			os.Exit(1)
		}

		h := harness.New(*cfg, logger, st)
		h.AddSlab(cfg.SlabID, slabState)
		if restored, err := st.LoadRouter(h.Router); err != nil {
			logger.Error("failed to restore router snapshot", "error", err)
			os.Exit(1)
		} else if restored {
			logger.Info("restored router snapshot")
		}
		h.Router.LiqFeeBps = cfg.Liquidity.LiqFeeBps
		h.Router.PriceBandBps = cfg.Liquidity.PriceBandBps

		var apiServer *api.Server
		if cfg.Dashboard.Enabled {
			apiServer = api.NewServer(cfg.Dashboard, h, *cfg, logger)
			go func() {
				if err := apiServer.Start(); err != nil {
					logger.Error("api server failed", "error", err)
				}
			}()
			logger.Info("api server started", "url", fmt.Sprintf("http://localhost:%d", cfg.Dashboard.Port))
		}

		logger.Info("slabd started", "slab_id", cfg.SlabID, "instruments", slabState.InstrumentCount)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig.String())

		if apiServer != nil {
			if err := apiServer.Stop(); err != nil {
				logger.Error("failed to stop api server", "error", err)
			}
		}
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "validate config and bootstrap a fresh slab snapshot without serving",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			slog.Error("failed to load config", "error", err, "path", cfgPath)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid config", "error", err)
			os.Exit(1)
		}

		logger := newLogger(*cfg)
		st, err := store.Open(cfg.Store.DataDir)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}

		slabState, err := buildSlab(*cfg, st, logger)
		if err != nil {
			logger.Error("failed to build slab", "error", err)
			os.Exit(1)
		}
		if err := st.SaveSlab(cfg.SlabID, slabState); err != nil {
			logger.Error("failed to persist slab snapshot", "error", err)
			os.Exit(1)
		}
		logger.Info("slab initialized", "slab_id", cfg.SlabID, "instruments", slabState.InstrumentCount)
	},
}

// buildSlab restores a slab's state from the store if a snapshot already
// exists, otherwise constructs and initializes one from cfg and bootstraps
// every configured instrument.
func buildSlab(cfg config.Config, st *store.Store, logger *slog.Logger) (*slab.State, error) {
	s := slab.New(slab.Config{
		AccountCapacity:     cfg.Pools.AccountCapacity,
		OrderCapacity:       cfg.Pools.OrderCapacity,
		PositionCapacity:    cfg.Pools.PositionCapacity,
		ReservationCapacity: cfg.Pools.ReservationCapacity,
		SliceCapacity:       cfg.Pools.SliceCapacity,
		AggressorRingSize:   cfg.Pools.AggressorRingSize,
	})

	restored, err := st.LoadSlab(cfg.SlabID, s)
	if err != nil {
		return nil, fmt.Errorf("load slab snapshot: %w", err)
	}
	if restored {
		logger.Info("restored slab snapshot", "slab_id", cfg.SlabID)
		return s, nil
	}

	authority := [32]byte(common.HexToHash(cfg.Authority.AuthorityHex))
	oracle := [32]byte(common.HexToHash(cfg.Authority.OracleHex))
	router := [32]byte(common.HexToHash(cfg.Authority.RouterHex))
	if err := s.Initialize(authority, oracle, router,
		cfg.Market.IMRBps, cfg.Market.MMRBps,
		cfg.Market.MakerFeeBps, cfg.Market.TakerFeeBps,
		cfg.Market.BatchMs, cfg.Market.FreezeLevels); err != nil {
		return nil, fmt.Errorf("initialize slab: %w", err)
	}
	s.SetKillBand(cfg.Market.KillBandBps)
	for _, accountIdx := range cfg.Liquidity.DLPAccounts {
		if _, err := s.EnsureAccount(accountIdx); err != nil {
			return nil, fmt.Errorf("ensure dlp account %d: %w", accountIdx, err)
		}
		s.SetDLP(accountIdx, true)
	}

	for _, in := range cfg.Instruments {
		var symbol [8]byte
		copy(symbol[:], in.Symbol)
		if _, err := s.AddInstrument(symbol, in.ContractSize, in.Tick, in.Lot, in.IndexPrice); err != nil {
			return nil, fmt.Errorf("add instrument %s: %w", in.Symbol, err)
		}
	}
	return s, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "path to config YAML file")
	rootCmd.AddCommand(serveCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
