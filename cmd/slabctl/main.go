// Command slabctl is an operator CLI for a running slabd: it submits wire
// instructions over HTTP and reads back quotes, using the same
// resty-based REST client pattern internal/exchange/client.go uses against
// the Polymarket CLOB, redirected at slabd's own /api surface.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"slabcore/internal/commitment"
	"slabcore/internal/wire"
	"slabcore/pkg/types"
)

var (
	baseURL       string
	slabID        string
	instrumentIdx uint16
	accountIdx    uint32
	side          uint8
	qty           uint64
	limitPx       uint64
	ttlMs         uint64
	routeID       uint64
	holdID        uint64
	saltHex       string
)

var rootCmd = &cobra.Command{
	Use:   "slabctl",
	Short: "slabctl drives a running slabd over its HTTP API",
}

func client() *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/octet-stream")
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "fetch the current quote cache for an instrument",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := resty.New().SetBaseURL(baseURL).R().
			SetQueryParam("instrument_idx", fmt.Sprintf("%d", instrumentIdx)).
			Get(fmt.Sprintf("/api/slabs/%s/quote", slabID))
		printResult(resp, err)
	},
}

var reserveCmd = &cobra.Command{
	Use:   "reserve",
	Short: "submit a reserve instruction, printing the commitment salt used",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var salt [32]byte
		if _, err := rand.Read(salt[:]); err != nil {
			fail(err)
		}
		commitmentHash := commitment.Hash(commitment.Fields{
			Salt:          salt,
			AccountIdx:    accountIdx,
			InstrumentIdx: instrumentIdx,
			Side:          types.Side(side),
			Qty:           qty,
			LimitPx:       limitPx,
			RouteID:       routeID,
		})

		instr := wire.ReserveInstruction{
			AccountIdx:     accountIdx,
			InstrumentIdx:  instrumentIdx,
			Side:           side,
			Qty:            qty,
			LimitPx:        limitPx,
			TTLMs:          ttlMs,
			CommitmentHash: commitmentHash,
			RouteID:        routeID,
		}
		resp, err := client().R().SetBody(instr.Encode()).Post(fmt.Sprintf("/api/slabs/%s/instructions", slabID))
		printResult(resp, err)
		fmt.Fprintf(os.Stdout, "salt: %s\n", hex.EncodeToString(salt[:]))
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "reveal the salt from a prior reserve and commit the fill",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		salt, err := decodeSalt(saltHex)
		if err != nil {
			fail(err)
		}
		instr := wire.CommitInstruction{HoldID: holdID, CurrentTS: nowMS(), Salt: salt}
		resp, err := client().R().SetBody(instr.Encode()).Post(fmt.Sprintf("/api/slabs/%s/instructions", slabID))
		printResult(resp, err)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "cancel an open reservation",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		instr := wire.CancelInstruction{HoldID: holdID}
		resp, err := client().R().SetBody(instr.Encode()).Post(fmt.Sprintf("/api/slabs/%s/instructions", slabID))
		printResult(resp, err)
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "submit a raw hex-encoded slab instruction body",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := hex.DecodeString(args[0])
		if err != nil {
			fail(fmt.Errorf("decode hex payload: %w", err))
		}
		resp, err := client().R().SetBody(raw).Post(fmt.Sprintf("/api/slabs/%s/instructions", slabID))
		printResult(resp, err)
	},
}

func decodeSalt(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("decode salt: %w", err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("salt must be 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func nowMS() uint64 {
	return uint64(time.Now().UnixMilli())
}

func printResult(resp *resty.Response, err error) {
	if err != nil {
		fail(err)
	}
	fmt.Fprintf(os.Stdout, "%d %s\n", resp.StatusCode(), resp.String())
	if resp.IsError() {
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&baseURL, "addr", "a", "http://localhost:8080", "slabd API base URL")
	rootCmd.PersistentFlags().StringVarP(&slabID, "slab", "s", "", "slab_id to target")
	rootCmd.MarkPersistentFlagRequired("slab")

	quoteCmd.Flags().Uint16VarP(&instrumentIdx, "instrument", "i", 0, "instrument index")
	rootCmd.AddCommand(quoteCmd)

	reserveCmd.Flags().Uint32Var(&accountIdx, "account", 0, "account index")
	reserveCmd.Flags().Uint16VarP(&instrumentIdx, "instrument", "i", 0, "instrument index")
	reserveCmd.Flags().Uint8Var(&side, "side", 0, "0 = bid, 1 = ask")
	reserveCmd.Flags().Uint64Var(&qty, "qty", 0, "quantity in contract units")
	reserveCmd.Flags().Uint64Var(&limitPx, "limit-px", 0, "limit price")
	reserveCmd.Flags().Uint64Var(&ttlMs, "ttl-ms", 5000, "reservation TTL in milliseconds")
	reserveCmd.Flags().Uint64Var(&routeID, "route-id", 0, "route id, 0 for a direct (non-routed) reserve")
	rootCmd.AddCommand(reserveCmd)

	commitCmd.Flags().Uint64Var(&holdID, "hold-id", 0, "hold id returned by reserve")
	commitCmd.Flags().StringVar(&saltHex, "salt", "", "hex-encoded salt printed by reserve")
	commitCmd.MarkFlagRequired("hold-id")
	commitCmd.MarkFlagRequired("salt")
	rootCmd.AddCommand(commitCmd)

	cancelCmd.Flags().Uint64Var(&holdID, "hold-id", 0, "hold id to cancel")
	cancelCmd.MarkFlagRequired("hold-id")
	rootCmd.AddCommand(cancelCmd)

	rootCmd.AddCommand(submitCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
