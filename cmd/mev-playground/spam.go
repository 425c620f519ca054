package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/spammer"
)

var spamCmd = &cobra.Command{
	Use:   "spam",
	Args:  cobra.NoArgs,
	Short: "Send test transfers from the prefunded accounts",
	Long: `Sends plain ETH transfers between the prefunded dev accounts at a fixed
per-slot rate, straight from this process. Lighter than contender; useful for
quickly giving the builder something to include. Runs until interrupted
unless --slots is set.`,
	RunE: runSpam,
}

func init() {
	spamCmd.Flags().String("rpc-url", fmt.Sprintf("http://localhost:%d", config.PortRethHTTP), "execution client RPC URL")
	spamCmd.Flags().Int("tx-per-slot", 5, "transactions per slot")
	spamCmd.Flags().Int("slots", 0, "number of slots to spam (0 = until interrupted)")
}

func runSpam(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rpcURL, _ := cmd.Flags().GetString("rpc-url")
	txPerSlot, _ := cmd.Flags().GetInt("tx-per-slot")
	slots, _ := cmd.Flags().GetInt("slots")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sp, err := spammer.New(ctx, rpcURL)
	if err != nil {
		return err
	}
	defer sp.Close()

	return sp.Run(ctx, spammer.Options{
		TxPerSlot:     txPerSlot,
		DurationSlots: slots,
		SlotTime:      time.Duration(cfg.Network.SecondsPerSlot) * time.Second,
	})
}
