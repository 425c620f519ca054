package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jihwankim/mev-playground/pkg/config"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Args:  cobra.NoArgs,
	Short: "Show the effective configuration and static addresses",
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("MEV Playground Configuration")
	fmt.Println()
	fmt.Println("Network:")
	fmt.Printf("  Chain ID:         %d\n", cfg.Network.ChainID)
	fmt.Printf("  Seconds per slot: %d\n", cfg.Network.SecondsPerSlot)
	fmt.Printf("  Genesis delay:    %ds\n", cfg.Network.GenesisDelaySec)
	fmt.Println()
	fmt.Println("Components:")
	fmt.Printf("  Execution:  %s\n", cfg.Execution.Image)
	fmt.Printf("  Consensus:  %s\n", cfg.Consensus.Image)
	fmt.Printf("  Validators: %d\n", cfg.Validators.Count)
	fmt.Println()
	fmt.Println("MEV Stack:")
	fmt.Printf("  Relay:   %s\n", cfg.MEV.Relay.Image)
	fmt.Printf("  Builder: %s\n", cfg.MEV.Builder.Image)
	fmt.Printf("  Boost:   %s\n", cfg.MEV.Boost.Image)
	fmt.Println()
	fmt.Println("Data Directory:")
	fmt.Printf("  %s\n", cfg.DataDir)
	fmt.Println()
	fmt.Println("Static IPs:")
	fmt.Printf("  Reth:       %s\n", config.IPReth)
	fmt.Printf("  Lighthouse: %s\n", config.IPLighthouseBN)
	fmt.Printf("  MEV-Boost:  %s\n", config.IPMEVBoost)
	fmt.Printf("  Relay:      %s\n", config.IPRelay)
	fmt.Printf("  rbuilder:   %s\n", config.IPRBuilder)
	return nil
}
