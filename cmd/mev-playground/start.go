package main

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jihwankim/mev-playground/pkg/orchestrator"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Args:  cobra.NoArgs,
	Short: "Start the playground",
	Long: `Generates artifacts if needed (genesis, JWT secret, validator keystores),
creates the Docker network, pulls images and starts every service in order.
Blocks until the whole stack is healthy.`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().String("relay-image", "", "override the relay image")
	startCmd.Flags().Bool("builder", true, "start the rbuilder block builder")
	startCmd.Flags().String("builder-image", "", "override the rbuilder image")
	startCmd.Flags().Bool("with-contender", false, "also start the contender tx spammer")
	startCmd.Flags().Int("contender-tps", 0, "contender transactions per second")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if img, _ := cmd.Flags().GetString("relay-image"); img != "" {
		cfg.MEV.Relay.Image = img
	}
	if cmd.Flags().Changed("builder") {
		cfg.MEV.Builder.Enabled, _ = cmd.Flags().GetBool("builder")
	}
	if img, _ := cmd.Flags().GetString("builder-image"); img != "" {
		cfg.MEV.Builder.Image = img
	}
	withContender, _ := cmd.Flags().GetBool("with-contender")
	tps, _ := cmd.Flags().GetInt("contender-tps")

	pg, err := orchestrator.New(cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := pg.Start(ctx, orchestrator.StartOptions{
		WithContender: withContender,
		ContenderTPS:  tps,
	}); err != nil {
		return fmt.Errorf("failed to start playground: %w", err)
	}

	printEndpoints(pg)
	return nil
}

func printEndpoints(pg *orchestrator.Playground) {
	eps := pg.Endpoints()
	names := make([]string, 0, len(eps))
	for name := range eps {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nEndpoints:")
	for _, name := range names {
		fmt.Printf("  %-14s %s\n", name+":", eps[name])
	}
	fmt.Println()
}
