package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jihwankim/mev-playground/pkg/orchestrator"
)

var contenderCmd = &cobra.Command{
	Use:   "contender",
	Short: "Manage the contender transaction spammer",
}

var contenderStartCmd = &cobra.Command{
	Use:   "start",
	Args:  cobra.NoArgs,
	Short: "Start contender against the running playground",
	RunE:  runContenderStart,
}

var contenderStopCmd = &cobra.Command{
	Use:   "stop",
	Args:  cobra.NoArgs,
	Short: "Stop and remove the contender container",
	RunE:  runContenderStop,
}

func init() {
	contenderStartCmd.Flags().Int("tps", 0, "transactions per second")
	contenderCmd.AddCommand(contenderStartCmd)
	contenderCmd.AddCommand(contenderStopCmd)
}

func runContenderStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tps, _ := cmd.Flags().GetInt("tps")

	pg, err := orchestrator.New(cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.StartContender(context.Background(), tps); err != nil {
		return err
	}
	fmt.Println("Contender is running.")
	return nil
}

func runContenderStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pg, err := orchestrator.New(cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	pg.StopContender(context.Background())
	return nil
}
