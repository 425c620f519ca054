package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jihwankim/mev-playground/pkg/orchestrator"
)

var logsCmd = &cobra.Command{
	Use:   "logs <service>",
	Args:  cobra.ExactArgs(1),
	Short: "Print recent logs from one service",
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().Int("tail", 100, "number of lines to show")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tail, _ := cmd.Flags().GetInt("tail")

	pg, err := orchestrator.New(cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	out := pg.Logs(context.Background(), args[0], tail)
	if out == "" {
		fmt.Printf("No logs for %s. Is the playground running?\n", args[0])
		return nil
	}
	fmt.Print(out)
	return nil
}
