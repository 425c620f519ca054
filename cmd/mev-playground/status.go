package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jihwankim/mev-playground/pkg/orchestrator"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Args:  cobra.NoArgs,
	Short: "Show the state and health of every playground container",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pg, err := orchestrator.New(cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	status := pg.Status(context.Background())
	if len(status) == 0 {
		fmt.Println("Playground is not running.")
		return nil
	}

	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%-22s %-12s %s\n", "SERVICE", "STATE", "HEALTH")
	for _, name := range names {
		st := status[name]
		fmt.Printf("%-22s %-12s %s\n", name, st.State, st.Health)
	}
	return nil
}
