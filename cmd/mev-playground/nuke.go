package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jihwankim/mev-playground/pkg/orchestrator"
)

var nukeCmd = &cobra.Command{
	Use:   "nuke",
	Args:  cobra.NoArgs,
	Short: "Remove all containers, the network and on-disk data",
	Long: `Stops and removes every playground container, removes the Docker network
and deletes the data directory. With --artifacts-only, chain data is kept and
only the generated artifacts are deleted, forcing a fresh genesis next start.`,
	RunE: runNuke,
}

func init() {
	nukeCmd.Flags().Bool("artifacts-only", false, "only remove generated artifacts, keep chain data")
	nukeCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
}

func runNuke(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	artifactsOnly, _ := cmd.Flags().GetBool("artifacts-only")
	yes, _ := cmd.Flags().GetBool("yes")

	if !yes {
		target := cfg.DataDir
		if artifactsOnly {
			target = cfg.ArtifactsDir()
		}
		fmt.Printf("This will delete %s and all playground containers. Continue? [y/N] ", target)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	pg, err := orchestrator.New(cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	return pg.Nuke(context.Background(), artifactsOnly)
}
