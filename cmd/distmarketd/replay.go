package main

import (
	"fmt"

	"distmarket/internal/journal"
	"distmarket/internal/obs"

	"github.com/spf13/cobra"
)

func replayCmd() *cobra.Command {
	var journalDir string
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Reconstruct the last known market snapshot from the CSV journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := obs.New("info", nil)
			snap, ok := journal.LoadLatestSnapshot(journalDir, logger)
			if !ok {
				return fmt.Errorf("replay: no snapshot found in %s", journalDir)
			}
			fmt.Printf("phase=%s mu=%s sigma=%s k=%s backing=%s\n",
				snap.Phase, snap.Mu, snap.Sigma, snap.K, snap.Backing)
			return nil
		},
	}
	cmd.Flags().StringVar(&journalDir, "journal-dir", "journal", "directory containing daily CSV journal files")
	return cmd
}
