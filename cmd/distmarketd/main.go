// Command distmarketd hosts the distribution-market engine: a JSON
// control plane for initialize/trade/settle/claim, a WebSocket feed of
// snapshots, a Prometheus metrics endpoint, and an async CSV journal —
// wired the way the teacher's cmd/orderflow wires its trade engine,
// replumbed with a cobra command tree in the style of the rest of the
// example pack (e.g. sawpanic-cryptorun/cmd/cprotocol).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := &cobra.Command{
		Use:   "distmarketd",
		Short: "Distribution-market engine host",
	}
	root.PersistentFlags().String("config", "", "path to a YAML config file")

	root.AddCommand(serveCmd())
	root.AddCommand(replayCmd())
	root.AddCommand(inspectCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("distmarketd: command failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
