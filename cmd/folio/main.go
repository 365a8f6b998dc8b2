// ABOUTME: Entry point for the folio journaling server
// ABOUTME: Builds the cobra command tree and runs it under a signal-aware context

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2389/folio/internal/config"
)

// version is set at build time.
var version = "dev"

const banner = `
   __       _ _
  / _| ___ | (_) ___
 | |_ / _ \| | |/ _ \
 |  _| (_) | | | (_) |
 |_|  \___/|_|_|\___/
`

// rootOptions holds global flags for all commands.
type rootOptions struct {
	configFlag string
}

// configPath resolves the config file from the flag, FOLIO_CONFIG or the default.
func (o *rootOptions) configPath() string {
	return config.ResolvePath(o.configFlag)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "folio",
		Short:         "folio - collaborative journaling server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFlag, "config", "c", "", "config file (default $FOLIO_CONFIG or folio.yaml)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newUserAddCommand(opts))
	cmd.AddCommand(newHealthCommand(opts))

	return cmd
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
