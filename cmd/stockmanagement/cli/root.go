// Package cli holds the stockmanagement command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/stockmanagement/internal/app"
)

// NewRootCommand assembles the stockmanagement command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "stockmanagement",
		Short:         "Stock management permission and physical inventory service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newServeCommand(app.LoadConfig),
		newWorkerCommand(app.LoadConfig),
		newEventsCommand(),
		newTokenCommand(app.LoadConfig),
	)
	return root
}

type configLoader func() (*app.Config, error)
