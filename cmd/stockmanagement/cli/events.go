package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/stockmanagement/internal/physicalinventory"
)

func newEventsCommand() *cobra.Command {
	events := &cobra.Command{
		Use:   "events",
		Short: "Stock event utilities",
	}
	var file string
	mapCmd := &cobra.Command{
		Use:   "map",
		Short: "Print the stock events a physical inventory document maps to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return mapEvents(in, cmd.OutOrStdout())
		},
	}
	mapCmd.Flags().StringVarP(&file, "file", "f", "-", "physical inventory JSON document, - for stdin")
	events.AddCommand(mapCmd)
	return events
}

func mapEvents(in io.Reader, out io.Writer) error {
	var inv physicalinventory.PhysicalInventory
	if err := json.NewDecoder(in).Decode(&inv); err != nil {
		return fmt.Errorf("decode physical inventory: %w", err)
	}
	events, err := physicalinventory.ToEvents(inv)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}
