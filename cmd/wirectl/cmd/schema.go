package cmd

import (
	"github.com/spf13/cobra"

	"github.com/km-arc/go-autowire/framework/snapshot"
)

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of service snapshots",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			raw, err := snapshot.Schema()
			if err != nil {
				return err
			}
			c.printer.Print("%s", raw)
			return nil
		},
	}
}
