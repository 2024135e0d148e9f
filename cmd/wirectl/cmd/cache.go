package cmd

import (
	"github.com/spf13/cobra"
)

func (c *cli) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the service snapshot cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the cached snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := c.app.Builder(cmd.Context())
			if err != nil {
				c.printer.Error("%v", err)
				return err
			}
			if err := b.ClearCache(cmd.Context()); err != nil {
				c.printer.Error("%v", err)
				return err
			}
			cfg := c.app.Config().Cache
			c.printer.Success("cleared %s (driver %s)", cfg.Key, cfg.Driver)
			return nil
		},
	})
	return cmd
}
