package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-autowire/framework/errors"
	"github.com/km-arc/go-autowire/framework/reflection"
	"github.com/km-arc/go-autowire/framework/snapshot"
)

func (c *cli) inspectCmd() *cobra.Command {
	var (
		file   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the reflected services",
		Long: `Show the services a builder would wire, with their parameters and setters.

The services come from --file, from the application's builder when wirectl
is embedded, or from the configured cache.

Examples:
  wirectl inspect --file services.yaml
  AUTOWIRE_CACHE_DRIVER=redis AUTOWIRE_CACHE_REDIS_ADDR=localhost:6379 wirectl inspect`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.services(cmd, file)
			if err != nil {
				c.printer.Error("%v", err)
				return err
			}
			doc := snapshot.FromServices(list)
			if asJSON {
				return encodeJSON(c.opts.Out, doc)
			}
			return c.printServices(doc)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "snapshot file to read")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (c *cli) services(cmd *cobra.Command, file string) ([]*reflection.Service, error) {
	factory := c.app.Catalog().Types()
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read snapshot")
		}
		return snapshot.Decode(raw, factory)
	}
	if c.opts.Setup != nil {
		b, err := c.builder(cmd.Context())
		if err != nil {
			return nil, err
		}
		return b.Describe(cmd.Context())
	}

	pool, err := c.app.Pool(cmd.Context())
	if err != nil {
		return nil, err
	}
	key := c.app.Config().Cache.Key
	raw, ok, err := pool.Get(cmd.Context(), key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read cache key %s", key)
	}
	if !ok {
		return nil, errors.Errorf("nothing cached under %s (driver %s)", key, c.app.Config().Cache.Driver)
	}
	return snapshot.Decode(raw, factory)
}

func (c *cli) printServices(doc *snapshot.Document) error {
	rows := make([][]string, 0, len(doc.Services))
	for _, s := range doc.Services {
		params := make([]string, 0, len(s.Parameters))
		for _, p := range s.Parameters {
			desc := p.Name + " " + p.Type
			if p.Optional {
				desc += c.printer.Dim(fmt.Sprintf(" = %v", p.Default))
			}
			params = append(params, desc)
		}
		setters := make([]string, 0, len(s.Setters))
		for _, st := range s.Setters {
			setters = append(setters, st.Method+"("+st.Type+")")
		}
		rows = append(rows, []string{
			c.printer.Bold(s.Class),
			strings.Join(s.Tags, ","),
			strings.Join(params, "; "),
			strings.Join(setters, ","),
		})
	}
	if err := c.printer.Table([]string{"class", "tags", "parameters", "setters"}, rows); err != nil {
		return err
	}
	c.printer.Print("%d services", len(doc.Services))
	return nil
}
