package cmd

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

type typeRow struct {
	Hint       string   `json:"hint"`
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Nullable   bool     `json:"nullable"`
	ClassNames []string `json:"classNames,omitempty"`
}

func (c *cli) typesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "types HINT...",
		Short: "Normalize type hints",
		Long: `Normalize type hints the way the resolver reads them.

Examples:
  wirectl types '?Foo[]'                      # array<Foo>, nullable
  wirectl types 'map<string, \App\Importer>'  # whitespace and separators stripped`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			factory := c.app.Catalog().Types()
			rows := make([]typeRow, 0, len(args))
			for _, raw := range args {
				d := factory.Resolve(raw)
				rows = append(rows, typeRow{
					Hint:       raw,
					Name:       d.Name(),
					Kind:       string(d.Kind()),
					Nullable:   d.IsNullable(),
					ClassNames: d.ClassNames(),
				})
			}
			if asJSON {
				return encodeJSON(c.opts.Out, rows)
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{
					r.Hint, c.printer.Bold(r.Name), r.Kind,
					strconv.FormatBool(r.Nullable), strings.Join(r.ClassNames, ","),
				})
			}
			return c.printer.Table([]string{"hint", "type", "kind", "nullable", "classes"}, table)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
