package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-autowire/framework/locator"
)

func (c *cli) locateCmd() *cobra.Command {
	var (
		exclude string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "locate PATH|PATTERN...",
		Short: "List the class names declared in Go sources",
		Long: `List the class names a builder locator would find.

A directory is walked recursively, a .go file yields its first type and
anything else is a glob pattern with brace expansion.

Examples:
  wirectl locate ./internal/importers
  wirectl locate './internal/{users,products}/**/*.go' --exclude '**/legacy/*'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain := make(locator.Chain, 0, len(args))
			for _, arg := range args {
				chain = append(chain, locatorFor(arg, exclude))
			}
			names, err := chain.Locate(cmd.Context())
			if err != nil {
				c.printer.Error("%v", err)
				return err
			}
			if asJSON {
				return encodeJSON(c.opts.Out, names)
			}
			if len(names) == 0 {
				c.printer.Warning("no classes found")
				return nil
			}
			for _, name := range names {
				c.printer.Print("%s", name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&exclude, "exclude", "", "glob of paths to skip (patterns only)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func locatorFor(arg, exclude string) locator.Locator {
	if info, err := os.Stat(arg); err == nil {
		if info.IsDir() {
			return locator.NewDirectory(arg)
		}
		if strings.HasSuffix(arg, ".go") {
			return locator.NewFile(arg)
		}
	}
	return locator.NewGlob(arg, exclude)
}
