// Package cmd contains the wirectl commands.
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-autowire/framework/app"
	"github.com/km-arc/go-autowire/framework/builder"
	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/logging"
)

// Options configures the root command.
type Options struct {
	Out io.Writer
	Err io.Writer
	// Setup registers the application's classes on the builders wirectl
	// creates. Without it only cached snapshots can be inspected.
	Setup func(b *builder.Builder) error
}

type cli struct {
	opts     Options
	envFiles []string
	verbose  bool
	noColor  bool

	app     *app.Application
	printer *Printer
}

// Execute runs wirectl with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd(Options{}).ExecuteContext(ctx)
}

// NewRootCmd builds the command tree. Applications embed wirectl by passing
// a Setup that registers their types.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	c := &cli{opts: opts}

	root := &cobra.Command{
		Use:   "wirectl",
		Short: "Inspect and operate autowire containers",
		Long: `wirectl inspects the services an autowire builder discovers.

Example usage:
  wirectl types '?Foo[]' 'iterable<app.Importer>'
  wirectl locate ./internal/importers
  wirectl inspect --file services.yaml
  wirectl schema > snapshot.schema.json
  wirectl serve --addr 127.0.0.1:8080
  wirectl cache clear`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.close()
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.PersistentFlags().StringSliceVar(&c.envFiles, "env", []string{".env"}, "env files to load")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		c.typesCmd(),
		c.locateCmd(),
		c.inspectCmd(),
		c.schemaCmd(),
		c.serveCmd(),
		c.cacheCmd(),
	)
	return root
}

func (c *cli) init() error {
	c.printer = NewPrinter(c.opts.Out, c.opts.Err, !c.noColor)

	cfg, err := config.Load(c.envFiles...)
	if err != nil {
		c.printer.Error("invalid configuration: %v", err)
		return err
	}
	if c.verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Handler, c.opts.Err)
	if err != nil {
		return err
	}
	c.app, err = app.New(cfg, logger)
	return err
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

// builder returns an application builder with the embedding setup applied.
func (c *cli) builder(ctx context.Context) (*builder.Builder, error) {
	b, err := c.app.Builder(ctx)
	if err != nil {
		return nil, err
	}
	if c.opts.Setup != nil {
		if err := c.opts.Setup(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}
