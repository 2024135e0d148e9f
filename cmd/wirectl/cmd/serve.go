package cmd

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	gohttp "github.com/km-arc/go-autowire/framework/http"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inspector HTTP API",
		Long: `Build the container and serve the inspector:

  GET  /services          reflected services
  GET  /services/{class}  one service
  GET  /identifiers       container identifiers (?check resolves them)
  GET  /types?raw=...     normalized type hint
  GET  /metrics           Prometheus metrics
  POST /cache/clear       drop the cached snapshot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = c.app.Config().Inspector.Addr
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				c.printer.Error("%v", err)
				return err
			}
			return c.serve(cmd.Context(), ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default AUTOWIRE_INSPECTOR_ADDR)")
	return cmd
}

// serve runs the inspector on ln until ctx is done. It owns ln, which is
// closed on every return path.
func (c *cli) serve(ctx context.Context, ln net.Listener) error {
	b, err := c.builder(ctx)
	if err != nil {
		_ = ln.Close()
		return err
	}
	built, err := b.Build(ctx)
	if err != nil {
		_ = ln.Close()
		c.printer.Error("%v", err)
		return err
	}

	inspector := gohttp.NewInspector(b, built,
		gohttp.WithMetrics(c.app.Metrics().Handler()),
		gohttp.WithLogger(c.app.Logger()),
	)
	srv := &http.Server{Handler: inspector.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	c.printer.Success("%s inspector listening on http://%s [container %s]",
		c.app.Config().App.Name, ln.Addr(), built.ID())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errc
	return nil
}
