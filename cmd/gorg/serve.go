package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/midbel/cli"
	"golang.org/x/sync/errgroup"

	"github.com/midbel/gorg/config"
	"github.com/midbel/gorg/server"
	"github.com/midbel/gorg/xsl"
	"github.com/midbel/gorg/xsl/libxslt"
)

var serveCmd = cli.Command{
	Name:    "serve",
	Summary: "serve a site, rendering its xml documents on the fly",
	Handler: &ServeCmd{},
}

type ServeCmd struct {
	Watch bool
	ConfigOptions
}

func (c *ServeCmd) Run(args []string) error {
	set := flag.NewFlagSet("serve", flag.ContinueOnError)
	set.StringVar(&c.ConfigOptions.File, "config", "", "configuration file")
	set.BoolVar(&c.Watch, "watch", true, "reload the configuration when its file changes")

	if err := set.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	proc := libxslt.Default()
	proc.SetTracer(xsl.LogTracer(logger))

	srv, err := server.New(cfg, proc, server.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	if c.Watch {
		file := c.ConfigOptions.File
		if file == "" {
			file = config.File()
		}
		grp.Go(func() error {
			return config.Watch(ctx, file, logger, func(cfg *config.Config) {
				if err := srv.Reload(cfg); err != nil {
					logger.Error().Err(err).Msg("configuration not applied")
				}
			})
		})
	}
	grp.Go(func() error {
		return wash(ctx, srv)
	})
	return grp.Wait()
}

// wash cleans the cache at the interval of the current configuration.
func wash(ctx context.Context, srv *server.Server) error {
	const idle = time.Minute
	for {
		every := srv.Config().Cache.WashInterval
		if every <= 0 {
			every = idle
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(every):
		}
		if srv.Config().Cache.WashInterval <= 0 {
			continue
		}
		if _, err := srv.Wash(ctx); err != nil && ctx.Err() == nil {
			return err
		}
	}
}
