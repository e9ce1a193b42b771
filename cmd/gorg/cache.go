package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/midbel/cli"

	"github.com/midbel/gorg/cache"
)

var washCmd = cli.Command{
	Name:    "wash",
	Summary: "remove old entries from the cache",
	Handler: &WashCmd{},
}

type WashCmd struct {
	ConfigOptions
}

func (c *WashCmd) Run(args []string) error {
	set := flag.NewFlagSet("wash", flag.ContinueOnError)
	set.StringVar(&c.ConfigOptions.File, "config", "", "configuration file")

	if err := set.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	if !cfg.Cache.Enabled() {
		return fmt.Errorf("no cache directory configured")
	}
	ch, err := cache.New(cache.Config{
		Dir:      cfg.Cache.Dir,
		TTL:      cfg.Cache.TTL,
		MaxSize:  cfg.Cache.MaxBytes(),
		ZipLevel: cfg.Cache.ZipLevel,
		Tree:     cfg.Cache.Tree,
	}, cache.WithLogger(logger))
	if err != nil {
		return err
	}
	stats, err := ch.Wash(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%d entries kept (%d bytes), %d files removed\n", stats.Entries, stats.Size, stats.Removed)
	return nil
}
