package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"

	"github.com/midbel/cli"

	"github.com/midbel/gorg/render"
	"github.com/midbel/gorg/xsl"
	"github.com/midbel/gorg/xsl/libxslt"
)

var renderCmd = cli.Command{
	Name:    "render",
	Summary: "render a document with the stylesheets it references",
	Handler: &RenderCmd{},
}

type RenderCmd struct {
	Verbose bool
	File    string
	Params  ParamList
	ConfigOptions
}

func (c *RenderCmd) Run(args []string) error {
	set := flag.NewFlagSet("render", flag.ContinueOnError)
	set.StringVar(&c.ConfigOptions.File, "config", "", "configuration file")
	set.BoolVar(&c.Verbose, "v", false, "print files accessed and messages on stderr")
	set.StringVar(&c.File, "f", "", "output file")
	set.Var(&c.Params, "param", "stylesheet parameter given as name=value")

	if err := set.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	proc := libxslt.Default()
	proc.SetTracer(xsl.LogTracer(logger))

	rdr := render.New(proc,
		render.WithRoot(cfg.Root),
		render.WithHeadLines(cfg.HeadXSL),
		render.WithDefault(cfg.DefaultXSL),
		render.WithLogger(logger),
	)
	doc, err := filepath.Abs(set.Arg(0))
	if err != nil {
		return err
	}
	out, err := rdr.Render(context.Background(), render.Job{
		Document: doc,
		Params:   c.Params,
		Track:    c.Verbose,
	})
	if out != nil && c.Verbose {
		printReport(os.Stderr, out.Files, out.Messages, out.Err)
	}
	if err != nil {
		return err
	}
	var w io.Writer = os.Stdout
	if c.File != "" {
		f, err := os.Create(c.File)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	_, err = w.Write(out.Data)
	return err
}
