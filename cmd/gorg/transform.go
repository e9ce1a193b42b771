package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"

	"github.com/midbel/cli"

	"github.com/midbel/gorg/xsl"
	"github.com/midbel/gorg/xsl/libxslt"
)

var transformCmd = cli.Command{
	Name:    "transform",
	Summary: "apply a stylesheet to a document with an optional virtual root",
	Handler: &TransformCmd{},
}

type TransformCmd struct {
	Root    string
	Track   bool
	Verbose bool
	Json    bool
	File    string
	Params  ParamList
}

func (c *TransformCmd) Run(args []string) error {
	set := flag.NewFlagSet("transform", flag.ContinueOnError)
	set.StringVar(&c.Root, "root", "", "virtual root for absolute paths used by the stylesheet")
	set.BoolVar(&c.Track, "track", false, "record the files accessed during the transformation")
	set.BoolVar(&c.Verbose, "v", false, "print files accessed and messages on stderr")
	set.BoolVar(&c.Json, "json", false, "print the whole result as json")
	set.StringVar(&c.File, "f", "", "output file")
	set.Var(&c.Params, "param", "stylesheet parameter given as name=value")

	if err := set.Parse(args); err != nil {
		return err
	}
	proc := libxslt.Default()
	if c.Verbose {
		proc.SetTracer(xsl.Stderr())
	}
	req := xsl.Request{
		XSL:    set.Arg(0),
		XML:    set.Arg(1),
		Params: c.Params,
		Root:   c.Root,
		Track:  c.Track || c.Verbose,
	}
	res, err := proc.Run(context.Background(), req)
	if res != nil && c.Verbose {
		printReport(os.Stderr, res.Files, res.Messages, res.Err)
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
	if c.Json {
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(res)
	}
	_, err = w.Write(res.Output)
	return err
}
