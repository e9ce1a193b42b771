package main

import (
	"fmt"

	"github.com/midbel/cli"

	"github.com/midbel/gorg/xsl/libxslt"
)

var versionCmd = cli.Command{
	Name:    "version",
	Summary: "print the versions of the xslt engine and libraries",
	Handler: &VersionCmd{},
}

type VersionCmd struct{}

func (c *VersionCmd) Run(_ []string) error {
	fmt.Println(libxslt.Versions())
	return nil
}
