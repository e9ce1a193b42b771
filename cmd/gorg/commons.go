package main

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/midbel/gorg/config"
	"github.com/midbel/gorg/vfs"
	"github.com/midbel/gorg/xsl"
)

// ParamList collects the repeated -param name=value flags.
type ParamList []xsl.Param

func (p *ParamList) String() string {
	var list []string
	for _, x := range *p {
		list = append(list, x.String())
	}
	return strings.Join(list, ",")
}

func (p *ParamList) Set(str string) error {
	x, err := xsl.ParseParam(str)
	if err != nil {
		return err
	}
	*p = append(*p, x)
	return nil
}

type ConfigOptions struct {
	File string
}

func (o ConfigOptions) load() (*config.Config, zerolog.Logger, error) {
	file := o.File
	if file == "" {
		file = config.File()
	}
	cfg, err := config.Load(file)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger, err := cfg.Log.Logger()
	return cfg, logger, err
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	readStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	writeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	otherStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	messageStyle = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

func modeStyle(m vfs.Mode) lipgloss.Style {
	switch m {
	case vfs.ModeRead:
		return readStyle
	case vfs.ModeWrite:
		return writeStyle
	default:
		return otherStyle
	}
}

// printReport writes the files accessed, the messages and the last engine
// error of a run.
func printReport(w io.Writer, files []vfs.Access, messages []string, info xsl.ErrorInfo) {
	if len(files) > 0 {
		lipgloss.Fprintln(w, titleStyle.Render("files"))
		for _, a := range files {
			lipgloss.Fprintln(w, modeStyle(a.Mode).Render(fmt.Sprintf("  %s %s", a.Mode, a.Path)))
		}
	}
	if len(messages) > 0 {
		lipgloss.Fprintln(w, titleStyle.Render("messages"))
		for _, m := range messages {
			lipgloss.Fprintln(w, messageStyle.Render("  "+strings.TrimRight(m, "\n")))
		}
	}
	if !info.Zero() {
		lipgloss.Fprintln(w, errorStyle.Render(info.String()))
	}
}
