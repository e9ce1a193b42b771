package render

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/midbel/gorg/vfs"
	"github.com/midbel/gorg/xsl"
)

// DefaultHeadLines is the number of lines of a document searched for
// xml-stylesheet processing instructions.
const DefaultHeadLines = 12

var ErrNoStylesheet = errors.New("no stylesheet")

var (
	stylesheetPattern = regexp.MustCompile(`<\?xml-stylesheet.*href="([^"]*)".*`)
	redirectPattern   = regexp.MustCompile(`Redirect=(.+)`)
)

// Runner runs one transformation. *xsl.Processor implements it.
type Runner interface {
	Run(context.Context, xsl.Request) (*xsl.Result, error)
}

// RedirectError stops a render when a stylesheet asks for a redirection.
type RedirectError struct {
	Location string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirect to %s", e.Location)
}

type Job struct {
	// Document is the real path of the document or its inline content.
	Document string
	Params   []xsl.Param
	Track    bool
}

type Output struct {
	Data     []byte
	Files    []vfs.Access
	Messages []string
	Cookies  []Cookie
	// Err is the first warning or error reported by the engine, or the last
	// engine state when there was none.
	Err xsl.ErrorInfo
}

type Option func(*Renderer)

func WithRoot(root string) Option {
	return func(r *Renderer) {
		r.root = root
	}
}

func WithHeadLines(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.head = n
		}
	}
}

func WithDefault(file string) Option {
	return func(r *Renderer) {
		r.defaultXSL = file
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger.With().Str("component", "render").Logger()
	}
}

// Renderer applies to a document the stylesheets it references, in order,
// each one transforming the output of the previous one.
type Renderer struct {
	runner     Runner
	root       string
	head       int
	defaultXSL string
	logger     zerolog.Logger
}

func New(runner Runner, opts ...Option) *Renderer {
	r := Renderer{
		runner: runner,
		head:   DefaultHeadLines,
		logger: zerolog.Nop(),
	}
	for _, o := range opts {
		o(&r)
	}
	return &r
}

func (r *Renderer) Root() string {
	return r.root
}

// Render runs the stylesheet chain on job. On failure, the returned Output is
// still filled with what was collected so far.
func (r *Renderer) Render(ctx context.Context, job Job) (*Output, error) {
	styles, err := r.Stylesheets(job.Document)
	if err != nil {
		return nil, err
	}
	var (
		out   Output
		input = job.Document
		first bool
	)
	for _, style := range styles {
		r.logger.Debug().Str("stylesheet", style).Bool("track", job.Track).Msg("apply stylesheet")
		res, err := r.runner.Run(ctx, xsl.Request{
			XML:    input,
			XSL:    style,
			Params: job.Params,
			Root:   r.root,
			Track:  job.Track,
		})
		if res != nil {
			out.Files = vfs.Merge(out.Files, res.Files)
			out.Messages = append(out.Messages, res.Messages...)
			if !first && res.Err.Level > xsl.LevelNone {
				out.Err, first = res.Err, true
			}
		}
		if err != nil {
			if !first && res != nil {
				out.Err = res.Err
			}
			return &out, fmt.Errorf("%s: %w", style, err)
		}
		if loc, ok := redirection(res.Messages); ok {
			return &out, &RedirectError{Location: loc}
		}
		out.Data = res.Output
		if !first {
			out.Err = res.Err
		}
		if res.Err.Level > xsl.LevelWarning {
			break
		}
		input = string(res.Output)
	}
	out.Cookies = Cookies(out.Messages)
	return &out, nil
}

// Stylesheets returns the stylesheets referenced by the xml-stylesheet
// processing instructions of doc, or the default stylesheet when there are
// none. Only the first lines of a document file are searched.
func (r *Renderer) Stylesheets(doc string) ([]string, error) {
	var (
		styles []string
		err    error
	)
	if isFile(doc) {
		styles, err = r.scanFile(doc)
	} else {
		styles, err = scan(strings.NewReader(doc), 0)
	}
	if err != nil {
		return nil, err
	}
	if len(styles) == 0 && r.defaultXSL != "" {
		styles = append(styles, r.defaultXSL)
	}
	if len(styles) == 0 {
		return nil, ErrNoStylesheet
	}
	return styles, nil
}

func (r *Renderer) scanFile(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return scan(f, r.head)
}

func scan(rs io.Reader, limit int) ([]string, error) {
	var (
		list []string
		scan = bufio.NewScanner(rs)
	)
	scan.Buffer(make([]byte, 0, 4096), xsl.MaxPathLength*16)
	for i := 0; scan.Scan(); i++ {
		if limit > 0 && i >= limit {
			break
		}
		if m := stylesheetPattern.FindStringSubmatch(scan.Text()); m != nil {
			list = append(list, m[1])
		}
	}
	return list, scan.Err()
}

func isFile(doc string) bool {
	if xsl.LooksLikeXML(doc) {
		return false
	}
	i, err := os.Stat(doc)
	return err == nil && i.Mode().IsRegular()
}

func redirection(messages []string) (string, bool) {
	for _, m := range messages {
		if x := redirectPattern.FindStringSubmatch(m); x != nil {
			return x[1], true
		}
	}
	return "", false
}
