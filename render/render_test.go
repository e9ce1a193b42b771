package render_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midbel/gorg/render"
	"github.com/midbel/gorg/vfs"
	"github.com/midbel/gorg/xsl"
)

type step func(xsl.Request) (*xsl.Result, error)

type fakeRunner struct {
	mu       sync.Mutex
	steps    map[string]step
	requests []xsl.Request
}

func (r *fakeRunner) Run(_ context.Context, req xsl.Request) (*xsl.Result, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()

	fn, ok := r.steps[req.XSL]
	if !ok {
		return &xsl.Result{}, &xsl.Error{Kind: xsl.ErrEngineFailure, Message: "XSL file loading error"}
	}
	return fn(req)
}

func output(str string) step {
	return func(_ xsl.Request) (*xsl.Result, error) {
		return &xsl.Result{Output: []byte(str)}, nil
	}
}

const chainDoc = `<?xml version="1.0"?>
<?xml-stylesheet href="/xsl/upper.xsl" type="text/xsl"?>
<?xml-stylesheet href="/xsl/wrap.xsl" type="text/xsl"?>
<guide>hello</guide>
`

func TestRenderChain(t *testing.T) {
	runner := fakeRunner{
		steps: map[string]step{
			"/xsl/upper.xsl": func(req xsl.Request) (*xsl.Result, error) {
				res := xsl.Result{
					Output:   []byte(strings.ToUpper(req.XML)),
					Files:    []vfs.Access{{Mode: vfs.ModeRead, Path: "/htdocs/xsl/upper.xsl"}},
					Messages: []string{"Set-Cookie(prefs)lang=en"},
				}
				return &res, nil
			},
			"/xsl/wrap.xsl": func(req xsl.Request) (*xsl.Result, error) {
				res := xsl.Result{
					Output: []byte("<html><body>" + req.XML + "</body></html>\n"),
					Files: []vfs.Access{
						{Mode: vfs.ModeRead, Path: "/htdocs/xsl/wrap.xsl"},
						{Mode: vfs.ModeRead, Path: "/htdocs/xsl/upper.xsl"},
					},
					Messages: []string{"Set-Cookie(prefs)style=printable"},
				}
				return &res, nil
			},
		},
	}
	r := render.New(&runner, render.WithRoot("/htdocs"))

	params := []xsl.Param{{Name: "lang", Value: "en"}}
	out, err := r.Render(context.Background(), render.Job{Document: chainDoc, Params: params, Track: true})
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "chain", out.Data)

	files := []vfs.Access{
		{Mode: vfs.ModeRead, Path: "/htdocs/xsl/upper.xsl"},
		{Mode: vfs.ModeRead, Path: "/htdocs/xsl/wrap.xsl"},
	}
	assert.Equal(t, files, out.Files)
	cookies := []render.Cookie{{Name: "prefs", Values: []string{"lang=en", "style=printable"}}}
	assert.Equal(t, cookies, out.Cookies)

	require.Len(t, runner.requests, 2)
	assert.Equal(t, chainDoc, runner.requests[0].XML)
	assert.Equal(t, strings.ToUpper(chainDoc), runner.requests[1].XML)
	for _, req := range runner.requests {
		assert.Equal(t, "/htdocs", req.Root)
		assert.Equal(t, params, req.Params)
		assert.True(t, req.Track)
	}
}

func TestRenderRedirect(t *testing.T) {
	runner := fakeRunner{
		steps: map[string]step{
			"/xsl/upper.xsl": func(_ xsl.Request) (*xsl.Result, error) {
				return &xsl.Result{Messages: []string{"Redirect=/doc/en/index.xml"}}, nil
			},
			"/xsl/wrap.xsl": output("<never/>"),
		},
	}
	_, err := render.New(&runner).Render(context.Background(), render.Job{Document: chainDoc})

	var redirect *render.RedirectError
	require.ErrorAs(t, err, &redirect)
	assert.Equal(t, "/doc/en/index.xml", redirect.Location)
	assert.Len(t, runner.requests, 1)
}

func TestRenderFirstWarning(t *testing.T) {
	warning := xsl.ErrorInfo{Code: 1549, Level: xsl.LevelWarning, Message: "failed to load external entity"}
	runner := fakeRunner{
		steps: map[string]step{
			"/xsl/upper.xsl": func(_ xsl.Request) (*xsl.Result, error) {
				return &xsl.Result{Output: []byte("<?xml version=\"1.0\"?>\n<a/>"), Err: warning}, nil
			},
			"/xsl/wrap.xsl": func(_ xsl.Request) (*xsl.Result, error) {
				res := xsl.Result{
					Output: []byte("<b/>"),
					Err:    xsl.ErrorInfo{Code: 2, Level: xsl.LevelWarning, Message: "second"},
				}
				return &res, nil
			},
		},
	}
	out, err := render.New(&runner).Render(context.Background(), render.Job{Document: chainDoc})
	require.NoError(t, err)
	assert.Equal(t, warning, out.Err)
	assert.Equal(t, "<b/>", string(out.Data))
}

func TestRenderStopOnError(t *testing.T) {
	runner := fakeRunner{
		steps: map[string]step{
			"/xsl/upper.xsl": func(_ xsl.Request) (*xsl.Result, error) {
				res := xsl.Result{
					Output: []byte("<partial/>"),
					Err:    xsl.ErrorInfo{Code: 1, Level: xsl.LevelError, Message: "oops"},
				}
				return &res, nil
			},
			"/xsl/wrap.xsl": output("<never/>"),
		},
	}
	out, err := render.New(&runner).Render(context.Background(), render.Job{Document: chainDoc})
	require.NoError(t, err)
	assert.Equal(t, "<partial/>", string(out.Data))
	assert.Equal(t, xsl.LevelError, out.Err.Level)
	assert.Len(t, runner.requests, 1)
}

func TestRenderFailure(t *testing.T) {
	info := xsl.ErrorInfo{Code: 4, Level: xsl.LevelFatal, Message: "Document is empty"}
	runner := fakeRunner{
		steps: map[string]step{
			"/xsl/upper.xsl": func(_ xsl.Request) (*xsl.Result, error) {
				res := xsl.Result{
					Files: []vfs.Access{{Mode: vfs.ModeRead, Path: "/htdocs/xml/missing.xml"}},
					Err:   info,
				}
				return &res, &xsl.Error{Kind: xsl.ErrEngineFailure, Message: "XML file parsing error", Info: info}
			},
		},
	}
	out, err := render.New(&runner).Render(context.Background(), render.Job{Document: chainDoc, Track: true})
	require.ErrorIs(t, err, xsl.ErrEngineFailure)
	require.NotNil(t, out)
	assert.Equal(t, info, out.Err)
	assert.Len(t, out.Files, 1)
	assert.Nil(t, out.Data)
}

func TestStylesheets(t *testing.T) {
	tests := []struct {
		Name    string
		Doc     string
		Default string
		Want    []string
		Err     error
	}{
		{
			Name: "file-head",
			Doc:  "testdata/xml/guide.xml",
			Want: []string{"/xsl/guide.xsl", "/xsl/printable.xsl"},
		},
		{
			Name:    "file-default",
			Doc:     "testdata/xml/plain.xml",
			Default: "/xsl/default.xsl",
			Want:    []string{"/xsl/default.xsl"},
		},
		{
			Name: "file-none",
			Doc:  "testdata/xml/plain.xml",
			Err:  render.ErrNoStylesheet,
		},
		{
			Name:    "inline",
			Doc:     chainDoc,
			Default: "/xsl/default.xsl",
			Want:    []string{"/xsl/upper.xsl", "/xsl/wrap.xsl"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			r := render.New(&fakeRunner{}, render.WithDefault(tt.Default))
			got, err := r.Stylesheets(tt.Doc)
			if tt.Err != nil {
				assert.True(t, errors.Is(err, tt.Err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.Want, got)
		})
	}
}

func TestStylesheetsHeadLines(t *testing.T) {
	r := render.New(&fakeRunner{}, render.WithHeadLines(3))
	got, err := r.Stylesheets("testdata/xml/guide.xml")
	require.NoError(t, err)
	assert.Equal(t, []string{"/xsl/guide.xsl"}, got)
}
