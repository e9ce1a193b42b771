package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/midbel/gorg/cache"
	"github.com/midbel/gorg/render"
	"github.com/midbel/gorg/xsl"
)

const (
	kindStatic   = "static"
	kindPassthru = "passthru"
	kindRender   = "render"
)

const indexFile = "index.xml"

func (s *Server) static(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := statusWriter{ResponseWriter: w}
		next.ServeHTTP(&sw, r)
		s.metrics.recordRequest(kindStatic, sw.status())
	})
}

func (s *Server) site(st *state) http.Handler {
	files := s.static(http.FileServer(http.Dir(st.cfg.Root)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeError(w, http.StatusMethodNotAllowed)
			return
		}
		name := path.Clean("/" + r.URL.Path)
		file := filepath.Join(st.cfg.Root, filepath.FromSlash(name))
		if isDir(file) && isFile(filepath.Join(file, indexFile)) {
			name = path.Join(name, indexFile)
			file = filepath.Join(file, indexFile)
		}
		if !renderable(file) || !isFile(file) {
			files.ServeHTTP(w, r)
			return
		}
		sw := statusWriter{ResponseWriter: w}
		if s.passthru(st, r) {
			s.serveRaw(st, &sw, r, file)
			s.metrics.recordRequest(kindPassthru, sw.status())
			return
		}
		s.serveRendered(st, &sw, r, file, name)
		s.metrics.recordRequest(kindRender, sw.status())
	})
}

func (s *Server) passthru(st *state, r *http.Request) bool {
	v := r.URL.Query().Get("passthru")
	return st.cfg.Passthru && v != "" && v != "0"
}

func (s *Server) serveRaw(st *state, w http.ResponseWriter, r *http.Request, file string) {
	i, err := os.Stat(file)
	if err != nil {
		writeError(w, http.StatusNotFound)
		return
	}
	setValidators(w, i.Size(), i.ModTime())
	if parseConditions(r).notModified(i.Size(), i.ModTime()) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	data, err := os.ReadFile(file)
	if err != nil {
		s.logger.Error().Err(err).Str("file", file).Msg("passthru failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", render.TypeText)
	if err := writeBody(w, r, data, false, st.cfg.Cache.ZipLevel); err != nil {
		s.logger.Error().Err(err).Str("file", file).Msg("write response failed")
	}
}

func (s *Server) serveRendered(st *state, w http.ResponseWriter, r *http.Request, file, name string) {
	var (
		params = s.params(st, r)
		cond   = parseConditions(r)
		pg     *page
	)
	if st.cache != nil {
		e, err := st.cache.Hit(name, params)
		if err == nil {
			s.metrics.recordCache(cacheHit)
			pg = fromEntry(e)
		} else {
			s.metrics.recordCache(cacheMiss)
		}
	}
	if pg == nil {
		var err error
		pg, err = s.render(r.Context(), st, file, name, params, r.URL.Path)
		if err != nil {
			var redirect *render.RedirectError
			if errors.As(err, &redirect) {
				http.Redirect(w, r, redirect.Location, http.StatusMovedPermanently)
				return
			}
			s.logger.Error().Err(err).Str("file", file).Msg("render failed")
			writeError(w, http.StatusInternalServerError, strings.Split(err.Error(), "\n")...)
			return
		}
	}
	if pg.validators() {
		setValidators(w, pg.size, pg.modTime)
		if cond.notModified(pg.size, pg.modTime) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	setCookies(w, pg.cookies, s.now())
	w.Header().Set("Content-Type", negotiateType(r, pg.contentType))
	if err := writeBody(w, r, pg.data, pg.gzipped, st.cfg.Cache.ZipLevel); err != nil {
		s.logger.Error().Err(err).Str("file", file).Msg("write response failed")
	}
}

// params builds the stylesheet parameters of r: its query, then the values
// of its cookies and the http host when enabled.
func (s *Server) params(st *state, r *http.Request) []xsl.Param {
	set := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 && vs[0] != "" {
			set[k] = vs[0]
		}
	}
	if st.cfg.AcceptCookies {
		for _, p := range render.CookieParams(cookieValues(r)) {
			set[p.Name] = p.Value
		}
	}
	if len(st.cfg.HTTPHost) > 0 {
		set["httphost"] = httpHost(st.cfg.HTTPHost, r)
	}
	params, _ := xsl.Params(set)
	return params
}

// render runs the stylesheets of file. Identical concurrent requests share
// the same rendering.
func (s *Server) render(ctx context.Context, st *state, file, name string, params []xsl.Param, link string) (*page, error) {
	key := strings.Join([]string{name, link, paramKey(params)}, "?")
	v, err, _ := s.group.Do(key, func() (any, error) {
		set := make(map[string]string)
		for _, p := range params {
			set[p.Name] = p.Value
		}
		if st.cfg.LinkParam != "" {
			set[st.cfg.LinkParam] = link
		}
		job := render.Job{
			Document: file,
			Track:    st.cache != nil,
		}
		job.Params, _ = xsl.Params(set)

		now := time.Now()
		out, err := st.renderer.Render(context.WithoutCancel(ctx), job)
		if err == nil && out.Err.Level >= xsl.LevelError {
			err = errors.New(out.Err.String())
		}
		switch {
		case err == nil:
			s.metrics.recordRender(statusOK, time.Since(now))
		case isRedirect(err):
			s.metrics.recordRender(statusRedirect, time.Since(now))
			return nil, err
		default:
			s.metrics.recordRender(statusError, time.Since(now))
			return nil, err
		}
		if out.Err.Level == xsl.LevelWarning {
			s.logger.Warn().Str("file", file).Str("warning", out.Err.String()).Msg("render warning")
		}
		return s.store(st, name, params, out), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*page), nil
}

func (s *Server) store(st *state, name string, params []xsl.Param, out *render.Output) *page {
	pg := page{
		data:        out.Data,
		contentType: render.ContentType(out.Data),
		cookies:     out.Cookies,
	}
	if st.cache == nil {
		return &pg
	}
	src := cache.Source{
		Files:       out.Files,
		ContentType: pg.contentType,
		Cookies:     out.Cookies,
	}
	e, err := st.cache.Store(name, params, out.Data, src)
	switch {
	case err == nil:
		s.metrics.recordCache(cacheStore)
		return fromEntry(e)
	case errors.Is(err, cache.ErrNotCacheable):
		s.metrics.recordCache(cacheUncacheable)
		s.logger.Debug().Err(err).Msg("rendering not cached")
	default:
		s.logger.Warn().Err(err).Msg("rendering not cached")
	}
	return &pg
}

func fromEntry(e *cache.Entry) *page {
	return &page{
		data:        e.Raw(),
		gzipped:     e.Gzipped(),
		contentType: e.ContentType,
		cookies:     e.Cookies,
		modTime:     e.ModTime,
		size:        e.Size,
	}
}

func paramKey(params []xsl.Param) string {
	var parts []string
	for _, p := range params {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, "&")
}

func isRedirect(err error) bool {
	var redirect *render.RedirectError
	return errors.As(err, &redirect)
}

func renderable(file string) bool {
	switch filepath.Ext(file) {
	case ".xml", ".rdf", ".rss":
		return true
	default:
		return false
	}
}

func isDir(file string) bool {
	i, err := os.Stat(file)
	return err == nil && i.IsDir()
}

func isFile(file string) bool {
	i, err := os.Stat(file)
	return err == nil && i.Mode().IsRegular()
}
