package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/midbel/gorg/cache"
	"github.com/midbel/gorg/config"
	"github.com/midbel/gorg/render"
)

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger.With().Str("component", "server").Logger()
		s.root = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// Server serves a site, rendering its xml documents with the stylesheets
// they reference.
type Server struct {
	runner  render.Runner
	metrics *Metrics
	group   singleflight.Group
	state   atomic.Pointer[state]

	root   zerolog.Logger
	logger zerolog.Logger
	now    func() time.Time
}

// state is everything that depends on the configuration. It is replaced as a
// whole on reload.
type state struct {
	cfg      *config.Config
	renderer *render.Renderer
	cache    *cache.Cache
	mux      *http.ServeMux
}

func New(cfg *config.Config, runner render.Runner, opts ...Option) (*Server, error) {
	s := Server{
		runner: runner,
		root:   zerolog.Nop(),
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(&s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if err := s.Reload(cfg); err != nil {
		return nil, err
	}
	return &s, nil
}

// Reload applies a new configuration to the requests received from now on.
// The listen address is only read when the server starts.
func (s *Server) Reload(cfg *config.Config) error {
	st := state{
		cfg: cfg,
		renderer: render.New(s.runner,
			render.WithRoot(cfg.Root),
			render.WithHeadLines(cfg.HeadXSL),
			render.WithDefault(cfg.DefaultXSL),
			render.WithLogger(s.root),
		),
		mux: http.NewServeMux(),
	}
	if cfg.Cache.Enabled() {
		c, err := cache.New(cache.Config{
			Dir:      cfg.Cache.Dir,
			TTL:      cfg.Cache.TTL,
			MaxSize:  cfg.Cache.MaxBytes(),
			ZipLevel: cfg.Cache.ZipLevel,
			Tree:     cfg.Cache.Tree,
		}, cache.WithLogger(s.root), cache.WithClock(s.now))
		if err != nil {
			return err
		}
		st.cache = c
	}
	st.mux.Handle("GET /metrics", s.metrics.Handler())
	for _, m := range cfg.Mounts {
		prefix := m.Prefix
		if prefix[len(prefix)-1] != '/' {
			prefix += "/"
		}
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(m.Dir)))
		st.mux.Handle(prefix, s.static(files))
	}
	st.mux.Handle("/", s.site(&st))

	if prev := s.state.Swap(&st); prev != nil {
		if prev.cfg.Addr() != cfg.Addr() {
			s.logger.Warn().Str("addr", cfg.Addr()).Msg("listen address changed, restart needed")
		}
		s.logger.Info().Str("root", cfg.Root).Msg("configuration applied")
	}
	return nil
}

func (s *Server) Config() *config.Config {
	return s.state.Load().cfg
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		now = time.Now()
		sw  = statusWriter{ResponseWriter: w}
	)
	s.state.Load().mux.ServeHTTP(&sw, r)
	s.logger.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", sw.status()).
		Dur("elapsed", time.Since(now)).
		Msg("request")
}

// Wash cleans the cache when there is one.
func (s *Server) Wash(ctx context.Context) (cache.WashStats, error) {
	st := s.state.Load()
	if st.cache == nil {
		return cache.WashStats{}, nil
	}
	return st.cache.Wash(ctx)
}

// ListenAndServe runs the server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := http.Server{
		Addr:         s.Config().Addr(),
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("starting server")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	sub, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sub); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) status() int {
	if w.code == 0 {
		return http.StatusOK
	}
	return w.code
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
