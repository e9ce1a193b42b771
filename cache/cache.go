package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/midbel/gorg/render"
	"github.com/midbel/gorg/vfs"
	"github.com/midbel/gorg/xsl"
)

// Stamp marks the meta files written by the cache.
const Stamp = "gorg cached this data, do not alter this file"

var (
	ErrMiss         = errors.New("cache miss")
	ErrNotCacheable = errors.New("not cacheable")
)

type Config struct {
	Dir      string
	TTL      time.Duration
	MaxSize  int64
	ZipLevel int
	Tree     bool
}

type Dependency struct {
	Mode    vfs.Mode  `json:"mode"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mtime"`
}

type Meta struct {
	Stamp       string          `json:"stamp"`
	Stored      time.Time       `json:"stored"`
	ContentType string          `json:"contentType"`
	Deps        []Dependency    `json:"deps"`
	Cookies     []render.Cookie `json:"cookies,omitempty"`
}

// Entry is a cached rendering. Its data is kept as stored, compressed when
// the cache is configured with a zip level.
type Entry struct {
	Meta
	ModTime time.Time
	Size    int64

	data    []byte
	gzipped bool
}

func (e *Entry) Gzipped() bool {
	return e.gzipped
}

func (e *Entry) Raw() []byte {
	return e.data
}

func (e *Entry) Bytes() ([]byte, error) {
	if !e.gzipped {
		return e.data, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(e.data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

type Option func(*Cache)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger.With().Str("component", "cache").Logger()
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Cache stores renderings on disk along with the list of files they were
// built from. An entry is only served while none of these files changed.
type Cache struct {
	mu      sync.Mutex
	dir     string
	ttl     time.Duration
	maxSize int64
	level   int
	tree    bool

	logger zerolog.Logger
	now    func() time.Time
}

func New(cfg Config, opts ...Option) (*Cache, error) {
	i, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("cache directory: %w", err)
	}
	if !i.IsDir() {
		return nil, fmt.Errorf("%s: cache directory is not a directory", cfg.Dir)
	}
	if cfg.ZipLevel < 0 || cfg.ZipLevel > gzip.BestCompression {
		return nil, fmt.Errorf("%d: invalid zip level", cfg.ZipLevel)
	}
	c := Cache{
		dir:     filepath.Clean(cfg.Dir),
		ttl:     cfg.TTL,
		maxSize: cfg.MaxSize,
		level:   cfg.ZipLevel,
		tree:    cfg.Tree,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(&c)
	}
	return &c, nil
}

func (c *Cache) Dir() string {
	return c.dir
}

// Hit returns the entry of file requested with params. It fails with ErrMiss
// when there is no entry, when it is older than the TTL or when one of its
// dependencies changed, appeared or disappeared.
func (c *Cache) Hit(file string, params []xsl.Param) (*Entry, error) {
	n := c.entryNames(file, params)
	e, err := c.hit(n)
	if err != nil {
		c.logger.Debug().Str("file", file).Err(err).Msg("cache hit failed")
		return nil, fmt.Errorf("%w: %w", ErrMiss, err)
	}
	return e, nil
}

func (c *Cache) hit(n names) (*Entry, error) {
	meta, err := readMeta(n.meta)
	if err != nil {
		return nil, err
	}
	if c.ttl > 0 && c.now().Sub(meta.Stored) >= c.ttl {
		return nil, fmt.Errorf("entry too old")
	}
	for _, d := range meta.Deps {
		if err := d.check(); err != nil {
			return nil, err
		}
	}
	i, err := os.Stat(n.data)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(n.data)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data file")
	}
	now := c.now()
	os.Chtimes(n.meta, now, now)

	e := Entry{
		Meta:    *meta,
		ModTime: i.ModTime(),
		Size:    i.Size(),
		data:    data,
		gzipped: c.level > 0,
	}
	return &e, nil
}

func (d Dependency) check() error {
	i, err := os.Stat(d.Path)
	if d.Size < 0 {
		if err == nil && i.Mode().IsRegular() {
			return fmt.Errorf("%s: required file has appeared", d.Path)
		}
		return nil
	}
	if err != nil || !i.Mode().IsRegular() {
		return fmt.Errorf("%s: required file has disappeared", d.Path)
	}
	if i.Size() != d.Size {
		return fmt.Errorf("%s: size changed from %d to %d", d.Path, d.Size, i.Size())
	}
	if !i.ModTime().Equal(d.ModTime) {
		return fmt.Errorf("%s: timestamp changed", d.Path)
	}
	return nil
}

// Store saves data as the entry of file requested with params. Renderings
// depending on remote resources are refused with ErrNotCacheable.
func (c *Cache) Store(file string, params []xsl.Param, data []byte, out Source) (*Entry, error) {
	for _, a := range out.Files {
		if a.Mode == vfs.ModeOther {
			return nil, fmt.Errorf("%s: %w: needs remote resource %s", file, ErrNotCacheable, a.Path)
		}
	}
	meta := Meta{
		Stamp:       Stamp,
		Stored:      c.now(),
		ContentType: out.ContentType,
		Cookies:     out.Cookies,
	}
	var mtime time.Time
	for _, a := range out.Files {
		d := Dependency{
			Mode: a.Mode,
			Path: a.Path,
			Size: -1,
		}
		if i, err := os.Stat(a.Path); err == nil && i.Mode().IsRegular() {
			d.Size = i.Size()
			d.ModTime = i.ModTime()
			if a.Mode == vfs.ModeRead && d.ModTime.After(mtime) {
				mtime = d.ModTime
			}
		}
		meta.Deps = append(meta.Deps, d)
	}
	if mtime.IsZero() {
		mtime = meta.Stored
	}
	raw := data
	if c.level > 0 {
		z, err := compress(data, c.level)
		if err != nil {
			return nil, err
		}
		raw = z
	}

	n := c.entryNames(file, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.write(n, &meta, raw, mtime); err != nil {
		os.Remove(n.meta)
		os.Remove(n.data)
		c.logger.Warn().Str("file", file).Err(err).Msg("cache store failed")
		return nil, err
	}
	e := Entry{
		Meta:    meta,
		ModTime: mtime,
		Size:    int64(len(raw)),
		data:    raw,
		gzipped: c.level > 0,
	}
	return &e, nil
}

// Source describes what a cached rendering was built from.
type Source struct {
	Files       []vfs.Access
	ContentType string
	Cookies     []render.Cookie
}

func (c *Cache) write(n names, meta *Meta, data []byte, mtime time.Time) error {
	if err := os.MkdirAll(n.dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFile(n.meta, b); err != nil {
		return err
	}
	if err := writeFile(n.data, data); err != nil {
		return err
	}
	return os.Chtimes(n.data, c.now(), mtime)
}

func writeFile(file string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(file), filepath.Base(file)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), file)
}

func readMeta(file string) (*Meta, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no meta file")
		}
		return nil, err
	}
	var meta Meta
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, err
	}
	if meta.Stamp != Stamp {
		return nil, fmt.Errorf("%s: meta file not written by gorg", file)
	}
	return &meta, nil
}

func compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
