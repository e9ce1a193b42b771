package vfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"syscall"
)

// Handler is the file access protocol an engine calls back into: it asks
// whether a reference is handled locally, then opens, and finally closes it.
type Handler interface {
	Match(string) bool
	OpenRead(string) (io.ReadCloser, error)
	OpenWrite(string) (io.WriteCloser, error)
	Close(io.Closer) error
}

// Closed is the handle of an already released file. Closing it succeeds.
var Closed io.Closer = closedHandle{}

type closedHandle struct{}

func (closedHandle) Close() error {
	return nil
}

const placeholderFormat = "<?xml version='1.0'?><missing file='%s'/>"

var placeholderEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", "'", "&apos;")

// Placeholder returns the document given to the engine in place of a
// missing secondary document.
func Placeholder(name string) string {
	return fmt.Sprintf(placeholderFormat, placeholderEscaper.Replace(name))
}

// Bridge implements Handler on the local filesystem under a virtual root.
type Bridge struct {
	root    string
	tracker *Tracker
}

func NewBridge(root string, tracker *Tracker) *Bridge {
	if tracker == nil {
		tracker = NewTracker(false)
	}
	return &Bridge{
		root:    root,
		tracker: tracker,
	}
}

func (b *Bridge) Root() string {
	return b.root
}

func (b *Bridge) Match(uri string) bool {
	if IsLocal(uri) {
		return true
	}
	if IsRemote(uri) {
		b.tracker.Record(ModeOther, uri)
	}
	return false
}

// OpenRead opens the file under the virtual root. When the file does not
// exist, or one of its parents is not a directory, a placeholder document is
// returned instead unless the name looks like a dtd, a stylesheet or a
// file:/// uri.
func (b *Bridge) OpenRead(name string) (io.ReadCloser, error) {
	file, err := b.resolve(name)
	if err != nil {
		return nil, err
	}
	b.tracker.Record(ModeRead, file)

	r, err := os.Open(file)
	if err == nil {
		return r, nil
	}
	if !missing(err) || !canFake(name) {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(Placeholder(name))), nil
}

func (b *Bridge) OpenWrite(name string) (io.WriteCloser, error) {
	file, err := b.resolve(name)
	if err != nil {
		return nil, err
	}
	b.tracker.Record(ModeWrite, file)
	return os.Create(file)
}

func (b *Bridge) Close(c io.Closer) error {
	if c == nil || c == Closed {
		return nil
	}
	return c.Close()
}

func (b *Bridge) resolve(name string) (string, error) {
	if name == "" {
		return "", ErrNotLocal
	}
	return Resolve(name, b.root)
}

func canFake(name string) bool {
	if strings.HasPrefix(name, fileScheme) || len(name) <= 4 {
		return false
	}
	return !strings.HasSuffix(name, ".dtd") && !strings.HasSuffix(name, ".xsl")
}

func missing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
