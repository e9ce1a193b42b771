//go:build !cgo

package libxslt

import (
	"errors"

	"github.com/midbel/gorg/message"
	"github.com/midbel/gorg/vfs"
	"github.com/midbel/gorg/xsl"
)

var ErrUnavailable = errors.New("libxslt not available: built without cgo")

// Engine refuses every run when cgo is disabled.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func Versions() Version {
	return Version{
		Engine: "unavailable",
	}
}

func (e *Engine) Register(_ vfs.Handler, _ message.Printer) error {
	return ErrUnavailable
}

func (e *Engine) Unregister() {}

func (e *Engine) NewParams(_ []xsl.Param) (xsl.Handle, error) {
	return nil, nil
}

func (e *Engine) ParseStylesheet(_ []byte) (xsl.Handle, error) {
	return nil, ErrUnavailable
}

func (e *Engine) LoadStylesheet(_ string) (xsl.Handle, error) {
	return nil, ErrUnavailable
}

func (e *Engine) ParseDocument(_ []byte) (xsl.Handle, error) {
	return nil, ErrUnavailable
}

func (e *Engine) LoadDocument(_ string) (xsl.Handle, error) {
	return nil, ErrUnavailable
}

func (e *Engine) Apply(_, _, _ xsl.Handle) (xsl.Handle, error) {
	return nil, ErrUnavailable
}

func (e *Engine) Serialize(_, _ xsl.Handle) (xsl.Buffer, error) {
	return nil, ErrUnavailable
}

func (e *Engine) LastError() (xsl.ErrorInfo, bool) {
	return xsl.ErrorInfo{}, false
}

func (e *Engine) Reset() {}
