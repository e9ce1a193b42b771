package xsl

import (
	"sync"

	"github.com/midbel/gorg/message"
	"github.com/midbel/gorg/vfs"
)

// Handle is a native resource owned by the engine.
type Handle interface {
	Release()
}

// Buffer is the serialized result of a transformation.
type Buffer interface {
	Handle
	Bytes() []byte
}

// Engine is the XSLT implementation driven by a Processor. Its callback
// registration and error state may be process wide. Lock must then be shared
// by every value of the engine: a Processor holds it for the whole run.
type Engine interface {
	sync.Locker

	Register(vfs.Handler, message.Printer) error
	Unregister()

	NewParams([]Param) (Handle, error)

	ParseStylesheet([]byte) (Handle, error)
	LoadStylesheet(string) (Handle, error)
	ParseDocument([]byte) (Handle, error)
	LoadDocument(string) (Handle, error)

	Apply(sheet, doc, params Handle) (Handle, error)
	Serialize(doc, sheet Handle) (Buffer, error)

	LastError() (ErrorInfo, bool)
	Reset()
}
