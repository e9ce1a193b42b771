//go:build cgo

package libxslt

/*
#include "glue.h"
*/
import "C"

import (
	"errors"
	"io"
	"os"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/midbel/gorg/message"
	"github.com/midbel/gorg/vfs"
)

// active is what the C callbacks call into. libxml2 keeps a single set of
// callbacks for the whole process.
var active struct {
	sync.RWMutex
	handler vfs.Handler
	printer message.Printer
}

func activate(h vfs.Handler, p message.Printer) {
	active.Lock()
	defer active.Unlock()
	active.handler = h
	active.printer = p
}

func deactivate() {
	activate(nil, nil)
}

func currentHandler() vfs.Handler {
	active.RLock()
	defer active.RUnlock()
	return active.handler
}

func currentPrinter() message.Printer {
	active.RLock()
	defer active.RUnlock()
	return active.printer
}

//export gorgMatch
func gorgMatch(uri *C.char) C.int {
	h := currentHandler()
	if h == nil || !h.Match(C.GoString(uri)) {
		return 0
	}
	return 1
}

//export gorgOpen
func gorgOpen(name *C.char, write C.int) C.uintptr_t {
	h := currentHandler()
	if h == nil {
		return 0
	}
	var (
		file = C.GoString(name)
		c    io.Closer
		err  error
	)
	if write != 0 {
		c, err = h.OpenWrite(file)
	} else {
		c, err = h.OpenRead(file)
	}
	if err != nil {
		return 0
	}
	return C.uintptr_t(cgo.NewHandle(c))
}

//export gorgRead
func gorgRead(ctx C.uintptr_t, buf *C.char, size C.int) C.int {
	r, ok := cgo.Handle(ctx).Value().(io.Reader)
	if !ok || size <= 0 {
		return -1
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(size))
	for {
		n, err := r.Read(b)
		if n > 0 {
			return C.int(n)
		}
		if errors.Is(err, io.EOF) {
			return 0
		}
		if err != nil {
			return -1
		}
	}
}

//export gorgWrite
func gorgWrite(ctx C.uintptr_t, buf *C.char, size C.int) C.int {
	w, ok := cgo.Handle(ctx).Value().(io.Writer)
	if !ok || size < 0 {
		return -1
	}
	n, err := w.Write(unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(size)))
	if err != nil {
		return -1
	}
	return C.int(n)
}

//export gorgClose
func gorgClose(ctx C.uintptr_t) C.int {
	handle := cgo.Handle(ctx)
	c, _ := handle.Value().(io.Closer)
	handle.Delete()

	var err error
	if h := currentHandler(); h != nil {
		err = h.Close(c)
	} else if c != nil {
		err = c.Close()
	}
	if err != nil {
		return -1
	}
	return 0
}

//export gorgMessage
func gorgMessage(msg *C.char) {
	str := C.GoString(msg)
	if p := currentPrinter(); p != nil {
		p.Print(str)
		return
	}
	io.WriteString(os.Stderr, str)
}
