//go:build cgo

package libxslt

/*
#cgo pkg-config: libxslt libexslt
#include "glue.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/midbel/gorg/message"
	"github.com/midbel/gorg/vfs"
	"github.com/midbel/gorg/xsl"
)

var (
	errAlloc     = errors.New("memory allocation failed")
	errInput     = errors.New("xmlRegisterInputCallbacks failed")
	errOutput    = fmt.Errorf("%w: xmlRegisterOutputCallbacks failed", xsl.ErrOutputCallbacks)
	errCompile   = errors.New("stylesheet not compiled")
	errNoResult  = errors.New("no result document")
	errSerialize = errors.New("xsltSaveResultToString failed")
	errHandle    = errors.New("invalid handle")
)

// Engine drives libxslt. All its methods must be called from the same
// locked OS thread during a run since libxml2 keeps its last error per
// thread. xsl.Processor does so.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) Register(h vfs.Handler, p message.Printer) error {
	activate(h, p)
	switch C.gorg_register() {
	case 0:
		return nil
	case -2:
		return errOutput
	default:
		return errInput
	}
}

func (e *Engine) Unregister() {
	C.gorg_unregister()
	deactivate()
}

func (e *Engine) NewParams(list []xsl.Param) (xsl.Handle, error) {
	if len(list) == 0 {
		return nil, nil
	}
	size := 2 * len(list)
	ptr := C.gorg_params_new(C.int(size))
	if ptr == nil {
		return nil, errAlloc
	}
	ps := params{ptr: ptr}
	slots := unsafe.Slice(ptr, size+1)
	for i, p := range list {
		for j, str := range []string{p.Name, xsl.Quote(p.Value)} {
			s := C.gorg_strndup((*C.char)(unsafe.Pointer(unsafe.StringData(str))), C.size_t(len(str)))
			if s == nil {
				ps.Release()
				return nil, errAlloc
			}
			slots[2*i+j] = s
		}
	}
	return &ps, nil
}

func (e *Engine) ParseStylesheet(b []byte) (xsl.Handle, error) {
	if len(b) == 0 {
		return nil, xsl.ErrNotWellFormed
	}
	var wellformed C.int
	sheet := C.gorg_parse_stylesheet((*C.char)(unsafe.Pointer(&b[0])), C.int(len(b)), &wellformed)
	if sheet == nil {
		if wellformed == 0 {
			return nil, xsl.ErrNotWellFormed
		}
		return nil, errCompile
	}
	return &stylesheet{ptr: sheet}, nil
}

func (e *Engine) LoadStylesheet(file string) (xsl.Handle, error) {
	str := C.CString(file)
	defer C.free(unsafe.Pointer(str))

	sheet := C.gorg_load_stylesheet(str)
	if sheet == nil {
		return nil, fmt.Errorf("%s: stylesheet not loaded", file)
	}
	return &stylesheet{ptr: sheet}, nil
}

func (e *Engine) ParseDocument(b []byte) (xsl.Handle, error) {
	if len(b) == 0 {
		return nil, xsl.ErrNotWellFormed
	}
	doc := C.gorg_parse_document((*C.char)(unsafe.Pointer(&b[0])), C.int(len(b)))
	if doc == nil {
		return nil, xsl.ErrNotWellFormed
	}
	return &document{ptr: doc}, nil
}

func (e *Engine) LoadDocument(file string) (xsl.Handle, error) {
	str := C.CString(file)
	defer C.free(unsafe.Pointer(str))

	doc := C.gorg_load_document(str)
	if doc == nil {
		return nil, fmt.Errorf("%s: %w", file, xsl.ErrNotWellFormed)
	}
	return &document{ptr: doc}, nil
}

func (e *Engine) Apply(sheet, doc, args xsl.Handle) (xsl.Handle, error) {
	s, ok := sheet.(*stylesheet)
	if !ok || s.ptr == nil {
		return nil, fmt.Errorf("stylesheet: %w", errHandle)
	}
	d, ok := doc.(*document)
	if !ok || d.ptr == nil {
		return nil, fmt.Errorf("document: %w", errHandle)
	}
	var ptr **C.char
	if p, ok := args.(*params); ok {
		ptr = p.ptr
	}
	res := C.xsltApplyStylesheet(s.ptr, d.ptr, ptr)
	if res == nil {
		return nil, errNoResult
	}
	return &document{ptr: res}, nil
}

func (e *Engine) Serialize(doc, sheet xsl.Handle) (xsl.Buffer, error) {
	d, ok := doc.(*document)
	if !ok || d.ptr == nil {
		return nil, fmt.Errorf("document: %w", errHandle)
	}
	s, ok := sheet.(*stylesheet)
	if !ok || s.ptr == nil {
		return nil, fmt.Errorf("stylesheet: %w", errHandle)
	}
	var (
		out  *C.xmlChar
		size C.int
	)
	if C.xsltSaveResultToString(&out, &size, d.ptr, s.ptr) < 0 {
		return nil, errSerialize
	}
	return &buffer{ptr: out, size: size}, nil
}

func (e *Engine) LastError() (xsl.ErrorInfo, bool) {
	var last C.gorg_error
	if C.gorg_last_error(&last) == 0 {
		return xsl.ErrorInfo{}, false
	}
	info := xsl.ErrorInfo{
		Code:  int(last.code),
		Level: xsl.Level(last.level),
	}
	if last.message != nil {
		info.Message = strings.TrimSuffix(C.GoString(last.message), "\n")
	}
	return info, true
}

func (e *Engine) Reset() {
	C.gorg_reset()
}

type params struct {
	ptr **C.char
}

func (p *params) Release() {
	C.gorg_params_free(p.ptr)
	p.ptr = nil
}

type stylesheet struct {
	ptr C.xsltStylesheetPtr
}

func (s *stylesheet) Release() {
	if s.ptr != nil {
		C.xsltFreeStylesheet(s.ptr)
	}
	s.ptr = nil
}

type document struct {
	ptr C.xmlDocPtr
}

func (d *document) Release() {
	if d.ptr != nil {
		C.xmlFreeDoc(d.ptr)
	}
	d.ptr = nil
}

type buffer struct {
	ptr  *C.xmlChar
	size C.int
}

func (b *buffer) Bytes() []byte {
	if b.ptr == nil || b.size <= 0 {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(b.ptr), b.size)
}

func (b *buffer) Release() {
	C.gorg_xml_free(unsafe.Pointer(b.ptr))
	b.ptr = nil
	b.size = 0
}
