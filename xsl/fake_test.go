package xsl

import (
	"errors"
	"fmt"
	"sync"

	"github.com/midbel/gorg/message"
	"github.com/midbel/gorg/vfs"
)

var errFake = errors.New("fake engine failure")

type fakeHandle struct {
	name   string
	engine *fakeEngine
}

func (h *fakeHandle) Release() {
	h.engine.release(h.name)
}

type fakeBuffer struct {
	fakeHandle
	data []byte
}

func (b *fakeBuffer) Bytes() []byte {
	return b.data
}

type panicHandle struct{}

func (panicHandle) Release() {
	panic("double free")
}

// fakeEngine records the calls made by a Processor. fail names the step that
// should fail. Engines sharing native state share locker.
type fakeEngine struct {
	mu     sync.Mutex
	locker sync.Locker

	fail    string
	output  string
	info    ErrorInfo
	onApply func(vfs.Handler, message.Printer)
	onStart func()

	handler  vfs.Handler
	printer  message.Printer
	calls    []string
	releases map[string]int
	resets   int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		output:   "<?xml version=\"1.0\"?>\n<out/>\n",
		releases: make(map[string]int),
		locker:   new(sync.Mutex),
	}
}

func (e *fakeEngine) Lock() {
	e.locker.Lock()
}

func (e *fakeEngine) Unlock() {
	e.locker.Unlock()
}

func (e *fakeEngine) call(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, name)
}

func (e *fakeEngine) release(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releases[name]++
}

func (e *fakeEngine) handle(name string) Handle {
	return &fakeHandle{
		name:   name,
		engine: e,
	}
}

func (e *fakeEngine) Register(h vfs.Handler, p message.Printer) error {
	e.call("register")
	if e.onStart != nil {
		e.onStart()
	}
	switch e.fail {
	case "register":
		return errFake
	case "register-output":
		return fmt.Errorf("%w: %w", ErrOutputCallbacks, errFake)
	}
	e.handler, e.printer = h, p
	return nil
}

func (e *fakeEngine) Unregister() {
	e.call("unregister")
	e.handler, e.printer = nil, nil
}

func (e *fakeEngine) NewParams(list []Param) (Handle, error) {
	e.call("params")
	if e.fail == "params" {
		return nil, errFake
	}
	return e.handle("params"), nil
}

func (e *fakeEngine) ParseStylesheet(_ []byte) (Handle, error) {
	e.call("parse-sheet")
	switch e.fail {
	case "parse-sheet":
		return nil, fmt.Errorf("%w: %w", ErrNotWellFormed, errFake)
	case "compile-sheet":
		return nil, errFake
	}
	return e.handle("sheet"), nil
}

func (e *fakeEngine) LoadStylesheet(file string) (Handle, error) {
	e.call("load-sheet:" + file)
	if e.fail == "load-sheet" {
		return nil, errFake
	}
	return e.handle("sheet"), nil
}

func (e *fakeEngine) ParseDocument(_ []byte) (Handle, error) {
	e.call("parse-doc")
	if e.fail == "parse-doc" {
		return nil, errFake
	}
	return e.handle("doc"), nil
}

func (e *fakeEngine) LoadDocument(file string) (Handle, error) {
	e.call("load-doc:" + file)
	if e.fail == "load-doc" {
		return nil, errFake
	}
	return e.handle("doc"), nil
}

func (e *fakeEngine) Apply(_, _, _ Handle) (Handle, error) {
	e.call("apply")
	if e.onApply != nil {
		e.onApply(e.handler, e.printer)
	}
	switch e.fail {
	case "apply":
		return nil, errFake
	case "apply-nil":
		return nil, nil
	}
	return e.handle("result"), nil
}

func (e *fakeEngine) Serialize(_, _ Handle) (Buffer, error) {
	e.call("serialize")
	if e.fail == "serialize" {
		return nil, errFake
	}
	b := fakeBuffer{
		fakeHandle: fakeHandle{name: "output", engine: e},
		data:       []byte(e.output),
	}
	return &b, nil
}

func (e *fakeEngine) LastError() (ErrorInfo, bool) {
	return e.info, !e.info.Zero()
}

func (e *fakeEngine) Reset() {
	e.call("reset")
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resets++
}

type traceEvent struct {
	Run   string
	State State
}

type recordTracer struct {
	mu     sync.Mutex
	events []traceEvent
	errors []error
}

func (t *recordTracer) Enter(run string, state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, traceEvent{Run: run, State: state})
}

func (t *recordTracer) Error(_ string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, err)
}

func (t *recordTracer) states(run string) []State {
	t.mu.Lock()
	defer t.mu.Unlock()
	var list []State
	for _, e := range t.events {
		if e.Run == run {
			list = append(list, e.State)
		}
	}
	return list
}

func (t *recordTracer) index(run string, state State) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, e := range t.events {
		if e.Run == run && e.State == state {
			return i
		}
	}
	return -1
}
