package xsl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/midbel/gorg/message"
	"github.com/midbel/gorg/vfs"
)

type Option func(*Processor)

func WithTracer(t Tracer) Option {
	return func(p *Processor) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithDiagnostics sets where the untagged messages of the engine are written.
func WithDiagnostics(w io.Writer) Option {
	return func(p *Processor) {
		if w != nil {
			p.diag = w
		}
	}
}

type runState struct {
	root     string
	tracker  *vfs.Tracker
	messages *message.Interceptor
}

func (s *runState) reset(root string, track bool) {
	s.root = root
	s.tracker.Reset()
	s.tracker.Enable(track)
	s.messages.Reset()
}

func (s *runState) neutral() bool {
	return s.root == "" && !s.tracker.Enabled() && s.tracker.Len() == 0 && len(s.messages.Messages()) == 0
}

// Processor runs transformations one at a time on its engine. The state of
// the running transformation lives in the Processor and is reset before and
// after each run.
type Processor struct {
	mu     sync.Mutex
	engine Engine
	tracer Tracer
	diag   io.Writer

	state runState
	set   cleanupSet
}

func New(engine Engine, opts ...Option) *Processor {
	p := Processor{
		engine: engine,
		tracer: NoopTracer(),
		diag:   os.Stderr,
	}
	for _, o := range opts {
		o(&p)
	}
	p.state = runState{
		tracker:  vfs.NewTracker(false),
		messages: message.New(p.diag),
	}
	return &p
}

func (p *Processor) SetTracer(t Tracer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t == nil {
		t = NoopTracer()
	}
	p.tracer = t
}

// Run transforms req. It blocks while another run holds the processor and
// cannot be interrupted once started: ctx is only checked before waiting.
//
// Once the run started, the returned Result is not nil even on failure so
// that the accesses, messages and engine error of a failed run can be
// inspected.
func (p *Processor) Run(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.engine.Lock()
	defer p.engine.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	res := Result{
		ID: uuid.NewString(),
	}
	if err := p.run(&res, req); err != nil {
		p.tracer.Error(res.ID, err)
		return &res, err
	}
	return &res, nil
}

func (p *Processor) run(res *Result, req Request) (err error) {
	p.tracer.Enter(res.ID, Initializing)
	if err := req.validate(); err != nil {
		p.tracer.Enter(res.ID, Idle)
		return err
	}
	defer func() {
		p.collect(res)
		var e *Error
		if errors.As(err, &e) {
			e.Info = res.Err
		}
		p.tracer.Enter(res.ID, Cleanup)
		if cerr := p.cleanup(); cerr != nil {
			p.tracer.Error(res.ID, cerr)
			if err == nil {
				err = fmt.Errorf("%w: %w", ErrEngineFailure, cerr)
			}
		}
		p.tracer.Enter(res.ID, Idle)
	}()

	if p.set.params, err = p.engine.NewParams(req.Params); err != nil {
		return &Error{
			Kind:    ErrResourceExhaustion,
			Message: msgParamAlloc,
			Err:     err,
		}
	}
	p.state.reset(req.Root, req.Track)
	if err = p.register(req.Root); err != nil {
		return err
	}

	p.tracer.Enter(res.ID, Parsing)
	if p.set.sheet, err = p.loadStylesheet(req.XSL); err != nil {
		return err
	}
	if p.set.doc, err = p.loadDocument(req.XML); err != nil {
		return err
	}

	p.tracer.Enter(res.ID, Transforming)
	if p.set.result, err = p.engine.Apply(p.set.sheet, p.set.doc, p.set.params); err != nil {
		return engineFailure(msgApply, err)
	}
	if p.set.result == nil {
		return engineFailure(msgApply, nil)
	}

	p.tracer.Enter(res.ID, Serializing)
	if p.set.output, err = p.engine.Serialize(p.set.result, p.set.sheet); err != nil {
		return engineFailure(msgSerialize, err)
	}

	p.tracer.Enter(res.ID, Collecting)
	if p.set.output != nil {
		if b := p.set.output.Bytes(); len(b) > 0 {
			res.Output = bytes.Clone(b)
		}
	}
	return nil
}

func (p *Processor) register(root string) error {
	bridge := vfs.NewBridge(root, p.state.tracker)
	if err := p.engine.Register(bridge, p.state.messages); err != nil {
		msg := msgInputCallback
		if errors.Is(err, ErrOutputCallbacks) {
			msg = msgOutputCallback
		}
		return &Error{
			Kind:    ErrCallbackRegistration,
			Message: msg,
			Err:     err,
		}
	}
	return nil
}

func (p *Processor) loadStylesheet(xsl string) (Handle, error) {
	if !LooksLikeXML(xsl) {
		sheet, err := p.engine.LoadStylesheet(xsl)
		if err != nil {
			return nil, engineFailure(msgXSLLoad, err)
		}
		return sheet, nil
	}
	sheet, err := p.engine.ParseStylesheet([]byte(xsl))
	if err != nil {
		msg := msgXSLCompile
		if errors.Is(err, ErrNotWellFormed) {
			msg = msgXSLParse
		}
		return nil, engineFailure(msg, err)
	}
	return sheet, nil
}

func (p *Processor) loadDocument(xml string) (Handle, error) {
	if !LooksLikeXML(xml) {
		doc, err := p.engine.LoadDocument(xml)
		if err != nil {
			return nil, engineFailure(msgXMLLoad, err)
		}
		return doc, nil
	}
	doc, err := p.engine.ParseDocument([]byte(xml))
	if err != nil {
		return nil, engineFailure(msgXMLParse, err)
	}
	return doc, nil
}

func (p *Processor) collect(res *Result) {
	res.Files = p.state.tracker.Snapshot()
	res.Messages = p.state.messages.Messages()
	if info, ok := p.engine.LastError(); ok {
		res.Err = info
	}
}

// cleanup releases the native resources of the run, withdraws the callbacks
// and resets the run and engine states. Every step is attempted even when a
// previous one failed. Calling it again is a no-op.
func (p *Processor) cleanup() error {
	var errs []error
	errs = append(errs, p.set.release())
	errs = append(errs, attempt(p.engine.Unregister))
	p.state.reset("", false)
	errs = append(errs, attempt(p.engine.Reset))
	return errors.Join(errs...)
}
