package message

import (
	"io"
	"os"
	"slices"
	"strings"
	"sync"
)

// Sentinel marks the engine messages kept for the caller.
const Sentinel = "%%GORG%%"

// Printer receives the formatted diagnostics of the engine.
type Printer interface {
	Print(string)
}

// Interceptor keeps the tagged messages and forwards everything else to its
// diagnostic writer.
type Interceptor struct {
	mu   sync.Mutex
	w    io.Writer
	list []string
}

func New(w io.Writer) *Interceptor {
	if w == nil {
		w = os.Stderr
	}
	return &Interceptor{
		w: w,
	}
}

func (i *Interceptor) Print(msg string) {
	rest, ok := strings.CutPrefix(msg, Sentinel)
	if !ok {
		i.mu.Lock()
		defer i.mu.Unlock()
		io.WriteString(i.w, msg)
		return
	}
	if rest == "" {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.list = append(i.list, rest)
}

func (i *Interceptor) Messages() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.list)
}

func (i *Interceptor) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.list = nil
}

// Discard is a Printer dropping every message.
var Discard Printer = discard{}

type discard struct{}

func (discard) Print(_ string) {}
