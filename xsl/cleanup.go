package xsl

import (
	"errors"
	"fmt"
)

var errCleanup = errors.New("cleanup")

// cleanupSet holds the native resources of one run. A slot is set once,
// right after its resource is acquired, and cleared when released so that
// release can be called any number of times.
type cleanupSet struct {
	params Handle
	doc    Handle
	sheet  Handle
	result Handle
	output Buffer
}

func (c *cleanupSet) release() error {
	var errs []error
	errs = append(errs, releaseSlot(&c.params))
	if c.output != nil {
		errs = append(errs, attempt(c.output.Release))
		c.output = nil
	}
	errs = append(errs, releaseSlot(&c.result))
	errs = append(errs, releaseSlot(&c.doc))
	errs = append(errs, releaseSlot(&c.sheet))
	return errors.Join(errs...)
}

func (c *cleanupSet) empty() bool {
	return c.params == nil && c.doc == nil && c.sheet == nil && c.result == nil && c.output == nil
}

func releaseSlot(h *Handle) error {
	if *h == nil {
		return nil
	}
	err := attempt((*h).Release)
	*h = nil
	return err
}

// attempt runs one cleanup step, turning a panic into an error so that the
// following steps still run.
func attempt(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errCleanup, r)
		}
	}()
	fn()
	return nil
}
