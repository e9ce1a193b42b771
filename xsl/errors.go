package xsl

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrResourceExhaustion   = errors.New("resource exhaustion")
	ErrEngineFailure        = errors.New("engine failure")
	ErrCallbackRegistration = errors.New("callback registration failure")
)

// Errors an Engine reports to refine the message of a failed step.
var (
	ErrNotWellFormed   = errors.New("document not well formed")
	ErrOutputCallbacks = errors.New("output callbacks")
)

const (
	msgNoXML          = "No XML data"
	msgNoXSL          = "No Stylesheet"
	msgInvalidParams  = "Invalid parameters"
	msgParamAlloc     = "Cannot allocate parameter block"
	msgXSLParse       = "XSL parsing error"
	msgXSLCompile     = "XSL stylesheet parsing error"
	msgXSLLoad        = "XSL file loading error"
	msgXMLParse       = "XML parsing error"
	msgXMLLoad        = "XML file parsing error"
	msgApply          = "Stylesheet apply error"
	msgSerialize      = "Result serialization error"
	msgInputCallback  = "Failed to register input callbacks"
	msgOutputCallback = "Failed to register output callbacks"
)

type Level int

const (
	LevelNone Level = iota
	LevelWarning
	LevelError
	LevelFatal
)

func (v Level) String() string {
	switch v {
	case LevelNone:
		return "none"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return fmt.Sprintf("level(%d)", int(v))
	}
}

// ErrorInfo is the last error reported by the engine. The zero value means
// the engine reported nothing.
type ErrorInfo struct {
	Code    int    `json:"code"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func (e ErrorInfo) Zero() bool {
	return e.Code == 0 && e.Level == LevelNone && e.Message == ""
}

func (e ErrorInfo) String() string {
	if e.Zero() {
		return "no error"
	}
	return fmt.Sprintf("%s %d: %s", e.Level, e.Code, e.Message)
}

// Error is returned by a failed run. Kind is one of the package error kinds
// and Message the short fixed text of the failing step.
type Error struct {
	Kind    error
	Message string
	Info    ErrorInfo
	Err     error
}

func invalidInput(msg string) error {
	return &Error{
		Kind:    ErrInvalidInput,
		Message: msg,
	}
}

func engineFailure(msg string, err error) error {
	return &Error{
		Kind:    ErrEngineFailure,
		Message: msg,
		Err:     err,
	}
}

func (e *Error) Error() string {
	if e.Info.Message != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Info.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	list := []error{e.Kind}
	if e.Err != nil {
		list = append(list, e.Err)
	}
	return list
}
