package xsl

import (
	"strings"

	"github.com/midbel/gorg/vfs"
)

// MaxPathLength is the longest input still taken for a file name.
const MaxPathLength = 4096

// LooksLikeXML reports whether str is inline content rather than a file
// reference. Nothing is parsed and the filesystem is not consulted.
func LooksLikeXML(str string) bool {
	if len(str) > MaxPathLength {
		return true
	}
	if strings.HasPrefix(str, "<?xml") || strings.HasPrefix(str, "<?xsl") {
		return true
	}
	return strings.Contains(str, "\n")
}

// Request is the input of one run. XML and XSL are either inline content or
// file references, see LooksLikeXML.
type Request struct {
	XML    string
	XSL    string
	Params []Param
	Root   string
	Track  bool
}

func (r Request) validate() error {
	if r.XML == "" {
		return invalidInput(msgNoXML)
	}
	if r.XSL == "" {
		return invalidInput(msgNoXSL)
	}
	return nil
}

type Result struct {
	ID       string       `json:"id"`
	Output   []byte       `json:"output,omitempty"`
	Files    []vfs.Access `json:"files"`
	Messages []string     `json:"messages"`
	Err      ErrorInfo    `json:"error"`
}

// Empty reports whether the transformation produced no output.
func (r *Result) Empty() bool {
	return len(r.Output) == 0
}
