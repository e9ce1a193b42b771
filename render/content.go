package render

import (
	"regexp"
)

const (
	TypeXHTML = "application/xhtml+xml"
	TypeXML   = "text/xml"
	TypeHTML  = "text/html"
	TypeText  = "text/plain"
)

var (
	xmlDeclPattern   = regexp.MustCompile(`(?im)^<\?xml .*encoding=['"](.+)['"]`)
	htmlDocPattern   = regexp.MustCompile(`(?im)^<!DOCTYPE\s+html`)
	publicDocPattern = regexp.MustCompile(`(?im)^<!DOCTYPE\s+html\sPUBLIC\s(.+DTD XHTML)?`)
	htmlPattern      = regexp.MustCompile(`(?i)<html`)
)

const doctypeWindow = 251

// ContentType guesses the media type of a rendered document from its xml
// declaration and doctype.
func ContentType(data []byte) string {
	if m := xmlDeclPattern.FindSubmatch(data); m != nil {
		ct := TypeXML
		head := data
		if len(head) > doctypeWindow {
			head = head[:doctypeWindow]
		}
		if htmlDocPattern.Match(head) {
			ct = TypeXHTML
		}
		if len(m[1]) > 0 {
			ct += "; charset=" + string(m[1])
		}
		return ct
	}
	if m := publicDocPattern.FindSubmatch(data); m != nil {
		if len(m[1]) > 0 {
			return TypeXHTML
		}
		return TypeHTML
	}
	if htmlPattern.Match(data) {
		return TypeHTML
	}
	return TypeText
}
