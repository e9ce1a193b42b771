package render

import (
	"regexp"
	"strings"

	"github.com/midbel/gorg/xsl"
)

var (
	cookiePattern = regexp.MustCompile(`^Set-Cookie\(([^\)]+)\)([a-zA-Z0-9_-]+)=(.+)$`)
	pairPattern   = regexp.MustCompile(`^([a-zA-Z0-9_-]+)=(.+)$`)
)

// Cookie is a cookie requested by a stylesheet. Each value is a key=value
// pair given back to the stylesheets as a parameter on later requests.
type Cookie struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Cookies collects the cookies set by messages of the form
// Set-Cookie(name)key=value, grouped by cookie name in first-seen order.
func Cookies(messages []string) []Cookie {
	var (
		list  []Cookie
		index = make(map[string]int)
	)
	for _, m := range messages {
		x := cookiePattern.FindStringSubmatch(strings.TrimRight(m, "\r\n"))
		if x == nil {
			continue
		}
		value := x[2] + "=" + x[3]
		if i, ok := index[x[1]]; ok {
			list[i].Values = append(list[i].Values, value)
			continue
		}
		index[x[1]] = len(list)
		list = append(list, Cookie{Name: x[1], Values: []string{value}})
	}
	return list
}

// CookieParams turns the key=value pairs stored in cookies into stylesheet
// parameters. Malformed values are ignored.
func CookieParams(values []string) []xsl.Param {
	var list []xsl.Param
	for _, v := range values {
		x := pairPattern.FindStringSubmatch(v)
		if x == nil {
			continue
		}
		list = append(list, xsl.Param{Name: x[1], Value: x[2]})
	}
	return list
}
