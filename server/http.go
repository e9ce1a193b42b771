package server

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/midbel/gorg/render"
)

const cookieLifetime = 30 * 24 * time.Hour

var etagPattern = regexp.MustCompile(`(?:"(?:\\.|[^"])+?"|[^",]+)+`)

// page is a rendered document ready to be sent.
type page struct {
	data        []byte
	gzipped     bool
	contentType string
	cookies     []render.Cookie
	// zero when the page is not cached
	modTime time.Time
	size    int64
}

func (p *page) validators() bool {
	return !p.modTime.IsZero()
}

func makeETag(size int64, mtime time.Time) string {
	return fmt.Sprintf(`"%x-%x"`, size, mtime.Unix())
}

type conditions struct {
	etags    []string
	modSince time.Time
}

// parseConditions reads If-None-Match and If-Modified-Since. Malformed values
// are ignored.
func parseConditions(r *http.Request) conditions {
	var c conditions
	if str := r.Header.Get("If-None-Match"); str != "" {
		for _, e := range etagPattern.FindAllString(str, -1) {
			if e = strings.TrimSpace(e); e != "" {
				c.etags = append(c.etags, e)
			}
		}
	}
	if str := r.Header.Get("If-Modified-Since"); str != "" {
		if t, err := http.ParseTime(str); err == nil {
			c.modSince = t
		}
	}
	return c
}

// notModified tells whether a resource of the given size and mtime is still
// the one known by the client. When both headers are given, both must match.
func (c conditions) notModified(size int64, mtime time.Time) bool {
	var (
		hasTags = len(c.etags) > 0
		hasTime = !c.modSince.IsZero()
		tag     = makeETag(size, mtime)
	)
	matchTag := func() bool {
		for _, e := range c.etags {
			if e == tag || e == "*" {
				return true
			}
		}
		return false
	}
	matchTime := func() bool {
		return !mtime.Truncate(time.Second).After(c.modSince)
	}
	switch {
	case hasTags && hasTime:
		return matchTime() && matchTag()
	case hasTags:
		return matchTag()
	case hasTime:
		return matchTime()
	default:
		return false
	}
}

func setValidators(w http.ResponseWriter, size int64, mtime time.Time) {
	w.Header().Set("ETag", makeETag(size, mtime))
	w.Header().Set("Last-Modified", mtime.UTC().Format(http.TimeFormat))
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

// negotiateType turns application/xhtml+xml into text/html for clients that
// do not accept it.
func negotiateType(r *http.Request, ct string) string {
	if ct == "" {
		return render.TypeText
	}
	rest, ok := strings.CutPrefix(ct, render.TypeXHTML)
	if ok && !strings.Contains(r.Header.Get("Accept"), render.TypeXHTML) {
		return render.TypeHTML + rest
	}
	return ct
}

// writeBody sends data compressed when the client accepts it and level is
// not 0. gzipped tells whether data is already compressed.
func writeBody(w http.ResponseWriter, r *http.Request, data []byte, gzipped bool, level int) error {
	switch accept := acceptsGzip(r) && level > 0; {
	case accept && !gzipped:
		var buf bytes.Buffer
		z, err := gzip.NewWriterLevel(&buf, level)
		if err != nil {
			return err
		}
		if _, err := z.Write(data); err != nil {
			return err
		}
		if err := z.Close(); err != nil {
			return err
		}
		data = buf.Bytes()
		fallthrough
	case accept:
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
	case gzipped:
		z, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return err
		}
		defer z.Close()
		if data, err = io.ReadAll(z); err != nil {
			return err
		}
	}
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return nil
	}
	_, err := w.Write(data)
	return err
}

// setCookies sends the cookies requested by the stylesheets. The values of a
// cookie are joined with & as CGI does.
func setCookies(w http.ResponseWriter, cookies []render.Cookie, now time.Time) {
	for _, c := range cookies {
		values := make([]string, 0, len(c.Values))
		for _, v := range c.Values {
			values = append(values, url.QueryEscape(v))
		}
		http.SetCookie(w, &http.Cookie{
			Name:    c.Name,
			Value:   strings.Join(values, "&"),
			Path:    "/",
			Expires: now.Add(cookieLifetime),
		})
	}
}

// cookieValues gives the key=value pairs stored in the cookies of r.
func cookieValues(r *http.Request) []string {
	var list []string
	for _, c := range r.Cookies() {
		for _, v := range strings.Split(c.Value, "&") {
			if u, err := url.QueryUnescape(v); err == nil {
				list = append(list, u)
			}
		}
	}
	return list
}

// httpHost gives the value of the httphost parameter given the hosts of the
// configuration.
func httpHost(hosts []string, r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	switch {
	case hosts[0] == "*":
		return host
	case slices.Contains(hosts, "*"), slices.Contains(hosts, host):
		return hosts[0]
	default:
		return host
	}
}

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE HTML PUBLIC "-//IETF//DTD HTML 2.0//EN">
<HTML>
<HEAD><TITLE>{{.Code}} {{.Label}}</TITLE></HEAD>
<BODY>
<H1>{{.Label}}</H1>
<font color="#FF0000">{{range $i, $m := .Messages}}{{if $i}}<br/>{{end}}{{$m}}{{end}}</font>
<HR>
</BODY>
</HTML>
`))

func writeError(w http.ResponseWriter, code int, messages ...string) {
	ctx := struct {
		Code     int
		Label    string
		Messages []string
	}{
		Code:     code,
		Label:    http.StatusText(code),
		Messages: messages,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	errorPage.Execute(w, ctx)
}
