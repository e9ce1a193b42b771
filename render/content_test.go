package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/midbel/gorg/render"
	"github.com/midbel/gorg/xsl"
)

func TestContentType(t *testing.T) {
	tests := []struct {
		Name string
		Data string
		Want string
	}{
		{
			Name: "xml",
			Data: "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<guide/>",
			Want: "text/xml; charset=UTF-8",
		},
		{
			Name: "xhtml",
			Data: "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<!DOCTYPE html PUBLIC \"-//W3C//DTD XHTML 1.0 Strict//EN\">\n<html/>",
			Want: "application/xhtml+xml; charset=UTF-8",
		},
		{
			Name: "xhtml-without-declaration",
			Data: "<!DOCTYPE html PUBLIC \"-//W3C//DTD XHTML 1.0 Strict//EN\" \"x\">\n<html/>",
			Want: "application/xhtml+xml",
		},
		{
			Name: "html-doctype",
			Data: "<!DOCTYPE html PUBLIC \"-//W3C//DTD HTML 4.01//EN\">\n<html/>",
			Want: "text/html",
		},
		{
			Name: "html",
			Data: "<HTML><body/></HTML>",
			Want: "text/html",
		},
		{
			Name: "text",
			Data: "plain text",
			Want: "text/plain",
		},
	}
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			assert.Equal(t, tt.Want, render.ContentType([]byte(tt.Data)))
		})
	}
}

func TestCookies(t *testing.T) {
	messages := []string{
		"Set-Cookie(prefs)lang=en",
		"Redirect=/index.xml",
		"Set-Cookie(session)id=42\n",
		"Set-Cookie(prefs)style=printable",
		"Set-Cookie(bad)=nokey",
	}
	want := []render.Cookie{
		{Name: "prefs", Values: []string{"lang=en", "style=printable"}},
		{Name: "session", Values: []string{"id=42"}},
	}
	assert.Equal(t, want, render.Cookies(messages))
	assert.Empty(t, render.Cookies(nil))
}

func TestCookieParams(t *testing.T) {
	got := render.CookieParams([]string{"lang=en", "broken", "style=printable"})
	want := []xsl.Param{{Name: "lang", Value: "en"}, {Name: "style", Value: "printable"}}
	assert.Equal(t, want, got)
}
