package message_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/midbel/gorg/message"
)

func TestInterceptor(t *testing.T) {
	tests := []struct {
		Name     string
		Input    []string
		Messages []string
		Stderr   string
	}{
		{
			Name:     "tagged",
			Input:    []string{"%%GORG%%hello"},
			Messages: []string{"hello"},
		},
		{
			Name:   "plain",
			Input:  []string{"plain warning"},
			Stderr: "plain warning",
		},
		{
			Name:  "empty-remainder",
			Input: []string{"%%GORG%%"},
		},
		{
			Name:     "mixed",
			Input:    []string{"%%GORG%%Redirect=/index.xml", "\n", "compilation error\n", "%%GORG%%Set-Cookie(lang)value=en"},
			Messages: []string{"Redirect=/index.xml", "Set-Cookie(lang)value=en"},
			Stderr:   "\ncompilation error\n",
		},
		{
			Name:   "sentinel-not-prefix",
			Input:  []string{"warning: %%GORG%%hello"},
			Stderr: "warning: %%GORG%%hello",
		},
	}
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			var (
				buf bytes.Buffer
				itc = message.New(&buf)
			)
			for _, in := range tt.Input {
				itc.Print(in)
			}
			assert.Equal(t, tt.Messages, itc.Messages())
			assert.Equal(t, tt.Stderr, buf.String())
		})
	}
}

func TestInterceptorReset(t *testing.T) {
	itc := message.New(&bytes.Buffer{})
	itc.Print("%%GORG%%hello")
	itc.Reset()
	assert.Empty(t, itc.Messages())
}
