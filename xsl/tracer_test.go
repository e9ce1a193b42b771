package xsl

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLogTracer(t *testing.T) {
	var (
		buf bytes.Buffer
		tr  = LogTracer(zerolog.New(&buf).Level(zerolog.DebugLevel))
	)
	tr.Enter("run-1", Transforming)
	tr.Error("run-1", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"component":"xsl"`)
	assert.Contains(t, out, `"state":"transforming"`)
	assert.Contains(t, out, `"run":"run-1"`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestStateString(t *testing.T) {
	states := []State{Idle, Initializing, Parsing, Transforming, Serializing, Collecting, Cleanup}
	want := []string{"idle", "initializing", "parsing", "transforming", "serializing", "collecting", "cleanup"}
	for i, s := range states {
		assert.Equal(t, want[i], s.String())
	}
	assert.Equal(t, "unknown", State(42).String())
}
