package xsl

import (
	"os"

	"github.com/rs/zerolog"
)

type State int

const (
	Idle State = iota
	Initializing
	Parsing
	Transforming
	Serializing
	Collecting
	Cleanup
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Parsing:
		return "parsing"
	case Transforming:
		return "transforming"
	case Serializing:
		return "serializing"
	case Collecting:
		return "collecting"
	case Cleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

type Tracer interface {
	Enter(string, State)
	Error(string, error)
}

func NoopTracer() Tracer {
	return discardTracer{}
}

type discardTracer struct{}

func (_ discardTracer) Enter(_ string, _ State) {}

func (_ discardTracer) Error(_ string, _ error) {}

type logTracer struct {
	logger zerolog.Logger
}

func LogTracer(logger zerolog.Logger) Tracer {
	return logTracer{
		logger: logger.With().Str("component", "xsl").Logger(),
	}
}

func Stderr() Tracer {
	w := zerolog.ConsoleWriter{
		Out: os.Stderr,
	}
	return LogTracer(zerolog.New(w).With().Timestamp().Logger())
}

func (t logTracer) Enter(run string, state State) {
	t.logger.Debug().Str("run", run).Stringer("state", state).Msg("enter state")
}

func (t logTracer) Error(run string, err error) {
	t.logger.Error().Str("run", run).Err(err).Msg("run failed")
}
