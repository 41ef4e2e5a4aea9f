// Package logging builds the structured logger used by the CLI and the HTTP adapter and
// adapts it to the engine's printf-style Logger interface.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration
type Config struct {
	Level  string    // debug, info, warn, error
	Pretty bool      // human-readable console output
	Out    io.Writer // defaults to stderr so reports on stdout stay clean
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(name string) zerolog.Level {
	switch name {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New creates a new structured logger
func New(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stderr
	if cfg.Out != nil {
		output = cfg.Out
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Logger()
}

// Adapter exposes a zerolog.Logger through Debugf/Infof/Warnf/Errorf
type Adapter struct {
	log zerolog.Logger
}

// NewAdapter wraps l, tagging every entry with the component name
func NewAdapter(l zerolog.Logger, component string) *Adapter {
	return &Adapter{log: l.With().Str("component", component).Logger()}
}

func (a *Adapter) Debugf(format string, args ...any) { a.emit(a.log.Debug(), format, args) }
func (a *Adapter) Infof(format string, args ...any)  { a.emit(a.log.Info(), format, args) }
func (a *Adapter) Warnf(format string, args ...any)  { a.emit(a.log.Warn(), format, args) }
func (a *Adapter) Errorf(format string, args ...any) { a.emit(a.log.Error(), format, args) }

func (a *Adapter) emit(e *zerolog.Event, format string, args []any) {
	if e == nil {
		return
	}
	e.Msg(fmt.Sprintf(format, args...))
}
