// Package sysutil holds process-level helpers shared by the binaries:
// logger setup and environment parsing.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a LOG_LEVEL value to a zerolog level. Matching is
// case-insensitive, "warning" is accepted for warn, and blank or unknown
// values fall back to info.
func ParseLevel(lvl string) zerolog.Level {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	if lvl == "warning" {
		lvl = "warn"
	}
	l, err := zerolog.ParseLevel(lvl)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// SetLogLevel sets the global zerolog level from lvl (see ParseLevel).
func SetLogLevel(lvl string) { zerolog.SetGlobalLevel(ParseLevel(lvl)) }

// SetupLogger points the global logger at w (stderr when nil) with RFC 3339
// millisecond timestamps, tagged with service. pretty selects the console
// writer for local development.
func SetupLogger(w io.Writer, service, level string, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05.000Z07:00"
	SetLogLevel(level)

	l := zerolog.New(w).With().Timestamp().Str("service", service).Logger()
	log.Logger = l
	return l
}

// IsTruthy reports whether a flag-like env value is set: 1, true, yes, y or
// on, in any case.
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// FirstNonEmpty returns the first value that is not blank, or "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// EnvOr returns the first non-blank value among the named environment
// variables, else def.
func EnvOr(def string, keys ...string) string {
	vals := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		vals = append(vals, os.Getenv(k))
	}
	return FirstNonEmpty(append(vals, def)...)
}
