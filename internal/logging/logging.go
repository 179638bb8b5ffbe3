package logging

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"os"

	"github.com/rs/zerolog"
)

// SetLevel parses level ("debug", "info", "warn", "error") and sets it as
// the global zerolog level. An unrecognised level falls back to Info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// New returns a console-formatted logger writing to stderr, tagged with
// the owning component ("switch", "vswitch", "arp", "router").
func New(component string) zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).With().Timestamp().Str("component", component).Logger()
}
