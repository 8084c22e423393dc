// Package logging configures the process-wide apex/log handler.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// Setup installs a handler for format ("json", "text" or "cli") writing to
// stderr and sets the level. An unknown level falls back to info.
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

func SetupWriter(w io.Writer, level, format string) {
	log.SetHandler(handler(w, format))

	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = log.InfoLevel
		log.WithField("level", level).Warn("unknown log level, using info")
	}
	log.SetLevel(lvl)
}

func handler(w io.Writer, format string) log.Handler {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return json.New(w)
	case "text":
		return text.New(w)
	default:
		return cli.New(w)
	}
}
