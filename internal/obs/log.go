// Package obs configures the host's structured logger. A thin wrapper
// around zerolog, grounded on the logging conventions visible across
// the example pack (e.g. sawpanic-cryptorun's internal/log package and
// the probability_model.go usage of github.com/rs/zerolog/log).
package obs

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a console-formatted zerolog.Logger at the given level
// ("debug", "info", "warn", "error"; defaults to "info" if unknown).
func New(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return zerolog.New(console).Level(lvl).With().Timestamp().Logger()
}
