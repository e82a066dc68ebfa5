// Package pipelog provides the small logging conventions shared by the three
// pipeline stages: a stage-scoped *log.Logger and a banner helper used to
// bracket batch reports in the log output.
package pipelog

import (
	"log"
	"os"
	"strings"
)

// New builds a logger prefixed with the stage name, writing to stderr like
// the rest of the pipeline's stdlib-based services.
func New(stage string) *log.Logger {
	return log.New(os.Stderr, "["+stage+"] ", log.LstdFlags)
}

// Banner prints a horizontal rule with an optional centered header, mirroring
// the `hline` helper the source pipeline used to bracket batch reports.
func Banner(logger *log.Logger, header string) {
	const width = 80
	const ch = "-"
	if header == "" {
		logger.Print(strings.Repeat(ch, width))
		return
	}
	h := " " + header + " "
	half := (width - len(h)) / 2
	if half < 0 {
		half = 0
	}
	logger.Print(strings.Repeat(ch, half) + h + strings.Repeat(ch, half))
}
