package blemidi

import (
	"os"

	"github.com/charmbracelet/log"
)

// defaultLogger is used by any Service constructed with a nil Options.Logger,
// the same way the teacher's text_color_set/dw_printf pair was always
// available without an explicit init call.
var defaultLogger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "blemidi",
	Level:  log.WarnLevel,
})

func loggerOrDefault(l *log.Logger) *log.Logger {
	if l == nil {
		return defaultLogger
	}
	return l
}
