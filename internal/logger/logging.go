// Package logger builds the preconfigured charm loggers the wordcore
// binaries print through, so REPL output and startup banners don't
// disturb the global log level the -v flag controls.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// Default returns the plain logger used for interactive output: no
// timestamps, level follows the global setting.
func Default(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stdout, log.Options{
		Prefix:    prefix,
		Formatter: log.TextFormatter,
		Level:     log.GetLevel(),
	})
}

// Banner returns an info-level logger for startup output. It prints even
// when the global level sits at warn, which saves callers from saving
// and restoring the global level around a banner.
func Banner() *log.Logger {
	return log.NewWithOptions(os.Stdout, log.Options{
		Formatter: log.TextFormatter,
		Level:     log.InfoLevel,
	})
}
