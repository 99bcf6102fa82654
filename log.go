package edf

import (
	"fmt"
	"log/slog"
)

// pkgLogger receives the library's permissive-read warnings: an EDF+C
// record whose computed start doesn't match its timekeeping annotation,
// and a timekeeping TAL, in any file, that carries a description. A
// timekeeping TAL without a description is not warned about, even in an
// annotations-only file. The core codec never logs anything else.
var pkgLogger = slog.Default()

// SetLogger overrides the logger used for those warnings. Passing nil
// restores the default logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	pkgLogger = l
}

func warn(msg string, args ...interface{}) {
	pkgLogger.Warn(fmt.Sprintf(msg, args...))
}
