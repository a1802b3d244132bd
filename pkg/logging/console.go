package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// consoleWriter colors lines by level when the destination is a terminal.
type consoleWriter struct {
	w        io.Writer
	colorize bool
}

func newConsoleWriter(w io.Writer) *consoleWriter {
	cw := &consoleWriter{w: w}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) && !color.NoColor {
		enableVirtualTerminal(f)
		cw.colorize = true
	}
	return cw
}

func (c *consoleWriter) write(level LogLevel, line string) {
	if !c.colorize {
		fmt.Fprintln(c.w, line)
		return
	}
	var attr color.Attribute
	switch level {
	case LevelError:
		attr = color.FgRed
	case LevelWarn:
		attr = color.FgYellow
	case LevelDebug:
		attr = color.FgBlue
	default:
		fmt.Fprintln(c.w, line)
		return
	}
	color.New(attr).Fprintln(c.w, line)
}
