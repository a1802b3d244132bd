package events

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// ConsoleSink renders events as timestamped lines for a terminal.
// Running-progress updates are only shown when Verbose is set.
type ConsoleSink struct {
	w           io.Writer
	colorOutput bool
	Verbose     bool
	now         func() time.Time
}

// NewConsoleSink writes to w, with color when w is a terminal.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) && !color.NoColor
	}
	return &ConsoleSink{w: w, colorOutput: useColor, now: time.Now}
}

func (c *ConsoleSink) stamp() string {
	return c.now().Format("15:04:05")
}

func (c *ConsoleSink) paint(attr color.Attribute, s string) string {
	if !c.colorOutput {
		return s
	}
	return color.New(attr).Sprint(s)
}

func (c *ConsoleSink) Log(level Level, message string) {
	tag := fmt.Sprintf("[%s]", level)
	switch level {
	case LevelSuccess:
		tag = c.paint(color.FgGreen, tag)
	case LevelWarning:
		tag = c.paint(color.FgYellow, tag)
	case LevelError:
		tag = c.paint(color.FgRed, tag)
	}
	fmt.Fprintf(c.w, "[%s] %s %s\n", c.stamp(), tag, message)
}

func (c *ConsoleSink) TaskStatus(u StatusUpdate) {
	switch u.Status {
	case tasks.StatusRunning:
		if !c.Verbose || u.Phase == "" {
			return
		}
		fmt.Fprintf(c.w, "[%s] %s %3d%% %s %s\n", c.stamp(), u.Key, u.Progress, u.Phase, u.Text)
	case tasks.StatusSuccess:
		fmt.Fprintf(c.w, "[%s] %s %s\n", c.stamp(), c.paint(color.FgGreen, "done"), u.Key)
	case tasks.StatusFail:
		fmt.Fprintf(c.w, "[%s] %s %s: %s\n", c.stamp(), c.paint(color.FgRed, "failed"), u.Key, u.Text)
	}
}

func (c *ConsoleSink) Overall(completed, total int) {
	if total == 0 {
		return
	}
	fmt.Fprintf(c.w, "[%s] progress %d/%d (%d%%)\n", c.stamp(), completed, total, completed*100/total)
}
