// Package prompt implements the confirmation and file-selection questions a
// run asks the operator.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Console asks on a terminal. Questions are serialized so parallel tasks
// never interleave their prompts.
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewConsole returns a Console reading from in and writing to out. Nil
// values default to stdin and stdout.
func NewConsole(in io.Reader, out io.Writer) *Console {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Console{in: bufio.NewReader(in), out: out}
}

func (c *Console) readLine() (string, bool) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func (c *Console) Confirm(title, message string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n%s\n%s\nContinue? [y/N]: ", title, message)
	answer, ok := c.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "s", "si":
		return true
	}
	return false
}

// SaveAs asks for a destination path. An empty answer takes the suggestion;
// "q" or end of input cancels.
func (c *Console) SaveAs(title, suggested string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n%s\nDestination [%s] (q to cancel): ", title, suggested)
	answer, ok := c.readLine()
	if !ok || strings.EqualFold(answer, "q") {
		return "", false
	}
	if answer == "" {
		answer = suggested
	}
	if answer == "" {
		return "", false
	}
	return answer, true
}

// Fixed answers every question the same way, for unattended runs.
type Fixed struct {
	Answer bool
	// DestDir, when set, receives copy_interactive files under their
	// suggested name.
	DestDir string
}

func (f Fixed) Confirm(title, message string) bool { return f.Answer }

func (f Fixed) SaveAs(title, suggested string) (string, bool) {
	if !f.Answer {
		return "", false
	}
	if f.DestDir != "" {
		return joinBase(f.DestDir, suggested), true
	}
	return suggested, suggested != ""
}

func joinBase(dir, suggested string) string {
	base := suggested
	if i := strings.LastIndexAny(suggested, `/\`); i >= 0 {
		base = suggested[i+1:]
	}
	return strings.TrimRight(dir, `/\`) + string(os.PathSeparator) + base
}
