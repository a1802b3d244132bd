// pkg/logging/logging.go - timestamped run logging for the toolkit
//
// Every run gets its own directory under the configured base directory
// (YYYY-MM-DD-HHMMss). Inside it:
// - toolkit.log   plain text, one line per message
// - events.jsonl  one JSON object per message
// - session.yaml  YAML mirror of the same entries
// Old run directories are pruned according to the retention policy.

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a LogLevel. Unknown values give LevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "debug", "trace":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// LogEntry is the structured form written to the JSON and YAML mirrors.
type LogEntry struct {
	Time       int64                  `json:"time" yaml:"time"`
	Timestamp  string                 `json:"timestamp" yaml:"timestamp"`
	Level      string                 `json:"level" yaml:"level"`
	Message    string                 `json:"message" yaml:"message"`
	Component  string                 `json:"component" yaml:"component"`
	PID        int64                  `json:"pid" yaml:"pid"`
	Hostname   string                 `json:"hostname" yaml:"hostname"`
	SessionID  string                 `json:"session_id" yaml:"session_id"`
	Properties map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// RetentionPolicy defines how many run directories survive pruning.
type RetentionPolicy struct {
	KeepRuns   int // Keep the newest N run directories
	MaxAgeDays int // Delete run directories older than this
}

// DefaultRetentionPolicy returns the retention used when none is configured.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{KeepRuns: 20, MaxAgeDays: 30}
}

// Options configures the run logger.
type Options struct {
	BaseDir   string
	Component string
	Level     LogLevel
	Retention RetentionPolicy
	// Console receives the human readable line as well. Nil disables it.
	Console io.Writer
	// Structured enables events.jsonl and session.yaml.
	Structured bool
}

// Logger writes one run's log files.
type Logger struct {
	mu        sync.Mutex
	opts      Options
	level     LogLevel
	logDir    string
	sessionID string
	hostname  string
	started   time.Time

	mainFile *os.File
	jsonFile *os.File
	yamlFile *os.File
	console  *consoleWriter
}

var (
	instance *Logger
	once     sync.Once
	instMu   sync.RWMutex
)

// Init creates the process wide logger. Only the first call has effect.
func Init(opts Options) error {
	var initErr error
	once.Do(func() {
		var l *Logger
		l, initErr = New(opts)
		if initErr == nil {
			setInstance(l)
		}
	})
	return initErr
}

func setInstance(l *Logger) {
	instMu.Lock()
	instance = l
	instMu.Unlock()
}

func current() *Logger {
	instMu.RLock()
	defer instMu.RUnlock()
	return instance
}

// New creates a Logger with its own timestamped run directory.
func New(opts Options) (*Logger, error) {
	if opts.BaseDir == "" {
		return nil, fmt.Errorf("log base directory is empty")
	}
	if opts.Component == "" {
		opts.Component = "playertoolkit"
	}
	if opts.Retention == (RetentionPolicy{}) {
		opts.Retention = DefaultRetentionPolicy()
	}

	started := time.Now()
	logDir, err := createRunDir(opts.BaseDir, started)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	l := &Logger{
		opts:      opts,
		level:     opts.Level,
		logDir:    logDir,
		sessionID: uuid.NewString(),
		hostname:  hostname,
		started:   started,
	}
	if opts.Console != nil {
		l.console = newConsoleWriter(opts.Console)
	}

	if err := l.openFiles(); err != nil {
		l.Close()
		return nil, err
	}

	pruneRunDirs(opts.BaseDir, opts.Retention, started, filepath.Base(logDir))
	return l, nil
}

func createRunDir(baseDir string, t time.Time) (string, error) {
	dir := filepath.Join(baseDir, t.Format(runDirLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run log directory %s: %w", dir, err)
	}
	return dir, nil
}

func (l *Logger) openFiles() error {
	var err error
	open := func(name string) (*os.File, error) {
		return os.OpenFile(filepath.Join(l.logDir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	}

	if l.mainFile, err = open("toolkit.log"); err != nil {
		return fmt.Errorf("failed to open main log file: %w", err)
	}
	if !l.opts.Structured {
		return nil
	}
	if l.jsonFile, err = open("events.jsonl"); err != nil {
		return fmt.Errorf("failed to open JSON log file: %w", err)
	}
	if l.yamlFile, err = open("session.yaml"); err != nil {
		return fmt.Errorf("failed to open YAML log file: %w", err)
	}
	return nil
}

// Dir returns the run directory.
func (l *Logger) Dir() string { return l.logDir }

// SessionID returns the run's unique identifier.
func (l *Logger) SessionID() string { return l.sessionID }

// SetLevel changes the minimum level written.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Log writes message with optional key/value pairs.
func (l *Logger) Log(level LogLevel, message string, keyValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level > l.level || l.mainFile == nil {
		return
	}

	props := make(map[string]interface{}, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		props[fmt.Sprintf("%v", keyValues[i])] = keyValues[i+1]
	}

	now := time.Now()
	entry := LogEntry{
		Time:       now.Unix(),
		Timestamp:  now.Format(time.RFC3339),
		Level:      level.String(),
		Message:    message,
		Component:  l.opts.Component,
		PID:        int64(os.Getpid()),
		Hostname:   l.hostname,
		SessionID:  l.sessionID,
		Properties: props,
	}

	line := formatLine(now, level, message, keyValues)
	_, _ = l.mainFile.WriteString(line + "\n")
	if l.console != nil {
		l.console.write(level, line)
	}
	if l.jsonFile != nil {
		if data, err := json.Marshal(entry); err == nil {
			_, _ = l.jsonFile.Write(append(data, '\n'))
		}
	}
	if l.yamlFile != nil {
		if data, err := yaml.Marshal(entry); err == nil {
			_, _ = l.yamlFile.WriteString("---\n" + string(data))
		}
	}
}

// formatLine renders the plain text form. Long key/value lists go on
// indented continuation lines.
func formatLine(t time.Time, level LogLevel, message string, keyValues []interface{}) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %-5s %s", t.Format("2006-01-02 15:04:05"), level.String(), message)
	multiline := len(keyValues)/2 > 4
	for i := 0; i+1 < len(keyValues); i += 2 {
		if multiline {
			fmt.Fprintf(&sb, "\n        %v: %v", keyValues[i], keyValues[i+1])
		} else {
			fmt.Fprintf(&sb, " %v=%v", keyValues[i], keyValues[i+1])
		}
	}
	return sb.String()
}

// WriteArtifact stores v as indented JSON in the run directory.
func (l *Logger) WriteArtifact(name string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(l.logDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Close flushes and closes all log files.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range []**os.File{&l.mainFile, &l.jsonFile, &l.yamlFile} {
		if *f != nil {
			_ = (*f).Sync()
			_ = (*f).Close()
			*f = nil
		}
	}
}

func logAt(level LogLevel, message string, keyValues ...interface{}) {
	l := current()
	if l == nil {
		if level <= LevelInfo {
			fmt.Fprintln(os.Stderr, formatLine(time.Now(), level, message, keyValues))
		}
		return
	}
	l.Log(level, message, keyValues...)
}

// Info logs informational messages.
func Info(message string, keyValues ...interface{}) { logAt(LevelInfo, message, keyValues...) }

// Debug logs debug messages.
func Debug(message string, keyValues ...interface{}) { logAt(LevelDebug, message, keyValues...) }

// Warn logs warning messages.
func Warn(message string, keyValues ...interface{}) { logAt(LevelWarn, message, keyValues...) }

// Error logs error messages.
func Error(message string, keyValues ...interface{}) { logAt(LevelError, message, keyValues...) }

// CurrentLogDir returns the run directory of the process wide logger.
func CurrentLogDir() string {
	if l := current(); l != nil {
		return l.logDir
	}
	return ""
}

// SessionID returns the process wide logger's session identifier.
func SessionID() string {
	if l := current(); l != nil {
		return l.sessionID
	}
	return ""
}

// WriteArtifact stores v in the process wide logger's run directory.
func WriteArtifact(name string, v interface{}) (string, error) {
	l := current()
	if l == nil {
		return "", fmt.Errorf("logging not initialized")
	}
	return l.WriteArtifact(name, v)
}

// CloseLogger closes the process wide logger.
func CloseLogger() {
	if l := current(); l != nil {
		l.Close()
	}
}
