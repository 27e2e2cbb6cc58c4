package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// Level represents the severity level of a log message
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelColors = map[Level]string{
	DEBUG: "\033[36m",
	INFO:  "\033[32m",
	WARN:  "\033[33m",
	ERROR: "\033[31m",
	FATAL: "\033[35m",
}

var levelPrefixes = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO ",
	WARN:  "WARN ",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// Logger is a levelled logger that prefixes every line with time, level and
// the calling file:line.
type Logger struct {
	lk        sync.Mutex
	level     Level
	logger    *log.Logger
	file      *os.File
	useColors bool

	// exit is replaced in tests so FATAL can be observed.
	exit func(int)
}

// ParseLevel maps a level name to a Level. Unknown names map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

func (l Level) String() string {
	return strings.TrimSpace(levelPrefixes[l])
}

// NewLogger creates a console logger with the given level. Colours are only
// enabled when stdout is a terminal.
func NewLogger(levelStr string) *Logger {
	l := &Logger{
		level:  ParseLevel(levelStr),
		logger: log.New(colorable.NewColorableStdout(), "", 0),
		exit:   os.Exit,
	}

	fd := os.Stdout.Fd()
	l.useColors = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)

	return l
}

// NewFileLogger creates a logger that writes only to the given file.
func NewFileLogger(levelStr, filePath string) (*Logger, error) {
	file, err := openLogFile(filePath)
	if err != nil {
		return nil, err
	}

	l := NewLogger(levelStr)
	l.logger.SetOutput(file)
	l.file = file
	l.useColors = false

	return l, nil
}

// NewMultiLogger creates a logger that writes to both console and file.
func NewMultiLogger(levelStr, filePath string) (*Logger, error) {
	file, err := openLogFile(filePath)
	if err != nil {
		return nil, err
	}

	l := NewLogger(levelStr)
	l.logger.SetOutput(io.MultiWriter(colorable.NewColorableStdout(), file))
	l.file = file

	return l, nil
}

func openLogFile(filePath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, errors.Wrap(err, "creating log directory")
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "opening log file")
	}
	return file, nil
}

func (l *Logger) output(level Level, msg string) {
	l.lk.Lock()
	defer l.lk.Unlock()

	if level < l.level {
		return
	}

	// output <- log/logf <- exported method <- caller
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		file = "unknown"
		line = 0
	}

	now := time.Now().Format("2006/01/02 15:04:05")
	prefix := fmt.Sprintf("%s [%s] %s:%d:", now, levelPrefixes[level], filepath.Base(file), line)

	if l.useColors {
		prefix = levelColors[level] + prefix + "\033[0m"
	}

	l.logger.Println(prefix, msg)

	if level == FATAL {
		if l.file != nil {
			l.file.Close()
			l.file = nil
		}
		l.exit(1)
	}
}

func (l *Logger) log(level Level, v ...interface{}) {
	l.output(level, fmt.Sprint(v...))
}

func (l *Logger) logf(level Level, format string, v ...interface{}) {
	l.output(level, fmt.Sprintf(format, v...))
}

func (l *Logger) Debug(v ...interface{}) { l.log(DEBUG, v...) }

func (l *Logger) Debugf(format string, v ...interface{}) { l.logf(DEBUG, format, v...) }

func (l *Logger) Info(v ...interface{}) { l.log(INFO, v...) }

func (l *Logger) Infof(format string, v ...interface{}) { l.logf(INFO, format, v...) }

func (l *Logger) Warn(v ...interface{}) { l.log(WARN, v...) }

func (l *Logger) Warnf(format string, v ...interface{}) { l.logf(WARN, format, v...) }

func (l *Logger) Error(v ...interface{}) { l.log(ERROR, v...) }

func (l *Logger) Errorf(format string, v ...interface{}) { l.logf(ERROR, format, v...) }

// Fatal logs and exits the program
func (l *Logger) Fatal(v ...interface{}) { l.log(FATAL, v...) }

// Fatalf logs and exits the program
func (l *Logger) Fatalf(format string, v ...interface{}) { l.logf(FATAL, format, v...) }

func (l *Logger) SetLevel(levelStr string) {
	l.lk.Lock()
	defer l.lk.Unlock()
	l.level = ParseLevel(levelStr)
}

func (l *Logger) Level() Level {
	l.lk.Lock()
	defer l.lk.Unlock()
	return l.level
}

// SetOutput sets the output writer for the logger
func (l *Logger) SetOutput(w io.Writer) {
	l.lk.Lock()
	defer l.lk.Unlock()
	l.logger.SetOutput(w)
}

func (l *Logger) EnableColors(enable bool) {
	l.lk.Lock()
	defer l.lk.Unlock()
	l.useColors = enable
}

// Close closes the logger's file if it exists
func (l *Logger) Close() {
	l.lk.Lock()
	defer l.lk.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

// Discard returns a logger that drops everything. Used by tests and by
// components constructed without a logger.
func Discard() *Logger {
	l := NewLogger("debug")
	l.logger.SetOutput(io.Discard)
	l.useColors = false
	return l
}
