// Package logger provides a minimal leveled logger shared by all HarborFTP
// components.
//
// The logger intentionally stays printf-style: control-connection handling is
// chatty at DEBUG level and the hot path must not allocate structured fields
// for messages that are usually filtered out.
package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu           sync.Mutex
	currentLevel = LevelInfo
	out          = stdlog.New(os.Stdout, "", 0)
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SetLevel sets the minimum level that will be emitted. Unknown names are
// ignored and the current level is kept.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel = LevelDebug
	case "INFO":
		currentLevel = LevelInfo
	case "WARN":
		currentLevel = LevelWarn
	case "ERROR":
		currentLevel = LevelError
	}
}

// SetOutput redirects log output. The default is stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = stdlog.New(w, "", 0)
}

func logf(level Level, format string, v ...any) {
	mu.Lock()
	enabled := level >= currentLevel
	sink := out
	mu.Unlock()

	if !enabled {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	prefix := fmt.Sprintf("[%s] [%s] ", timestamp, level.String())
	sink.Println(prefix + fmt.Sprintf(format, v...))
}

func Debug(format string, v ...any) {
	logf(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	logf(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	logf(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	logf(LevelError, format, v...)
}
