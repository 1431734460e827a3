package logger

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

type logEntry struct {
	line  []byte
	level Level
}

// Logger is a subsystem logger bound to a Backend. Its level may be changed
// concurrently with logging.
type Logger struct {
	level   uint32
	tag     string
	backend *Backend
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.level))
}

// SetLevel changes the logging level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.level, uint32(level))
}

// Backend returns the backend this logger writes to.
func (l *Logger) Backend() *Backend {
	return l.backend
}

// Tracef formats and logs a message at LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.Writef(LevelTrace, format, args...)
}

// Debugf formats and logs a message at LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Writef(LevelDebug, format, args...)
}

// Infof formats and logs a message at LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Writef(LevelInfo, format, args...)
}

// Warnf formats and logs a message at LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Writef(LevelWarn, format, args...)
}

// Errorf formats and logs a message at LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Writef(LevelError, format, args...)
}

// Criticalf formats and logs a message at LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.Writef(LevelCritical, format, args...)
}

// Trace logs its arguments at LevelTrace.
func (l *Logger) Trace(args ...interface{}) {
	l.Write(LevelTrace, args...)
}

// Info logs its arguments at LevelInfo.
func (l *Logger) Info(args ...interface{}) {
	l.Write(LevelInfo, args...)
}

// Writef formats and logs a message at the given level.
func (l *Logger) Writef(level Level, format string, args ...interface{}) {
	if level < l.Level() {
		return
	}
	l.print(level, fmt.Sprintf(format, args...))
}

// Write logs its arguments at the given level.
func (l *Logger) Write(level Level, args ...interface{}) {
	if level < l.Level() {
		return
	}
	l.print(level, fmt.Sprint(args...))
}

func (l *Logger) print(level Level, message string) {
	buf := bytes.Buffer{}
	buf.Grow(len(message) + 64)
	buf.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	buf.WriteString(" [")
	buf.WriteString(level.String())
	buf.WriteString("] ")
	buf.WriteString(l.tag)
	buf.WriteString(": ")
	if l.backend.flags&(LogFlagShortFile|LogFlagLongFile) != 0 {
		buf.WriteString(callsite(l.backend.flags))
		buf.WriteString(" ")
	}
	buf.WriteString(strings.TrimRight(message, "\n"))
	buf.WriteByte('\n')
	l.backend.write(logEntry{line: buf.Bytes(), level: level})
}

// callsite returns file:line of the caller outside of this package.
func callsite(flags uint32) string {
	const depth = 4
	_, file, line, ok := runtime.Caller(depth)
	if !ok {
		return "???:0"
	}
	if flags&LogFlagShortFile != 0 {
		file = file[strings.LastIndexByte(file, os.PathSeparator)+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}
