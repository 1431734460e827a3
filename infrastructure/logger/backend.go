package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

// Flags to modify Backend's behavior.
const (
	// LogFlagLongFile includes the full path and line number of the
	// logging callsite, e.g. /a/b/c/main.go:123.
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile includes the filename and line number of the
	// logging callsite, e.g. main.go:123. Takes precedence over LogFlagLongFile.
	LogFlagShortFile
)

const (
	defaultThresholdKB = 100 * 1000 // 100 MB
	defaultMaxRolls    = 8
	writeChanBuffer    = 256
)

// defaultFlags is read from the LOGFLAGS environment variable, e.g.
// LOGFLAGS=shortfile.
var defaultFlags = flagsFromEnv(os.Getenv("LOGFLAGS"))

func flagsFromEnv(value string) uint32 {
	var flags uint32
	for _, flag := range strings.Split(value, ",") {
		switch strings.TrimSpace(flag) {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return flags
}

type logWriter struct {
	io.WriteCloser
	level Level
}

// Backend is a logging backend. Subsystem loggers created from the backend
// hand their entries to a single goroutine which fans them out to every
// registered writer whose level permits it.
type Backend struct {
	flags     uint32
	isRunning uint32
	writers   []logWriter
	writeChan chan logEntry
	done      sync.WaitGroup

	closeLock sync.RWMutex
	closed    bool
}

// NewBackend creates a new logger backend using the flags found in LOGFLAGS.
func NewBackend() *Backend {
	return NewBackendWithFlags(defaultFlags)
}

// NewBackendWithFlags creates a new logger backend with the given flags.
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{
		flags:     flags,
		writeChan: make(chan logEntry, writeChanBuffer),
	}
}

// AddLogWriter registers an io.WriteCloser that receives every entry at or
// above logLevel. Writers can only be added before Run is called.
func (b *Backend) AddLogWriter(writer io.WriteCloser, logLevel Level) error {
	if b.IsRunning() {
		return errors.New("the logger is already running")
	}
	b.writers = append(b.writers, logWriter{WriteCloser: writer, level: logLevel})
	return nil
}

// AddLogFile registers a rotating log file with the default rotation
// settings. The file and its directory are created if missing.
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	return b.AddLogFileWithCustomRotator(logFile, logLevel, defaultThresholdKB, defaultMaxRolls)
}

// AddLogFileWithCustomRotator registers a rotating log file with the given
// rotation settings.
func (b *Backend) AddLogFileWithCustomRotator(logFile string, logLevel Level, thresholdKB int64, maxRolls int) error {
	if b.IsRunning() {
		return errors.New("the logger is already running")
	}
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", logDir)
		}
	}
	r, err := rotator.New(logFile, thresholdKB, false, maxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create file rotator for %s", logFile)
	}
	b.writers = append(b.writers, logWriter{WriteCloser: r, level: logLevel})
	return nil
}

// Run starts the goroutine that drains log entries. It must be called once.
func (b *Backend) Run() error {
	if !atomic.CompareAndSwapUint32(&b.isRunning, 0, 1) {
		return errors.New("the logger is already running")
	}
	b.done.Add(1)
	go func() {
		defer b.done.Done()
		defer func() {
			if err := recover(); err != nil {
				fmt.Fprintf(os.Stderr, "Fatal error in logger.Backend goroutine: %+v\n", err)
				fmt.Fprintf(os.Stderr, "Goroutine stacktrace: %s\n", debug.Stack())
			}
		}()
		for entry := range b.writeChan {
			for _, writer := range b.writers {
				if entry.level >= writer.level {
					_, _ = writer.Write(entry.line)
				}
			}
		}
	}()
	return nil
}

// IsRunning returns whether Run has been called.
func (b *Backend) IsRunning() bool {
	return atomic.LoadUint32(&b.isRunning) != 0
}

// Close flushes pending entries and closes every writer. Entries logged
// after Close are dropped.
func (b *Backend) Close() {
	b.closeLock.Lock()
	if b.closed {
		b.closeLock.Unlock()
		return
	}
	b.closed = true
	close(b.writeChan)
	b.closeLock.Unlock()

	b.done.Wait()
	for _, writer := range b.writers {
		_ = writer.Close()
	}
}

// write hands an entry to the draining goroutine. Entries are dropped while
// the backend is not running.
func (b *Backend) write(entry logEntry) {
	b.closeLock.RLock()
	defer b.closeLock.RUnlock()
	if b.closed || !b.IsRunning() {
		return
	}
	b.writeChan <- entry
}

// Logger returns a new logger for a subsystem that writes to b. The tag is
// included in every message. New loggers are at LevelInfo.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{level: uint32(LevelInfo), tag: subsystemTag, backend: b}
}
