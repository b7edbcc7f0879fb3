package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger is a subsystem logger. All messages are tagged with the
// subsystem's tag and filtered by the logger's level.
type Logger struct {
	mtx     sync.Mutex
	level   Level
	tag     string
	backend *Backend
}

var (
	backendLog = NewBackend()

	registryMtx      sync.Mutex
	subsystemLoggers = make(map[string]*Logger)
)

// RegisterSubSystem returns the logger for the given subsystem tag,
// creating it on first use. Loggers start at the info level until
// SetLogLevels or ParseAndSetLogLevels configures them.
func RegisterSubSystem(tag string) *Logger {
	registryMtx.Lock()
	defer registryMtx.Unlock()
	logger, ok := subsystemLoggers[tag]
	if !ok {
		logger = &Logger{level: LevelInfo, tag: tag, backend: backendLog}
		subsystemLoggers[tag] = logger
	}
	return logger
}

// InitLog attaches log file and error log file to the backend log.
func InitLog(logFile, errLogFile string) error {
	err := backendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		return err
	}
	err = backendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		return err
	}
	return backendLog.AddLogWriter(os.Stdout, LevelInfo)
}

// SetLogLevels sets the logging level for all of the subsystems.
func SetLogLevels(level Level) {
	registryMtx.Lock()
	defer registryMtx.Unlock()
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}

// ParseAndSetLogLevels attempts to parse the specified debug level and
// set the levels accordingly. An appropriate error is returned if
// anything is invalid.
func ParseAndSetLogLevels(level string) error {
	lvl, ok := LevelFromString(level)
	if !ok {
		return fmt.Errorf("the specified debug level [%s] is invalid", level)
	}
	SetLogLevels(lvl)
	return nil
}

// SupportedLevels returns the human-readable names of the supported
// logging levels, for use in usage strings.
func SupportedLevels() []string {
	return []string{"trace", "debug", "info", "warn", "error", "critical", "off"}
}

// Close shuts the logging backend down, flushing any pending writes.
func Close() {
	backendLog.Close()
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.level
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(level Level) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.level = level
}

func (l *Logger) print(level Level, args ...interface{}) {
	if level < l.Level() {
		return
	}
	l.backend.write(level, l.format(level, fmt.Sprint(args...)))
}

func (l *Logger) printf(level Level, format string, args ...interface{}) {
	if level < l.Level() {
		return
	}
	l.backend.write(level, l.format(level, fmt.Sprintf(format, args...)))
}

func (l *Logger) format(level Level, msg string) []byte {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	var builder strings.Builder
	builder.Grow(len(timestamp) + len(msg) + 16)
	builder.WriteString(timestamp)
	builder.WriteString(" [")
	builder.WriteString(level.String())
	builder.WriteString("] ")
	builder.WriteString(l.tag)
	builder.WriteString(": ")
	builder.WriteString(msg)
	builder.WriteString("\n")
	return []byte(builder.String())
}

// Trace formats a message using the default formats for its operands
// and writes to log with LevelTrace.
func (l *Logger) Trace(args ...interface{}) {
	l.print(LevelTrace, args...)
}

// Tracef formats a message according to a format specifier and writes
// to log with LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.printf(LevelTrace, format, args...)
}

// Debug formats a message using the default formats for its operands
// and writes to log with LevelDebug.
func (l *Logger) Debug(args ...interface{}) {
	l.print(LevelDebug, args...)
}

// Debugf formats a message according to a format specifier and writes
// to log with LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.printf(LevelDebug, format, args...)
}

// Info formats a message using the default formats for its operands
// and writes to log with LevelInfo.
func (l *Logger) Info(args ...interface{}) {
	l.print(LevelInfo, args...)
}

// Infof formats a message according to a format specifier and writes
// to log with LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.printf(LevelInfo, format, args...)
}

// Warn formats a message using the default formats for its operands
// and writes to log with LevelWarn.
func (l *Logger) Warn(args ...interface{}) {
	l.print(LevelWarn, args...)
}

// Warnf formats a message according to a format specifier and writes
// to log with LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.printf(LevelWarn, format, args...)
}

// Error formats a message using the default formats for its operands
// and writes to log with LevelError.
func (l *Logger) Error(args ...interface{}) {
	l.print(LevelError, args...)
}

// Errorf formats a message according to a format specifier and writes
// to log with LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.printf(LevelError, format, args...)
}

// Critical formats a message using the default formats for its operands
// and writes to log with LevelCritical.
func (l *Logger) Critical(args ...interface{}) {
	l.print(LevelCritical, args...)
}

// Criticalf formats a message according to a format specifier and writes
// to log with LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.printf(LevelCritical, format, args...)
}
