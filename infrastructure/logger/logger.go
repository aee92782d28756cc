package logger

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Logger is a subsystem logger. All messages are tagged with the subsystem
// tag and filtered by the logger's level before reaching the backend.
type Logger struct {
	level   uint32 // Level, used atomically
	tag     string
	backend *Backend
}

// BackendLog is the logging backend used to create all subsystem loggers.
var BackendLog = NewBackend()

var (
	subsystemsMtx sync.Mutex
	subsystems    = make(map[string]*Logger)
)

// RegisterSubSystem returns the logger for the given subsystem tag, creating
// it on the shared backend if it was not registered before.
func RegisterSubSystem(subsystemTag string) *Logger {
	subsystemsMtx.Lock()
	defer subsystemsMtx.Unlock()
	log, ok := subsystems[subsystemTag]
	if !ok {
		log = BackendLog.Logger(subsystemTag)
		subsystems[subsystemTag] = log
	}
	return log
}

// SetLogLevels sets the logging level of all registered subsystems.
func SetLogLevels(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	subsystemsMtx.Lock()
	defer subsystemsMtx.Unlock()
	for _, log := range subsystems {
		log.SetLevel(lvl)
	}
	return nil
}

// Level returns the current logging level of the logger.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.level))
}

// SetLevel changes the logging level of the logger.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.level, uint32(level))
}

// Backend returns the backend this logger writes to.
func (l *Logger) Backend() *Backend {
	return l.backend
}

func (l *Logger) write(lvl Level, args ...interface{}) {
	if lvl < l.Level() {
		return
	}
	l.backend.write(lvl, l.formatEntry(lvl, fmt.Sprint(args...)))
}

func (l *Logger) writef(lvl Level, format string, args ...interface{}) {
	if lvl < l.Level() {
		return
	}
	l.backend.write(lvl, l.formatEntry(lvl, fmt.Sprintf(format, args...)))
}

func (l *Logger) formatEntry(lvl Level, msg string) []byte {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return []byte(fmt.Sprintf("%s [%s] %s: %s\n", timestamp, lvl.tag(), l.tag, msg))
}

// MeasureExecutionTime logs that the named operation has started and
// returns a function to defer that logs how long it took.
func (l *Logger) MeasureExecutionTime(name string) (onEnd func()) {
	start := time.Now()
	l.Debugf("%s start", name)
	return func() {
		l.Debugf("%s finished in %s", name, time.Since(start))
	}
}

// Trace formats a message using the default formats for its operands and
// writes it at the trace level.
func (l *Logger) Trace(args ...interface{}) { l.write(LevelTrace, args...) }

// Tracef formats a message according to a format specifier and writes it at
// the trace level.
func (l *Logger) Tracef(format string, args ...interface{}) { l.writef(LevelTrace, format, args...) }

// Debug formats a message using the default formats for its operands and
// writes it at the debug level.
func (l *Logger) Debug(args ...interface{}) { l.write(LevelDebug, args...) }

// Debugf formats a message according to a format specifier and writes it at
// the debug level.
func (l *Logger) Debugf(format string, args ...interface{}) { l.writef(LevelDebug, format, args...) }

// Info formats a message using the default formats for its operands and
// writes it at the info level.
func (l *Logger) Info(args ...interface{}) { l.write(LevelInfo, args...) }

// Infof formats a message according to a format specifier and writes it at
// the info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.writef(LevelInfo, format, args...) }

// Warn formats a message using the default formats for its operands and
// writes it at the warn level.
func (l *Logger) Warn(args ...interface{}) { l.write(LevelWarn, args...) }

// Warnf formats a message according to a format specifier and writes it at
// the warn level.
func (l *Logger) Warnf(format string, args ...interface{}) { l.writef(LevelWarn, format, args...) }

// Error formats a message using the default formats for its operands and
// writes it at the error level.
func (l *Logger) Error(args ...interface{}) { l.write(LevelError, args...) }

// Errorf formats a message according to a format specifier and writes it at
// the error level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.writef(LevelError, format, args...) }

// Critical formats a message using the default formats for its operands and
// writes it at the critical level.
func (l *Logger) Critical(args ...interface{}) { l.write(LevelCritical, args...) }

// Criticalf formats a message according to a format specifier and writes it
// at the critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) { l.writef(LevelCritical, format, args...) }
