package logger

import (
	"strings"

	"github.com/pkg/errors"
)

// Level is the verbosity a logger is configured with. Messages sent below
// the configured level are filtered out.
type Level uint8

// Level constants, ordered from most to least verbose.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

// levelNames maps each level to its flag name and to the marker written
// into log lines.
var levelNames = [...]struct {
	name string
	tag  string
}{
	{"trace", "TRC"},
	{"debug", "DBG"},
	{"info", "INF"},
	{"warn", "WRN"},
	{"error", "ERR"},
	{"critical", "CRT"},
	{"off", "OFF"},
}

// ParseLevel interprets a level flag value. Both the full name and the
// three-letter log line marker are accepted, in any casing.
func ParseLevel(s string) (Level, error) {
	for level, names := range levelNames {
		if strings.EqualFold(s, names.name) || strings.EqualFold(s, names.tag) {
			return Level(level), nil
		}
	}
	return LevelOff, errors.Errorf("unknown log level %q", s)
}

// String returns the level's flag name.
func (l Level) String() string {
	if int(l) >= len(levelNames) {
		return levelNames[LevelOff].name
	}
	return levelNames[l].name
}

// tag returns the marker written into log lines of this level.
func (l Level) tag() string {
	if int(l) >= len(levelNames) {
		return levelNames[LevelOff].tag
	}
	return levelNames[l].tag
}
