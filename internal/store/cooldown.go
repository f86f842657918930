package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/i474232898/wx-forecast/internal/weather"
)

// ErrNotFound is returned when no usable cooldown marker exists.
var ErrNotFound = errors.New("no cooldown marker")

// DefaultCooldown is the minimum age of the last upstream timestamp before a
// new query may run.
const DefaultCooldown = time.Hour

var cooldownLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// CooldownFile persists the cooldown marker as a single ISO-8601 line.
type CooldownFile struct {
	path string
}

func NewCooldownFile(path string) *CooldownFile {
	return &CooldownFile{path: path}
}

// Path returns the marker location.
func (c *CooldownFile) Path() string {
	return c.path
}

// Load returns the stored timestamp. Missing or malformed content yields
// ErrNotFound. Timestamps without an offset are read as UTC.
func (c *CooldownFile) Load() (time.Time, error) {
	b, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("read %s: %w", c.path, err)
	}
	ts, ok := ParseTimestamp(string(b))
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unparsable content in %s", ErrNotFound, c.path)
	}
	return ts, nil
}

// Save overwrites the marker with ts, keeping ts's offset and writing a zero
// offset as +00:00 rather than Z.
func (c *CooldownFile) Save(ts time.Time) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", c.path, err)
	}
	if err := os.WriteFile(c.path, []byte(FormatTimestamp(ts)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.path, err)
	}
	return nil
}

// FormatTimestamp renders ts as ISO-8601 with a numeric offset.
func FormatTimestamp(ts time.Time) string {
	return ts.Format("2006-01-02T15:04:05-07:00")
}

// ParseTimestamp accepts ISO-8601 timestamps with or without an offset.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range cooldownLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// CooldownGate decides whether a run may query the service.
type CooldownGate struct {
	state  weather.CooldownStore
	window time.Duration
}

func NewCooldownGate(state weather.CooldownStore, window time.Duration) *CooldownGate {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &CooldownGate{state: state, window: window}
}

// IsOnCooldown reports whether the stored timestamp is newer than now minus
// the window. A missing or unreadable marker never blocks a run.
func (g *CooldownGate) IsOnCooldown(now time.Time) bool {
	last, err := g.state.Load()
	if err != nil {
		return false
	}
	return last.After(now.Add(-g.window))
}

// Remaining returns how long the gate stays closed, zero when open.
func (g *CooldownGate) Remaining(now time.Time) time.Duration {
	last, err := g.state.Load()
	if err != nil {
		return 0
	}
	if d := last.Add(g.window).Sub(now); d > 0 {
		return d
	}
	return 0
}
