// Package sdunit reads the state of a systemd unit over D-Bus.
package sdunit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var ErrUnsupported = errors.New("sdunit: unsupported OS (linux only)")

// Status is the subset of unit properties shown to operators.
type Status struct {
	Unit        string
	Active      string // active, inactive, failed, ...
	Sub         string // running, dead, ...
	Load        string // loaded, not-found, ...
	Description string
	ActiveSince time.Time
	Restarts    uint32
	MainPID     uint32
}

func (s Status) Found() bool { return s.Load != "" && s.Load != "not-found" }

// String is a one-line summary, e.g. "active (running) since 05-02 08:00, 2 restarts".
func (s Status) String() string {
	if !s.Found() {
		return s.Unit + ": not found"
	}
	out := fmt.Sprintf("%s (%s)", s.Active, s.Sub)
	if !s.ActiveSince.IsZero() && s.Active == "active" {
		out += " since " + s.ActiveSince.Format("01-02 15:04")
	}
	if s.Restarts > 0 {
		out += fmt.Sprintf(", %d restarts", s.Restarts)
	}
	return out
}

// UnitName appends ".service" when name has no unit suffix.
func UnitName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, suf := range []string{".service", ".timer", ".socket", ".target", ".path", ".mount"} {
		if strings.HasSuffix(name, suf) {
			return name
		}
	}
	return name + ".service"
}

// Prober memoizes unit status for ttl so chat commands don't hit D-Bus on
// every call.
type Prober struct {
	unit  string
	ttl   time.Duration
	query func(ctx context.Context, unit string) (Status, error)

	mu      sync.Mutex
	last    Status
	expires time.Time
}

const defaultTTL = 10 * time.Second

func NewProber(unit string, ttl time.Duration) *Prober {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Prober{unit: UnitName(unit), ttl: ttl, query: query}
}

func (p *Prober) Unit() string { return p.unit }

// Status returns the cached status while fresh, else queries systemd.
func (p *Prober) Status(ctx context.Context) (Status, error) {
	now := time.Now()
	p.mu.Lock()
	if now.Before(p.expires) {
		st := p.last
		p.mu.Unlock()
		return st, nil
	}
	p.mu.Unlock()

	st, err := p.query(ctx, p.unit)
	if err != nil {
		return Status{}, err
	}
	p.mu.Lock()
	p.last, p.expires = st, now.Add(p.ttl)
	p.mu.Unlock()
	return st, nil
}

// Summary implements the bot's unit reporter.
func (p *Prober) Summary(ctx context.Context) (string, error) {
	st, err := p.Status(ctx)
	if err != nil {
		return "", err
	}
	return st.String(), nil
}

func parseTimestamp(props map[string]interface{}, key string) time.Time {
	if ts, ok := props[key].(uint64); ok && ts > 0 {
		// systemd timestamps are in microseconds since the Unix epoch
		return time.Unix(int64(ts/1_000_000), 0)
	}
	return time.Time{}
}

func stringProp(props map[string]interface{}, key string) string {
	s, _ := props[key].(string)
	return s
}

func uint32Prop(props map[string]interface{}, key string) uint32 {
	v, _ := props[key].(uint32)
	return v
}

func statusFromProps(unit string, unitProps, svcProps map[string]interface{}) Status {
	st := Status{
		Unit:        unit,
		Active:      stringProp(unitProps, "ActiveState"),
		Sub:         stringProp(unitProps, "SubState"),
		Load:        stringProp(unitProps, "LoadState"),
		Description: stringProp(unitProps, "Description"),
		ActiveSince: parseTimestamp(unitProps, "ActiveEnterTimestamp"),
	}
	if svcProps != nil {
		st.Restarts = uint32Prop(svcProps, "NRestarts")
		st.MainPID = uint32Prop(svcProps, "MainPID")
	}
	return st
}

func isNoSuchUnitErr(err error) bool {
	if err == nil {
		return false
	}
	es := err.Error()
	// systemd returns org.freedesktop.systemd1.NoSuchUnit for missing units.
	return strings.Contains(es, "NoSuchUnit") || strings.Contains(es, "not-found")
}
