package timeline

import (
	"fmt"
	"strings"
	"time"
)

// InvertedPolicy decides what happens to intervals whose end precedes
// their start.
type InvertedPolicy string

const (
	// InvertedKeep passes the interval through untouched; its negative
	// duration is aggregated like any other.
	InvertedKeep InvertedPolicy = "keep"
	// InvertedFlag keeps the interval but marks it Inverted, which
	// excludes it from duration aggregates.
	InvertedFlag InvertedPolicy = "flag"
	// InvertedDrop removes the interval during normalization.
	InvertedDrop InvertedPolicy = "drop"
	// InvertedRollover moves the end to the next day (runs that cross
	// midnight).
	InvertedRollover InvertedPolicy = "rollover"
)

func ParseInvertedPolicy(s string) (InvertedPolicy, error) {
	switch p := InvertedPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return InvertedFlag, nil
	case InvertedKeep, InvertedFlag, InvertedDrop, InvertedRollover:
		return p, nil
	default:
		return "", fmt.Errorf("unknown inverted policy %q (keep|flag|drop|rollover)", s)
	}
}

// DefaultKnownWorkspaces get ordinal-based categories; any other workspace
// is its own category.
var DefaultKnownWorkspaces = []string{"MAM", "MAC"}

// Options tune normalization and view building. The zero value is usable.
type Options struct {
	Location        *time.Location
	DayFirst        bool
	Inverted        InvertedPolicy
	Overlap         OverlapMode
	KnownWorkspaces []string
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Inverted == "" {
		o.Inverted = InvertedFlag
	}
	if o.Overlap == "" {
		o.Overlap = OverlapSweep
	}
	if o.KnownWorkspaces == nil {
		o.KnownWorkspaces = DefaultKnownWorkspaces
	}
	return o
}
