package observability

import (
	"fmt"
	"net/http"
)

// Timing is one Server-Timing entry. A zero Dur or empty Desc is left out.
type Timing struct {
	Name string
	Dur  float64
	Desc string
}

func (t Timing) String() string {
	switch {
	case t.Dur > 0 && t.Desc != "":
		return fmt.Sprintf("%s;dur=%.2f;desc=%q", t.Name, t.Dur, t.Desc)
	case t.Dur > 0:
		return fmt.Sprintf("%s;dur=%.2f", t.Name, t.Dur)
	case t.Desc != "":
		return fmt.Sprintf("%s;desc=%q", t.Name, t.Desc)
	}
	return ""
}

// AddServerTiming appends every non-empty timing as its own header value.
func AddServerTiming(h http.Header, ts ...Timing) {
	for _, t := range ts {
		if v := t.String(); v != "" {
			h.Add("Server-Timing", v)
		}
	}
}

// StampLookup describes a cached read: which tier answered and what each tier cost.
func StampLookup(h http.Header, source string, cacheMs, dbMs float64) {
	AddServerTiming(h,
		Timing{Name: "cache", Dur: cacheMs},
		Timing{Name: "db", Dur: dbMs},
		Timing{Name: "source", Desc: source},
	)
	if source != "" {
		h.Set("X-Source", source)
	}
	setMs(h, "X-Cache-Time", cacheMs)
	setMs(h, "X-DB-Time", dbMs)
}

func setMs(h http.Header, key string, ms float64) {
	if ms > 0 {
		h.Set(key, fmt.Sprintf("%.2f", ms))
	}
}
