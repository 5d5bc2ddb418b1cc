// Package prayer implements time-of-day matching against the daily prayer
// timetable: clock parsing, next-prayer lookup, and countdowns.
//
// Prayer names are a fixed enumeration, not string keys. Sunrise is carried
// for display but excluded from next-prayer matching and adhan triggering.
package prayer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Name identifies one of the canonical timetable entries.
type Name int

const (
	Fajr Name = iota
	Sunrise
	Dhuhr
	Asr
	Maghrib
	Isha

	numNames
)

var names = [numNames]string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"}

func (n Name) String() string {
	if n < 0 || n >= numNames {
		return fmt.Sprintf("Name(%d)", int(n))
	}
	return names[n]
}

// Notifiable reports whether this entry participates in next-prayer matching
// and adhan notifications. Sunrise is informational only.
func (n Name) Notifiable() bool { return n != Sunrise }

// ParseName maps a provider timing key to a Name. Unrecognized keys
// (Midnight, Imsak, ...) return ok=false and are ignored by callers.
func ParseName(s string) (Name, bool) {
	for i, name := range names {
		if strings.EqualFold(s, name) {
			return Name(i), true
		}
	}
	return 0, false
}

// Daily returns the five notifiable prayers in canonical scan order.
func Daily() []Name {
	return []Name{Fajr, Dhuhr, Asr, Maghrib, Isha}
}

// All returns every timetable entry in display order, Sunrise included.
func All() []Name {
	return []Name{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}
}

// --------------------------------------------------------------------------
// Clock — minutes since local midnight
// --------------------------------------------------------------------------

// Clock is a time of day in minutes since midnight, local to wherever the
// timetable was computed. Valid range [0, 1440).
type Clock int

const MinutesPerDay = 24 * 60

// ParseClock parses "HH:MM", tolerating a parenthetical timezone annotation
// such as "05:12 (BST)" which some providers append and which must be
// stripped before comparison.
func ParseClock(s string) (Clock, error) {
	raw := s
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("malformed time %q", raw)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("malformed time %q: %w", raw, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("malformed time %q: %w", raw, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", raw)
	}
	return Clock(h*60 + m), nil
}

// ClockOf converts a wall-clock instant to minutes since midnight in t's
// location.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// --------------------------------------------------------------------------
// Timetable
// --------------------------------------------------------------------------

// Timetable holds one day's prayer times. Entries that failed to parse are
// simply absent and skipped by the scan.
type Timetable struct {
	times [numNames]Clock
	set   [numNames]bool
}

// Set records the time for an entry.
func (tt *Timetable) Set(n Name, c Clock) {
	if n < 0 || n >= numNames {
		return
	}
	tt.times[n] = c
	tt.set[n] = true
}

// Get returns the time for an entry and whether it is present.
func (tt *Timetable) Get(n Name) (Clock, bool) {
	if n < 0 || n >= numNames {
		return 0, false
	}
	return tt.times[n], tt.set[n]
}

// Empty reports whether no notifiable entry is present.
func (tt *Timetable) Empty() bool {
	for _, n := range Daily() {
		if tt.set[n] {
			return false
		}
	}
	return true
}

// FromTimings builds a timetable from a provider's name→"HH:MM" map.
// Malformed entries are skipped and reported back so callers can log them;
// a partial table is still usable.
func FromTimings(timings map[string]string) (Timetable, []error) {
	var tt Timetable
	var errs []error
	for key, value := range timings {
		n, ok := ParseName(key)
		if !ok {
			continue
		}
		c, err := ParseClock(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		tt.Set(n, c)
	}
	return tt, errs
}

// --------------------------------------------------------------------------
// Next-prayer matching
// --------------------------------------------------------------------------

// Next is the derived next-prayer result.
type Next struct {
	Name     Name
	Time     Clock
	Tomorrow bool
}

// NextAfter scans the five canonical prayers in fixed order and returns the
// first whose time is strictly after now. An exact match counts as already
// passed. When every prayer has passed, the result wraps to tomorrow's Fajr.
// ok is false only for a table with no usable entries.
func NextAfter(tt Timetable, now Clock) (Next, bool) {
	for _, n := range Daily() {
		t, present := tt.Get(n)
		if present && t > now {
			return Next{Name: n, Time: t}, true
		}
	}
	if t, present := tt.Get(Fajr); present {
		return Next{Name: Fajr, Time: t, Tomorrow: true}, true
	}
	// Fajr itself failed to parse: wrap to the earliest present prayer.
	for _, n := range Daily() {
		if t, present := tt.Get(n); present {
			return Next{Name: n, Time: t, Tomorrow: true}, true
		}
	}
	return Next{}, false
}

// Until returns the duration from now until target. A negative result means
// the target has passed today; display layers treat that as "passed" while
// schedulers add a day via Next.Tomorrow.
func Until(target, now Clock) time.Duration {
	return time.Duration(target-now) * time.Minute
}

// Until returns the countdown from now to this result, adding 24h for the
// wrap-to-tomorrow case so the value is never negative.
func (n Next) Until(now Clock) time.Duration {
	d := Until(n.Time, now)
	if n.Tomorrow {
		d += MinutesPerDay * time.Minute
	}
	return d
}
