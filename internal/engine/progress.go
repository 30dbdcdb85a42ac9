package engine

import "fmt"

// Unit is the physical unit a Progress value is measured in.
type Unit int

const (
	// UnitScalar is a dimensionless count.
	UnitScalar Unit = iota
	// UnitPercent is a value in [0,100] representing completion percentage.
	UnitPercent
	// UnitBytes counts bytes transferred or processed.
	UnitBytes
	// UnitSeconds counts elapsed seconds.
	UnitSeconds
)

// Symbol returns the short display suffix for the unit.
func (u Unit) Symbol() string {
	switch u {
	case UnitPercent:
		return "%"
	case UnitBytes:
		return "B"
	case UnitSeconds:
		return "sec"
	default:
		return ""
	}
}

func (u Unit) String() string {
	switch u {
	case UnitPercent:
		return "percent"
	case UnitBytes:
		return "bytes"
	case UnitSeconds:
		return "seconds"
	default:
		return "scalar"
	}
}

// Progress is a numeric progress tuple: a current value clamped to
// [Min,Max], a unit, an optional label, and a monotonic change counter.
//
// The counter only advances when Set actually changes the value — this
// lets consumers detect staleness cheaply by comparing counters instead of
// values.
type Progress struct {
	value   float64
	min     float64
	max     float64
	unit    Unit
	label   string
	counter uint32
}

// defaultMax mirrors the reference implementation's default progress range,
// which is effectively unbounded until an operation narrows it.
const defaultMax = 999999999999.0

// NewProgress creates a Progress value ranging over [min,max] in the given
// unit, starting at min.
func NewProgress(min, max float64, unit Unit) Progress {
	return Progress{value: min, min: min, max: max, unit: unit}
}

// NewProgressWithLabel is NewProgress with an attached human-readable label
// (e.g. a file name being copied).
func NewProgressWithLabel(min, max float64, unit Unit, label string) Progress {
	p := NewProgress(min, max, unit)
	p.label = label
	return p
}

// DefaultProgress is the zero-value progress range used by operations that
// never call NextProgress themselves.
func DefaultProgress() Progress {
	return Progress{value: 0, min: 0, max: defaultMax, unit: UnitScalar}
}

// Value reports the current progress value.
func (p *Progress) Value() float64 { return p.value }

// Min reports the lower bound.
func (p *Progress) Min() float64 { return p.min }

// Max reports the upper bound.
func (p *Progress) Max() float64 { return p.max }

// UnitOf reports the measurement unit.
func (p *Progress) UnitOf() Unit { return p.unit }

// Label reports the optional label, or "" if unset.
func (p *Progress) Label() string { return p.label }

// Counter reports the monotonic change counter.
func (p *Progress) Counter() uint32 { return p.counter }

// IsDone reports whether the value has reached Max.
func (p *Progress) IsDone() bool { return p.value >= p.max }

// Set clamps value into [Min,Max] and, if that changes the stored value,
// advances the counter and returns true. A no-op Set (value unchanged)
// returns false and leaves the counter untouched, preserving the
// "counter never decreases, only advances on real change" invariant.
func (p *Progress) Set(value float64) bool {
	if value > p.max {
		value = p.max
	} else if value < p.min {
		value = p.min
	}
	if value != p.value {
		p.value = value
		p.counter++
		return true
	}
	return false
}

// SetDone clamps the value to Max, marking the range complete.
func (p *Progress) SetDone() bool { return p.Set(p.max) }

func (p Progress) String() string {
	return fmt.Sprintf("%.2f/%.2f%s", p.value, p.max, p.unit.Symbol())
}

// ProgressUpdate is the message an OperationImpl.NextProgress hook returns:
// either a new value to merge into the operation's Progress, or the "done"
// marker signalling no more progress will be reported.
type ProgressUpdate struct {
	done  bool
	value float64
}

// NewProgressUpdate reports a new progress value.
func NewProgressUpdate(value float64) ProgressUpdate {
	return ProgressUpdate{value: value}
}

// ProgressDone is the terminal marker returned once an operation has no
// further progress to report. The default NextProgress implementation
// returns exactly this, so operations with no intermediate progress
// transition Init -> Done in one step.
func ProgressDone() ProgressUpdate {
	return ProgressUpdate{done: true}
}

// IsDone reports whether this update is the terminal marker.
func (u ProgressUpdate) IsDone() bool { return u.done }

// Value reports the carried progress value; meaningless if IsDone is true.
func (u ProgressUpdate) Value() float64 { return u.value }
