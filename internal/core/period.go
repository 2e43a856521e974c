package core

import (
	"fmt"
	"time"
)

// Period is an inclusive [Start, End] window of calendar days.
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

const (
	PresetCurrentMonth = "current-month"
	PresetLast3Months  = "last-3-months"
	PresetLast6Months  = "last-6-months"
	PresetCurrentYear  = "current-year"
)

func NewPeriod(start, end Date) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if err := p.Start.Validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := p.End.Validate(); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if p.End.Before(p.Start.Time) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains reports whether d falls inside the window, both ends included.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start.Time) && !d.After(p.End.Time)
}

// Days returns the number of calendar days covered.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start.Time).Hours()/24) + 1
}

// WholeMonths returns how many calendar months the window spans when it
// starts on the 1st and ends on a month end, and 0 otherwise.
func (p Period) WholeMonths() int {
	if p.Start.Day() != 1 || !p.End.IsMonthEnd() {
		return 0
	}
	return (p.End.Year()-p.Start.Year())*12 + int(p.End.Month()-p.Start.Month()) + 1
}

// Previous returns the immediately preceding window of equal length.
// Windows made of whole calendar months step back by the same number of
// months so that a month is compared with the month before it.
func (p Period) Previous() Period {
	if n := p.WholeMonths(); n > 0 {
		start := p.Start.AddMonths(-n)
		return Period{Start: start, End: p.Start.AddMonths(-1).EndOfMonth()}
	}
	days := p.Days()
	end := Date{Time: p.Start.AddDate(0, 0, -1)}
	return Period{Start: Date{Time: end.AddDate(0, 0, -(days - 1))}, End: end}
}

// Key is a stable identifier used for caching and logging.
func (p Period) Key() string {
	return p.Start.String() + "_" + p.End.String()
}

// Label is a short human-readable form, "2024-05" for a single month.
func (p Period) Label() string {
	if p.WholeMonths() == 1 {
		return p.Start.MonthKey()
	}
	return p.Start.String() + ".." + p.End.String()
}

func (p Period) String() string {
	return p.Key()
}

// MonthPeriod returns the whole calendar month containing d.
func MonthPeriod(d Date) Period {
	start := NewDate(d.Year(), int(d.Month()), 1)
	return Period{Start: start, End: start.EndOfMonth()}
}

// PresetPeriod resolves a named preset relative to now.
func PresetPeriod(name string, now time.Time) (Period, error) {
	today := DateOf(now)
	current := MonthPeriod(today)
	switch name {
	case "", PresetCurrentMonth:
		return current, nil
	case PresetLast3Months:
		return Period{Start: current.Start.AddMonths(-2), End: current.End}, nil
	case PresetLast6Months:
		return Period{Start: current.Start.AddMonths(-5), End: current.End}, nil
	case PresetCurrentYear:
		return Period{Start: NewDate(today.Year(), 1, 1), End: NewDate(today.Year(), 12, 31)}, nil
	default:
		return Period{}, fmt.Errorf("unknown period preset %q", name)
	}
}
