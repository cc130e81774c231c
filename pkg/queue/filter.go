package queue

import (
	"fmt"
	"strings"

	"tableflip.dev/desk/pkg/debtor"
)

// Filter is a composable predicate over debtors.
type Filter func(d *debtor.Debtor) bool

// All matches when every filter matches. No filters matches everything.
func All(filters ...Filter) Filter {
	return func(d *debtor.Debtor) bool {
		for _, f := range filters {
			if f != nil && !f(d) {
				return false
			}
		}
		return true
	}
}

// Search matches a case-insensitive substring of name and phone.
func Search(q string) Filter {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return nil
	}
	return func(d *debtor.Debtor) bool {
		hay := strings.ToLower(d.Name + " " + d.Phone)
		return strings.Contains(hay, needle)
	}
}

// MinDaysPastDue matches debtors at least days overdue.
func MinDaysPastDue(days int) Filter {
	return func(d *debtor.Debtor) bool {
		return d.DaysPastDue >= days
	}
}

// MinOutstanding matches debtors owing at least amount.
func MinOutstanding(amount debtor.Money) Filter {
	return func(d *debtor.Debtor) bool {
		return d.Outstanding >= amount
	}
}

// Preset is a named filter offered by the console.
type Preset string

const (
	PresetAll       Preset = ""
	PresetOverdue30 Preset = "overdue30"
	PresetHigh      Preset = "high"
)

// Presets lists presets in the order the console cycles through them.
var Presets = []Preset{PresetAll, PresetOverdue30, PresetHigh}

// Label is what the console shows for the preset.
func (p Preset) Label() string {
	switch p {
	case PresetOverdue30:
		return "overdue > 30 days"
	case PresetHigh:
		return "amount > 20k"
	default:
		return "all"
	}
}

// Next returns the following preset, wrapping.
func (p Preset) Next() Preset {
	for i, v := range Presets {
		if v == p {
			return Presets[(i+1)%len(Presets)]
		}
	}
	return PresetAll
}

// Filter returns the predicate for the preset; PresetAll returns nil.
func (p Preset) Filter() Filter {
	switch p {
	case PresetOverdue30:
		return MinDaysPastDue(30)
	case PresetHigh:
		return MinOutstanding(debtor.Rubles(20000))
	default:
		return nil
	}
}

// ParsePreset accepts the preset names used on the command line.
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(strings.ToLower(strings.TrimSpace(s))); p {
	case PresetAll, "all":
		return PresetAll, nil
	case PresetOverdue30, PresetHigh:
		return p, nil
	default:
		return PresetAll, fmt.Errorf("queue: unknown filter %q", s)
	}
}
