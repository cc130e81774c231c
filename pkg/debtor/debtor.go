// Package debtor holds the records the collections desk works on: debtors in
// the queue and the interactions logged against them.
package debtor

import (
	"fmt"
	"sort"
	"time"
)

// Debtor is an account holder with an outstanding balance tracked by the queue.
type Debtor struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Outstanding Money      `json:"outstanding"`
	DaysPastDue int        `json:"daysPastDue"`
	Attempts    int        `json:"attempts"`
	LastContact *time.Time `json:"lastContact,omitempty"`
	RiskSegment Risk       `json:"riskSegment,omitempty"`
	// Seq is the queue arrival order, assigned when the debtor is queued.
	Seq int64 `json:"seq,omitempty"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the queue's own records.
func (d *Debtor) Clone() *Debtor {
	if d == nil {
		return nil
	}
	cp := *d
	if d.LastContact != nil {
		lc := *d.LastContact
		cp.LastContact = &lc
	}
	return &cp
}

func (d *Debtor) String() string {
	return fmt.Sprintf("%s %s (%s)", d.ID, d.Name, d.Phone)
}

// SortBySeq orders debtors by arrival. Records saved without a sequence
// come first, by id.
func SortBySeq(ds []*Debtor) {
	sort.SliceStable(ds, func(a, b int) bool {
		if ds[a].Seq != ds[b].Seq {
			return ds[a].Seq < ds[b].Seq
		}
		return ds[a].ID < ds[b].ID
	})
}

// Risk is the display-only risk segment attached by the scoring collaborator.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)
