package app

import (
	"sort"
	"time"

	"tableflip.dev/desk/pkg/debtor"
)

// ResultCount is how often a result code was logged.
type ResultCount struct {
	Result debtor.ResultCode
	Count  int
}

// DebtorSummary totals the interactions with one debtor.
type DebtorSummary struct {
	DebtorID string
	Name     string
	Contacts int
	TalkTime time.Duration
	Last     debtor.Interaction
}

// ReportResult summarises the interactions logged in a time window.
type ReportResult struct {
	Since    time.Time
	Until    time.Time
	Total    int
	Calls    int
	TalkTime time.Duration
	Results  []ResultCount
	Debtors  []DebtorSummary
}

// Report summarises interactions between since and until, inclusive.
func (d *Desk) Report(since, until time.Time) ReportResult {
	return BuildReport(d.history.All(), d.queue.Get, since, until)
}

// BuildReport summarises records between since and until. lookup resolves
// debtor names and may be nil.
func BuildReport(records []debtor.Interaction, lookup func(string) (*debtor.Debtor, bool), since, until time.Time) ReportResult {
	if since.After(until) {
		since, until = until, since
	}
	res := ReportResult{Since: since, Until: until}
	counts := make(map[debtor.ResultCode]int)
	byDebtor := make(map[string]*DebtorSummary)
	for _, r := range records {
		if r.At.Before(since) || r.At.After(until) {
			continue
		}
		res.Total++
		talk := time.Duration(r.Duration) * time.Second
		if r.Channel == debtor.ChannelPhone && r.Duration > 0 {
			res.Calls++
		}
		res.TalkTime += talk
		counts[r.Result]++

		s, ok := byDebtor[r.DebtorID]
		if !ok {
			s = &DebtorSummary{DebtorID: r.DebtorID, Name: r.DebtorID}
			if lookup != nil {
				if dd, found := lookup(r.DebtorID); found {
					s.Name = dd.Name
				}
			}
			byDebtor[r.DebtorID] = s
		}
		s.Contacts++
		s.TalkTime += talk
		if r.At.After(s.Last.At) || s.Last.ID == "" {
			s.Last = r
		}
	}

	for code, n := range counts {
		res.Results = append(res.Results, ResultCount{Result: code, Count: n})
	}
	sort.Slice(res.Results, func(i, j int) bool {
		if res.Results[i].Count == res.Results[j].Count {
			return res.Results[i].Result < res.Results[j].Result
		}
		return res.Results[i].Count > res.Results[j].Count
	})
	for _, s := range byDebtor {
		res.Debtors = append(res.Debtors, *s)
	}
	sort.Slice(res.Debtors, func(i, j int) bool {
		return res.Debtors[i].Last.At.After(res.Debtors[j].Last.At)
	})
	return res
}
