// Package ingest produces the accounts that enter the queue: the seed book
// loaded at startup and the synthetic arrivals appended while the desk runs.
package ingest

import (
	"fmt"
	"math/rand/v2"
	"time"

	"tableflip.dev/desk/pkg/debtor"
)

const (
	// DefaultInterval is how often a synthetic debtor arrives.
	DefaultInterval = 30 * time.Second

	syntheticPhone = "+7 (900) 000-00-00"
	maxOutstanding = 50000
	maxDaysPastDue = 200
)

// Generator makes synthetic debtors.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a generator seeded from seed. Equal seeds give equal
// sequences.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next returns a new debtor arriving at now. Its id is `d<unix-millis>` and
// its name carries the last four digits of the id.
func (g *Generator) Next(now time.Time) *debtor.Debtor {
	id := fmt.Sprintf("d%d", now.UnixMilli())
	return &debtor.Debtor{
		ID:          id,
		Name:        "Клиент " + id[max(0, len(id)-4):],
		Phone:       syntheticPhone,
		Outstanding: debtor.Rubles(float64(g.rnd.IntN(maxOutstanding + 1))),
		DaysPastDue: g.rnd.IntN(maxDaysPastDue),
	}
}

// Seed returns the starting queue.
func Seed() []*debtor.Debtor {
	day := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return []*debtor.Debtor{
		{
			ID: "d1", Name: "Иванов Иван", Phone: "+7 (912) 111-22-33",
			Outstanding: debtor.Rubles(12500.5), DaysPastDue: 45, Attempts: 2,
			LastContact: day(2025, time.October, 28), RiskSegment: debtor.RiskMedium,
		},
		{
			ID: "d2", Name: "Петров Пётр", Phone: "+7 (903) 444-55-66",
			Outstanding: debtor.Rubles(5600), DaysPastDue: 12, Attempts: 1,
			LastContact: day(2025, time.November, 5), RiskSegment: debtor.RiskLow,
		},
		{
			ID: "d3", Name: "Смирнова Ольга", Phone: "+7 (916) 777-88-99",
			Outstanding: debtor.Rubles(30000), DaysPastDue: 120, Attempts: 5,
			LastContact: day(2025, time.September, 12), RiskSegment: debtor.RiskHigh,
		},
	}
}

// SeedHistory returns the interactions logged before the desk started,
// oldest first.
func SeedHistory() []debtor.Interaction {
	return []debtor.Interaction{
		{
			ID: "i3", DebtorID: "d3", Channel: debtor.ChannelSMS,
			At:     time.Date(2025, time.September, 12, 9, 0, 0, 0, time.UTC),
			Result: debtor.InvalidNumber, Note: "Номер недоступен",
		},
		{
			ID: "i1", DebtorID: "d1", Channel: debtor.ChannelPhone,
			At:       time.Date(2025, time.October, 28, 10, 12, 0, 0, time.UTC),
			Duration: 320, Result: debtor.NoAnswer, Note: "Оставлено сообщение",
		},
		{
			ID: "i2", DebtorID: "d2", Channel: debtor.ChannelPhone,
			At:       time.Date(2025, time.November, 5, 14, 20, 0, 0, time.UTC),
			Duration: 120, Result: debtor.PromiseToPay, Note: "Обещал заплатить 2025-11-10",
		},
	}
}
