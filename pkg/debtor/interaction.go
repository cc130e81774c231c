package debtor

import (
	"fmt"
	"time"
)

// Channel is the medium an interaction happened on.
type Channel string

const (
	ChannelPhone  Channel = "phone"
	ChannelSMS    Channel = "sms"
	ChannelEmail  Channel = "email"
	ChannelLetter Channel = "letter"
	ChannelVisit  Channel = "visit"
)

// ResultCode is the outcome recorded for an interaction. The console only
// produces ConsoleResults; the rest come from analytics collaborators and are
// carried through storage untouched.
type ResultCode string

const (
	NoAnswer     ResultCode = "no_answer"
	PromiseToPay ResultCode = "promise_to_pay"
	Decline      ResultCode = "decline"

	Callback       ResultCode = "callback"
	Refuse         ResultCode = "refuse"
	PartialPayment ResultCode = "partial_payment"
	FullPayment    ResultCode = "full_payment"
	InvalidNumber  ResultCode = "invalid_number"
)

// DefaultResult is what a fresh call session starts with.
const DefaultResult = NoAnswer

// ConsoleResults is the closed set the operator can pick from, in display order.
var ConsoleResults = []ResultCode{NoAnswer, PromiseToPay, Decline}

var resultLabels = map[ResultCode]string{
	NoAnswer:       "no answer",
	PromiseToPay:   "promise to pay",
	Decline:        "decline",
	Callback:       "call back",
	Refuse:         "refuse",
	PartialPayment: "partial payment",
	FullPayment:    "full payment",
	InvalidNumber:  "invalid number",
}

// Label is the human-friendly name; unknown codes fall back to the raw value.
func (r ResultCode) Label() string {
	if l, ok := resultLabels[r]; ok {
		return l
	}
	return string(r)
}

// IsConsole reports whether the operator console can produce the code.
func (r ResultCode) IsConsole() bool {
	for _, c := range ConsoleResults {
		if c == r {
			return true
		}
	}
	return false
}

// NextConsole cycles through ConsoleResults; codes outside the set restart
// at the first entry.
func (r ResultCode) NextConsole() ResultCode {
	for i, c := range ConsoleResults {
		if c == r {
			return ConsoleResults[(i+1)%len(ConsoleResults)]
		}
	}
	return ConsoleResults[0]
}

// Interaction is an immutable record of one contact attempt.
type Interaction struct {
	ID       string     `json:"id"`
	DebtorID string     `json:"debtorId"`
	Channel  Channel    `json:"channel"`
	At       time.Time  `json:"at"`
	Duration int        `json:"duration,omitempty"`
	Result   ResultCode `json:"result"`
	Note     string     `json:"note,omitempty"`
}

func (i Interaction) String() string {
	s := fmt.Sprintf("%s %s %s", i.At.Format(time.RFC3339), i.Channel, i.Result)
	if i.Duration > 0 {
		s += fmt.Sprintf(" %ds", i.Duration)
	}
	if i.Note != "" {
		s += " - " + i.Note
	}
	return s
}
