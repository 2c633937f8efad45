package domain

import (
	"github.com/shopspring/decimal"
)

// UserID is the chat platform's user identifier, stringified so the JSON
// document keys stay stable regardless of the platform's numeric ID type.
type UserID string

// LineItem is one expense entry within a declaration.
type LineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // always 2 fractional digits
}

// Record is one user's declaration in progress. Name, Email and IBAN are
// the user's profile identity; LineItems, Attachments and SendToBoard make
// up the current claim and are cleared on reset.
type Record struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	IBAN        string     `json:"iban"`
	LineItems   []LineItem `json:"line_items"`
	Attachments []string   `json:"attachments"`
	SendToBoard bool       `json:"send_to_board"`
}

func NewRecord() Record {
	return Record{SendToBoard: true}
}

// Clone returns a deep copy so callers cannot reach back into stored state.
func (r Record) Clone() Record {
	out := r
	if r.LineItems != nil {
		out.LineItems = make([]LineItem, len(r.LineItems))
		copy(out.LineItems, r.LineItems)
	}
	if r.Attachments != nil {
		out.Attachments = make([]string, len(r.Attachments))
		copy(out.Attachments, r.Attachments)
	}
	return out
}

// ResetClaim clears the claim in progress and keeps the identity fields.
func (r *Record) ResetClaim() {
	r.LineItems = nil
	r.Attachments = nil
	r.SendToBoard = true
}

// Complete reports whether the record has everything a submission needs.
func (r Record) Complete() bool {
	return r.Name != "" && r.Email != "" && r.IBAN != "" &&
		len(r.LineItems) > 0 && len(r.Attachments) > 0
}

// Total sums the line item amounts.
func (r Record) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.LineItems {
		total = total.Add(it.Amount)
	}
	return total
}
