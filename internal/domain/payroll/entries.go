package payroll

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// MonetaryEntry is either a Flat amount or a Flagged amount carrying a taxable flag.
type MonetaryEntry interface {
	monetaryEntry()
}

type Flat struct {
	Amount decimal.Decimal
}

type Flagged struct {
	Amount  decimal.Decimal
	Taxable bool
}

func (Flat) monetaryEntry()    {}
func (Flagged) monetaryEntry() {}

// Entries maps a component name (e.g. "housing") to its amount.
type Entries map[string]MonetaryEntry

// EntryAmount returns the amount of entry; nil or unrecognised entries count as zero.
func EntryAmount(entry MonetaryEntry) decimal.Decimal {
	switch e := entry.(type) {
	case Flat:
		return e.Amount
	case Flagged:
		return e.Amount
	default:
		return decimal.Zero
	}
}

// IsTaxable treats flat entries as taxable and flagged entries by their flag.
func IsTaxable(entry MonetaryEntry) bool {
	switch e := entry.(type) {
	case Flat:
		return true
	case Flagged:
		return e.Taxable
	default:
		return false
	}
}

func SumNamedAmounts(entries Entries) decimal.Decimal {
	return SumFlaggedAmounts(entries, func(MonetaryEntry) bool { return true })
}

func SumFlaggedAmounts(entries Entries, include func(MonetaryEntry) bool) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		if entry == nil || !include(entry) {
			continue
		}
		total = total.Add(EntryAmount(entry))
	}
	return total
}

// ValidateEntries rejects negative amounts, naming the offending component.
func ValidateEntries(entries Entries) error {
	for _, name := range entries.Names() {
		if EntryAmount(entries[name]).IsNegative() {
			return newError(ErrInvalidAmount, name, "component amount is negative")
		}
	}
	return nil
}

// Names returns the component names in stable order.
func (e Entries) Names() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type flaggedJSON struct {
	Amount  *decimal.Decimal `json:"amount"`
	Taxable *bool            `json:"taxable"`
}

// UnmarshalJSON accepts plain numbers and {amount, taxable} objects; other shapes decode to nil.
// A top level that is not an object (null, [] from older rows) decodes to empty Entries.
func (e *Entries) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		*e = Entries{}
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Entries, len(raw))
	for name, value := range raw {
		out[name] = decodeEntry(value)
	}
	*e = out
	return nil
}

func decodeEntry(value json.RawMessage) MonetaryEntry {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '{':
		var obj flaggedJSON
		if err := json.Unmarshal(trimmed, &obj); err != nil || obj.Amount == nil {
			return nil
		}
		if obj.Taxable == nil {
			return Flat{Amount: *obj.Amount}
		}
		return Flagged{Amount: *obj.Amount, Taxable: *obj.Taxable}
	default:
		var amount decimal.Decimal
		if err := json.Unmarshal(trimmed, &amount); err != nil {
			return nil
		}
		return Flat{Amount: amount}
	}
}

func (e Entries) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e))
	for name, entry := range e {
		switch v := entry.(type) {
		case Flat:
			out[name] = v.Amount
		case Flagged:
			out[name] = map[string]any{"amount": v.Amount, "taxable": v.Taxable}
		}
	}
	return json.Marshal(out)
}
