package payroll

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumNamedAmountsMixesShapes(t *testing.T) {
	entries := Entries{
		"housing":   Flat{Amount: dec("100000")},
		"transport": Flagged{Amount: dec("50000"), Taxable: false},
		"meal":      Flagged{Amount: dec("25000"), Taxable: true},
		"broken":    nil,
	}
	assertDecimal(t, "175000", SumNamedAmounts(entries))
	assertDecimal(t, "125000", SumFlaggedAmounts(entries, IsTaxable))
	assertDecimal(t, "0", SumNamedAmounts(nil))
}

func TestValidateEntriesNamesOffendingComponent(t *testing.T) {
	err := ValidateEntries(Entries{
		"housing": Flat{Amount: dec("10")},
		"penalty": Flat{Amount: dec("-1")},
	})
	require.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, "penalty", ErrorID(err))
}

func TestEntriesJSONAcceptsNumbersAndObjects(t *testing.T) {
	var entries Entries
	raw := `{"housing": 100000, "transport": {"amount": 50000, "taxable": false}, "legacy": {"amount": 7}, "odd": "n/a"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))

	assertDecimal(t, "100000", EntryAmount(entries["housing"]))
	transport, ok := entries["transport"].(Flagged)
	require.True(t, ok)
	assert.False(t, transport.Taxable)
	_, ok = entries["legacy"].(Flat)
	assert.True(t, ok)
	assert.Nil(t, entries["odd"])
	assertDecimal(t, "150007", SumNamedAmounts(entries))

	out, err := json.Marshal(Entries{"transport": Flagged{Amount: dec("5"), Taxable: true}, "housing": Flat{Amount: dec("3")}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"housing":"3","transport":{"amount":"5","taxable":true}}`, string(out))
}

func TestEntriesJSONNonObjectIsEmpty(t *testing.T) {
	for _, raw := range []string{`[]`, `null`, `"housing"`, `[{"amount": 5}]`} {
		t.Run(raw, func(t *testing.T) {
			var entries Entries
			require.NoError(t, json.Unmarshal([]byte(raw), &entries))
			assert.Empty(t, entries)
			assertDecimal(t, "0", SumNamedAmounts(entries))
		})
	}

	var structure SalaryStructure
	require.NoError(t, json.Unmarshal([]byte(`{"allowances": [], "bonuses": {"eid": 20000}}`), &structure))
	assert.Empty(t, structure.Allowances)
	assertDecimal(t, "20000", SumNamedAmounts(structure.Bonuses))
}
