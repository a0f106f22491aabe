package payroll

import "github.com/shopspring/decimal"

// Summary aggregates a set of records. EmployeeCount counts records, not distinct employees.
type Summary struct {
	EmployeeCount   int             `json:"employeeCount"`
	TotalGross      decimal.Decimal `json:"totalGross"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	TotalNet        decimal.Decimal `json:"totalNet"`
	TotalPAYE       decimal.Decimal `json:"totalPAYE"`
	TotalNSSF       decimal.Decimal `json:"totalNSSF"`
	TotalNHIF       decimal.Decimal `json:"totalNHIF"`
	Warnings        map[string]int  `json:"warnings"`
}

func Summarize(records []Record) Summary {
	summary := Summary{Warnings: map[string]int{}}
	for _, rec := range records {
		summary = summary.add(rec)
	}
	return summary
}

func (s Summary) add(rec Record) Summary {
	s.EmployeeCount++
	s.TotalGross = s.TotalGross.Add(rec.Earnings.GrossSalary)
	s.TotalDeductions = s.TotalDeductions.Add(rec.Deductions.TotalDeductions)
	s.TotalNet = s.TotalNet.Add(rec.NetSalary)
	s.TotalPAYE = s.TotalPAYE.Add(rec.Deductions.Statutory.PAYE)
	s.TotalNSSF = s.TotalNSSF.Add(rec.Deductions.Statutory.NSSF)
	s.TotalNHIF = s.TotalNHIF.Add(rec.Deductions.Statutory.NHIF)
	if s.Warnings == nil {
		s.Warnings = map[string]int{}
	}
	for _, w := range rec.Warnings {
		s.Warnings[w]++
	}
	return s
}

// Merge combines two summaries of disjoint record sets.
func (s Summary) Merge(other Summary) Summary {
	out := Summary{
		EmployeeCount:   s.EmployeeCount + other.EmployeeCount,
		TotalGross:      s.TotalGross.Add(other.TotalGross),
		TotalDeductions: s.TotalDeductions.Add(other.TotalDeductions),
		TotalNet:        s.TotalNet.Add(other.TotalNet),
		TotalPAYE:       s.TotalPAYE.Add(other.TotalPAYE),
		TotalNSSF:       s.TotalNSSF.Add(other.TotalNSSF),
		TotalNHIF:       s.TotalNHIF.Add(other.TotalNHIF),
		Warnings:        map[string]int{},
	}
	for k, v := range s.Warnings {
		out.Warnings[k] += v
	}
	for k, v := range other.Warnings {
		out.Warnings[k] += v
	}
	return out
}

// Equal compares totals numerically, ignoring decimal representation.
func (s Summary) Equal(other Summary) bool {
	if s.EmployeeCount != other.EmployeeCount || len(s.Warnings) != len(other.Warnings) {
		return false
	}
	for k, v := range s.Warnings {
		if other.Warnings[k] != v {
			return false
		}
	}
	return s.TotalGross.Equal(other.TotalGross) &&
		s.TotalDeductions.Equal(other.TotalDeductions) &&
		s.TotalNet.Equal(other.TotalNet) &&
		s.TotalPAYE.Equal(other.TotalPAYE) &&
		s.TotalNSSF.Equal(other.TotalNSSF) &&
		s.TotalNHIF.Equal(other.TotalNHIF)
}

// AverageNet is zero for an empty summary.
func (s Summary) AverageNet() decimal.Decimal {
	if s.EmployeeCount == 0 {
		return decimal.Zero
	}
	return s.TotalNet.Div(decimal.NewFromInt(int64(s.EmployeeCount))).Round(2)
}

func SummarizeByDepartment(records []Record) map[string]Summary {
	return summarizeBy(records, func(rec Record) string { return rec.Department })
}

func SummarizeByStatus(records []Record) map[Status]Summary {
	grouped := summarizeBy(records, func(rec Record) string { return string(rec.Status) })
	out := make(map[Status]Summary, len(grouped))
	for k, v := range grouped {
		out[Status(k)] = v
	}
	return out
}

func summarizeBy(records []Record, key func(Record) string) map[string]Summary {
	out := map[string]Summary{}
	for _, rec := range records {
		out[key(rec)] = out[key(rec)].add(rec)
	}
	return out
}
