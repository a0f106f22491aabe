package payroll

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	ContentTypePDF       = "application/pdf"
	ContentTypeEncrypted = "application/octet-stream"
)

type Payslip struct {
	FileName    string
	ContentType string
	Data        []byte
	Encrypted   bool
}

// Payslip renders the record as a PDF. When an encryption key is configured the
// document is sealed with it and returned as opaque bytes.
func (s *Service) Payslip(ctx context.Context, recordID string) (slip Payslip, err error) {
	defer func() { s.metrics.Operation("payroll", "payslip", err) }()

	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return Payslip{}, err
	}
	if rec.Status != StatusApproved && rec.Status != StatusPaid {
		return Payslip{}, newError(ErrPayslipUnavailable, recordID, string(rec.Status))
	}
	data, err := RenderPayslip(rec)
	if err != nil {
		return Payslip{}, err
	}
	slip = Payslip{FileName: rec.ID + ".pdf", ContentType: ContentTypePDF, Data: data}
	if s.crypto != nil && s.crypto.Configured() {
		encrypted, err := s.crypto.Encrypt(data)
		if err != nil {
			return Payslip{}, err
		}
		slip = Payslip{FileName: rec.ID + ".pdf.enc", ContentType: ContentTypeEncrypted, Data: encrypted, Encrypted: true}
	}
	s.logger.Debug("payslip rendered", zap.String("record_id", rec.ID), zap.Bool("encrypted", slip.Encrypted))
	return slip, nil
}

func RenderPayslip(rec Record) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		fmt.Sprintf("Employee: %s (%s)", rec.EmployeeName, rec.EmployeeID),
		fmt.Sprintf("Department: %s", rec.Department),
		fmt.Sprintf("Period: %04d-%02d", rec.Year, rec.Month),
		fmt.Sprintf("Reference: %s", rec.ID),
		fmt.Sprintf("Status: %s", rec.Status),
	} {
		pdf.Cell(0, 7, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	section(pdf, "Earnings")
	row(pdf, "Basic salary", rec.Earnings.BasicSalary)
	entryRows(pdf, rec.Earnings.Allowances.Items)
	entryRows(pdf, rec.Earnings.Bonuses.Items)
	if rec.Earnings.Overtime.Total.IsPositive() {
		row(pdf, fmt.Sprintf("Overtime (%s h)", rec.Earnings.Overtime.Hours), rec.Earnings.Overtime.Total)
	}
	row(pdf, "Gross salary", rec.Earnings.GrossSalary)

	section(pdf, "Deductions")
	row(pdf, "PAYE", rec.Deductions.Statutory.PAYE)
	row(pdf, "NSSF", rec.Deductions.Statutory.NSSF)
	row(pdf, "NHIF", rec.Deductions.Statutory.NHIF)
	entryRows(pdf, rec.Deductions.Other.Items)
	row(pdf, "Total deductions", rec.Deductions.TotalDeductions)

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	row(pdf, "Net salary", rec.NetSalary)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
}

func row(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.CellFormat(120, 7, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(50, 7, amount.StringFixed(0), "", 1, "R", false, 0, "")
}

func entryRows(pdf *gofpdf.Fpdf, entries Entries) {
	for _, name := range entries.Names() {
		row(pdf, name, EntryAmount(entries[name]))
	}
}
