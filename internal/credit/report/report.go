// Package report renders the downloadable borrower report.
package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"credit-default-risk/internal/models"

	"github.com/go-pdf/fpdf"
)

const (
	Title       = "Credit Default Risk Report"
	Filename    = "borrower_report.pdf"
	ContentType = "application/pdf"
	Disclaimer  = "Disclaimer: This prediction is based on statistical models and does not " +
		"constitute financial advice or guarantee future performance."

	dateLayout = "2006-01-02 15:04:05"
)

// Data is everything that goes on the page.
type Data struct {
	Reference   string
	Borrower    models.BorrowerInput
	Ratios      models.Ratios
	Prediction  models.PredictionResult
	GeneratedAt time.Time
}

// PDFRenderer renders Data with the core Arial font on a single A4 page.
type PDFRenderer struct{}

func (PDFRenderer) Render(d Data) ([]byte, error) {
	return Render(d)
}

// Render builds the PDF. Any layout error discards the whole document.
func Render(d Data) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(Title, true)
	pdf.SetCreator("credit-default-risk", true)
	pdf.SetCreationDate(d.GeneratedAt)
	pdf.SetModificationDate(d.GeneratedAt)
	pdf.SetCatalogSort(true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(190, 10, Title, "", 1, "C", false, 0, "")
	pdf.Ln(5)
	pdf.CellFormat(190, 10, "Date: "+d.GeneratedAt.Format(dateLayout), "", 1, "", false, 0, "")
	if d.Reference != "" {
		pdf.CellFormat(190, 10, "Report ID: "+d.Reference, "", 1, "", false, 0, "")
	}
	pdf.Ln(5)

	section(pdf, tr, "Borrower Information:", BorrowerLines(d))
	section(pdf, tr, "Prediction Summary:", SummaryLines(d))

	pdf.SetY(-30)
	pdf.SetFont("Arial", "", 8)
	pdf.MultiCell(0, 5, Disclaimer, "", "", false)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *fpdf.Fpdf, tr func(string) string, heading string, lines []string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 10, heading, "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	for _, line := range lines {
		pdf.MultiCell(0, 10, tr(line), "", "", false)
	}
	pdf.Ln(4)
}

// BorrowerLines is the borrower block of the report.
func BorrowerLines(d Data) []string {
	return []string{
		"INCOME: " + Amount(d.Borrower.Income),
		"SAVINGS: " + Amount(d.Borrower.Savings),
		"DEBT: " + Amount(d.Borrower.Debt),
		fmt.Sprintf("Debt-to-Income Ratio: %.2f", d.Ratios.DebtToIncome),
		fmt.Sprintf("Debt-to-Savings Ratio: %.2f", d.Ratios.DebtToSavings),
		"Education: " + d.Borrower.Education,
		"Occupation: " + d.Borrower.Occupation,
		"Relationship: " + d.Borrower.Relationship,
	}
}

// SummaryLines is the prediction block of the report.
func SummaryLines(d Data) []string {
	return []string{
		"Predicted Risk Probability: " + Percent(d.Prediction.Probability),
		"Threshold Used: " + strconv.FormatFloat(d.Prediction.Threshold, 'f', -1, 64),
		"Final Classification: " + d.Prediction.Classification(),
		"Risk Level: " + d.Prediction.RiskBand.DisplayName(),
	}
}

// Percent formats a probability with two decimals, e.g. 0.4512 -> "45.12%".
func Percent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

// Amount prints whole amounts without decimals and keeps fractions otherwise.
func Amount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DataURI encodes a rendered report for an inline download link.
func DataURI(pdf []byte) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(pdf)
}
