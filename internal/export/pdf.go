package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"resumescreener/internal/errors"
	"resumescreener/internal/types"

	"github.com/go-pdf/fpdf"
)

// summary table column widths in mm: rank, name, score, top skills, gaps
var tableWidths = []float64{13, 38, 20, 51, 51}

// ToPDF renders a letter-size report: title, metadata, a summary table and
// a detailed section per candidate. Core fonts only support cp1252, so text
// is translated before it is drawn.
func ToPDF(results []types.CandidateResult, jobSummary string, now time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetTitle("Resume Screening Results", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Resume Screening Results", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	label := func(name, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Write(5, name+" ")
		pdf.SetFont("Helvetica", "", 10)
		pdf.Write(5, tr(value))
		pdf.Ln(6)
	}
	label("Generated:", now.Format("2006-01-02 15:04:05"))
	label("Total Candidates:", strconv.Itoa(len(results)))
	pdf.Ln(2)
	label("Job Summary:", truncate(jobSummary, 300)+"...")
	pdf.Ln(6)

	if len(results) > 0 {
		writeSummaryTable(pdf, tr, results)
		pdf.Ln(8)
		writeDetails(pdf, tr, results)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeExportFailed, fmt.Sprintf("Failed to render PDF: %v", err), err)
	}
	return buf.Bytes(), nil
}

func writeSummaryTable(pdf *fpdf.Fpdf, tr func(string) string, results []types.CandidateResult) {
	header := []string{"Rank", "Name", "Score", "Top Skills", "Gaps"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	for i, h := range header {
		pdf.CellFormat(tableWidths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetFillColor(245, 245, 220)
	pdf.SetTextColor(0, 0, 0)
	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Rank),
			truncate(r.Name, 30),
			percent(r.OverallScore),
			truncate(joinFirst(r.MatchedSkills, 3), 40),
			truncate(joinFirst(r.SkillGaps, 3), 40),
		}
		for i, cell := range row {
			pdf.CellFormat(tableWidths[i], 7, fitWidth(pdf, tr(cell), tableWidths[i]-2), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeDetails(pdf *fpdf.Fpdf, tr func(string) string, results []types.CandidateResult) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Detailed Analysis", "", 1, "L", false, 0, "")
	pdf.Ln(3)

	for _, r := range results {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("#%d - %s (%s)", r.Rank, r.Name, percent(r.OverallScore))), "", "L", false)

		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(r.Explanation), "", "L", false)
		if len(r.Strengths) > 0 {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.Write(5, "Strengths: ")
			pdf.SetFont("Helvetica", "", 10)
			pdf.Write(5, tr(strings.Join(r.Strengths, ", ")))
			pdf.Ln(5)
		}
		pdf.Ln(4)
	}
}

// fitWidth shortens text until it fits in width, so table rows stay one line high.
func fitWidth(pdf *fpdf.Fpdf, text string, width float64) string {
	for pdf.GetStringWidth(text) > width && len(text) > 0 {
		text = text[:len(text)-1]
	}
	return text
}
