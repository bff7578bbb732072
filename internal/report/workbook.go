package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	summarySheet = "Summary"
	flaggedSheet = "Flagged Reviews"
)

var flaggedHeader = []interface{}{
	"Review ID", "User ID", "Rule Based", "ML Fake", "ML Confidence",
	"Behavioral Fake", "Suspicious Score", "Flags", "Final Verdict",
}

// FileName is the download name for a report generated at t
func FileName(t time.Time) string {
	return fmt.Sprintf("review-analysis-%s.xlsx", t.UTC().Format("20060102-150405"))
}

// WriteAnalysis writes result as an XLSX workbook with a summary sheet and
// one row per flagged review.
func WriteAnalysis(w io.Writer, result *shopapi.AnalysisResult, ranAt time.Time) error {
	if result == nil {
		return fmt.Errorf("no analysis result to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	summary := [][]interface{}{
		{"Run At", ranAt.UTC().Format(time.RFC3339)},
		{"Total Analyzed", result.TotalAnalyzed},
		{"Fake Count", result.FakeCount},
		{"Flagged Users", strings.Join(result.FlaggedUsers, ", ")},
	}
	if result.Message != "" {
		summary = append(summary, []interface{}{"Message", result.Message})
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 18)
	_ = f.SetColWidth(summarySheet, "B", "B", 40)

	if _, err := f.NewSheet(flaggedSheet); err != nil {
		return fmt.Errorf("failed to create flagged sheet: %w", err)
	}
	if err := f.SetSheetRow(flaggedSheet, "A1", &flaggedHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(flaggedSheet, "A1", "I1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, fr := range result.FlaggedReviews {
		row := []interface{}{
			fr.ReviewID,
			fr.UserID,
			yesNo(fr.RuleBased),
			yesNo(fr.ML.IsFakeML),
			fr.ML.Confidence,
			yesNo(fr.Behavioral.IsFakeBehavioral),
			fr.Behavioral.SuspiciousScore,
			strings.Join(fr.Behavioral.Flags, ", "),
			yesNo(fr.IsFakeFinal),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(flaggedSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write flagged review %s: %w", fr.ReviewID, err)
		}
	}
	_ = f.SetColWidth(flaggedSheet, "A", "I", 16)

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ImportResult is what ReadReviews found in a workbook
type ImportResult struct {
	Reviews []shopapi.NewReview
	Skipped int
}

// ReadReviews reads reviews to import from the first sheet of an XLSX
// workbook. The first row is a header; columns are product id, user id,
// rating and review text. Rows that are short or fail validation are
// counted as skipped.
func ReadReviews(r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	result := &ImportResult{}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 4 {
			result.Skipped++
			continue
		}

		rating, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			result.Skipped++
			continue
		}
		review := shopapi.NewReview{
			ProductID:  strings.TrimSpace(row[0]),
			UserID:     strings.TrimSpace(row[1]),
			Rating:     rating,
			ReviewText: strings.TrimSpace(row[3]),
		}
		if review.ProductID == "" || review.Validate() != nil {
			result.Skipped++
			continue
		}
		result.Reviews = append(result.Reviews, review)
	}
	return result, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
