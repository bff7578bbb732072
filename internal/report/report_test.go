package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteAnalysis(t *testing.T) {
	result := &shopapi.AnalysisResult{
		TotalAnalyzed: 12,
		FakeCount:     2,
		FlaggedUsers:  []string{"u1", "u2"},
		FlaggedReviews: []shopapi.FlaggedReview{
			{
				ReviewID:    "r1",
				UserID:      "u1",
				RuleBased:   true,
				ML:          shopapi.MLVerdict{Confidence: 0.91, IsFakeML: true},
				Behavioral:  shopapi.BehavioralVerdict{IsFakeBehavioral: true, Flags: []string{"burst", "same_text"}, SuspiciousScore: 0.7},
				IsFakeFinal: true,
			},
			{ReviewID: "r2", UserID: "u2"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAnalysis(&buf, result, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Run At", "2026-03-01T10:00:00Z"}, summary[0])
	assert.Equal(t, []string{"Total Analyzed", "12"}, summary[1])
	assert.Equal(t, []string{"Flagged Users", "u1, u2"}, summary[3])

	flagged, err := f.GetRows(flaggedSheet)
	require.NoError(t, err)
	require.Len(t, flagged, 3)
	assert.Equal(t, "Review ID", flagged[0][0])
	assert.Equal(t, "r1", flagged[1][0])
	assert.Equal(t, "yes", flagged[1][2])
	assert.Equal(t, "burst, same_text", flagged[1][7])
	assert.Equal(t, "no", flagged[2][8])
}

func TestWriteAnalysis_NilResult(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteAnalysis(&buf, nil, time.Now()))
}

func TestReadReviews(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"product_id", "user_id", "rating", "review_text"},
		{"p1", "u1", 5, "Great sound"},
		{"p1", "u2", "4", "  Good value  "},
		{"p2", "u3", 9, "Out of range"},
		{"p2", "u3", "x", "Not a number"},
		{"", "u4", 3, "No product"},
		{"p3", "u5"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	result, err := ReadReviews(buf)
	require.NoError(t, err)

	require.Len(t, result.Reviews, 2)
	assert.Equal(t, shopapi.NewReview{ProductID: "p1", UserID: "u1", Rating: 5, ReviewText: "Great sound"}, result.Reviews[0])
	assert.Equal(t, "Good value", result.Reviews[1].ReviewText)
	assert.Equal(t, 4, result.Skipped)
}

func TestReadReviews_NotAWorkbook(t *testing.T) {
	_, err := ReadReviews(strings.NewReader("plain text"))
	assert.Error(t, err)
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)

	key := ObjectKey("analysis-reports", "report.xlsx", at)
	assert.True(t, strings.HasPrefix(key, "analysis-reports/2026/03/01/"))
	assert.True(t, strings.HasSuffix(key, "-report.xlsx"))

	assert.True(t, strings.HasPrefix(ObjectKey("", "r.xlsx", at), "2026/03/01/"))
	assert.NotEqual(t, key, ObjectKey("analysis-reports", "report.xlsx", at))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "review-analysis-20260301-100000.xlsx", FileName(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
}
