package review

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sampleHeader = []string{
	"no", "assignee", "FileName", "GroundTruth", "Predict", "MATCH", "Score",
	"ItemName", "Location", "Desc", "Reason", "gt_verdict", "reason_verdict",
}

var sampleRows = [][]string{
	{"1", "kim", "img1", "cat", "cat", "TRUE", "0.95", "item-a", "shelf 1", "first", "looks right", "success", ""},
	{"2", "lee", "img2.png", "dog", "cat", "FALSE", "0.41", "item-b", "shelf 2", "second", "wrong class", "", "failure"},
	{"3", "kim", "img3", "bird", "bird", "TRUE", "0.88", "item-c", "shelf 3", "third", "ok", "", ""},
	{"4", "park", "img4", "cat", "dog", "FALSE", "0.12", "item-d", "shelf 4", "fourth", "mismatch", "failure", "failure"},
}

func sampleCSV() string {
	var b strings.Builder
	b.WriteString(strings.Join(sampleHeader, ",") + "\n")
	for _, row := range sampleRows {
		b.WriteString(strings.Join(row, ",") + "\n")
	}
	return b.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeSampleCSV(t *testing.T) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "eval.csv", sampleCSV())
}

func writeSampleWorkbook(t *testing.T) string {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	header := make([]any, len(sampleHeader))
	for i, h := range sampleHeader {
		header[i] = h
	}
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &header))
	for i, raw := range sampleRows {
		row := make([]any, len(raw))
		for j, cell := range raw {
			row[j] = cell
		}
		// Numeric columns as real numbers so the workbook looks like one
		// produced by a spreadsheet program.
		row[0] = i + 1
		row[6] = []float64{0.95, 0.41, 0.88, 0.12}[i]
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "eval.xlsx")
	require.NoError(t, wb.SaveAs(path))
	return path
}

func newLoadedSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	s := NewSession(cfg, nil)
	require.NoError(t, s.Load(writeSampleCSV(t)))
	return s
}
