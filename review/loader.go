package review

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
)

// LoadOptions selects the sheet and header aliases used while reading.
type LoadOptions struct {
	Sheet   string
	Columns ColumnCandidates
}

// ReadDataset reads a spreadsheet file into a dataset. Every failure is
// reported as a *LoadError.
func ReadDataset(path string, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()
	return ReadDatasetFrom(f, path, opts)
}

// ReadDatasetFrom reads a spreadsheet from r. The format is chosen from the
// extension of name.
func ReadDatasetFrom(r io.Reader, name string, opts LoadOptions) (*Dataset, error) {
	tbl, err := readTable(r, name, opts.Sheet)
	if err != nil {
		return nil, &LoadError{Path: name, Err: err}
	}
	ds, err := buildDataset(filepath.Base(name), tbl, opts.Columns)
	if err != nil {
		return nil, &LoadError{Path: name, Err: err}
	}
	return ds, nil
}

// table is the cell grid of a file. Workbooks also report which cells the
// file stores as strings; delimited text leaves stringCells nil.
type table struct {
	rows        [][]string
	stringCells map[cellRef]bool
}

type cellRef struct{ row, col int }

func (t table) storedAsString(row, col int) bool {
	return t.stringCells[cellRef{row, col}]
}

func readTable(r io.Reader, name, sheet string) (table, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		return readWorkbook(r, sheet)
	case ".csv":
		rows, err = readDelimited(r, ',')
	case ".tsv":
		rows, err = readDelimited(r, '\t')
	default:
		return table{}, fmt.Errorf("unsupported file type %q", ext)
	}
	return table{rows: rows}, err
}

// readWorkbook reads stored cell values rather than their display text, so a
// number formatted as 0.00 keeps its full precision.
func readWorkbook(r io.Reader, sheet string) (table, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()
	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return table{}, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	tbl := table{rows: rows, stringCells: make(map[cellRef]bool)}
	for i, row := range rows {
		for j, cell := range row {
			if cell == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return table{}, err
			}
			typ, err := wb.GetCellType(sheet, ref)
			if err != nil {
				return table{}, fmt.Errorf("read cell %s: %w", ref, err)
			}
			switch typ {
			case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
				excelize.CellTypeFormula, excelize.CellTypeDate:
				tbl.stringCells[cellRef{i, j}] = true
			case excelize.CellTypeBool:
				// Raw booleans are stored as 1 and 0.
				if cell == "1" {
					row[j] = "TRUE"
				} else if cell == "0" {
					row[j] = "FALSE"
				}
			}
		}
	}
	return tbl, nil
}

func readDelimited(r io.Reader, comma rune) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse rows: %w", err)
	}
	return rows, nil
}

// decodeText strips a UTF-8 byte order mark and falls back to EUC-KR, the
// encoding Korean spreadsheet software writes CSV in, when the bytes are not UTF-8.
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := korean.EUCKR.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(decoded), nil
}

func buildDataset(source string, tbl table, candidates ColumnCandidates) (*Dataset, error) {
	if len(tbl.rows) == 0 {
		return nil, errors.New("no header row")
	}
	header, err := cleanHeader(tbl.rows[0])
	if err != nil {
		return nil, err
	}
	header = trimUnnamedTail(header, tbl.rows[1:])
	if len(header) == 0 {
		return nil, errors.New("header row is empty")
	}
	roles, err := resolveRoles(header, candidates)
	if err != nil {
		return nil, err
	}

	body := make([][]string, 0, len(tbl.rows)-1)
	// lines holds the table index of each kept row.
	lines := make([]int, 0, len(tbl.rows)-1)
	for i, row := range tbl.rows[1:] {
		if isBlankRow(row) {
			continue
		}
		if len(row) > len(header) {
			for _, extra := range row[len(header):] {
				if strings.TrimSpace(extra) != "" {
					return nil, fmt.Errorf("row %d has %d cells but the header has %d", i+2, len(row), len(header))
				}
			}
			row = row[:len(header)]
		}
		padded := make([]string, len(header))
		copy(padded, row)
		body = append(body, padded)
		lines = append(lines, i+1)
	}

	textRoles := map[int]bool{
		roles[RoleAssignee]:      true,
		roles[RoleFileName]:      true,
		roles[RoleGTVerdict]:     true,
		roles[RoleReasonVerdict]: true,
	}
	columns := make([]Column, len(header))
	cells := make([]string, len(body))
	for col, name := range header {
		kind := KindText
		if !textRoles[col] && !hasStringCell(tbl, lines, col) {
			for i, row := range body {
				cells[i] = row[col]
			}
			kind = inferKind(cells)
		}
		columns[col] = Column{Name: name, Kind: kind}
	}

	rows := make([][]Value, len(body))
	for i, raw := range body {
		values := make([]Value, len(header))
		for col, cell := range raw {
			v, err := parseCell(cell, columns[col].Kind)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", lines[i]+1, columns[col].Name, err)
			}
			values[col] = v
		}
		for _, role := range []Role{RoleGTVerdict, RoleReasonVerdict} {
			idx := roles[role]
			if values[idx].Null {
				values[idx] = TextValue("")
			}
		}
		rows[i] = values
	}
	return newDataset(source, columns, roles, rows), nil
}

// hasStringCell reports whether the file stores any body cell of col as a
// string. Such a column stays text even when its cells look numeric.
func hasStringCell(tbl table, lines []int, col int) bool {
	for _, line := range lines {
		if tbl.storedAsString(line, col) {
			return true
		}
	}
	return false
}

func cleanHeader(row []string) ([]string, error) {
	header := make([]string, len(row))
	seen := make(map[string]struct{}, len(row))
	for i, cell := range row {
		name := cleanCell(cell)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = struct{}{}
		header[i] = name
	}
	return header, nil
}

// trimUnnamedTail drops trailing unnamed columns that hold no data, which
// spreadsheet tools leave behind after formatting empty cells.
func trimUnnamedTail(header []string, rows [][]string) []string {
	for len(header) > 0 {
		last := len(header) - 1
		if !strings.HasPrefix(header[last], "Unnamed: ") {
			break
		}
		for _, row := range rows {
			if last < len(row) && strings.TrimSpace(row[last]) != "" {
				return header
			}
		}
		header = header[:last]
	}
	return header
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
