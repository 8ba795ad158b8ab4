package review

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

// WriteRecords writes records under the given header to path. The format
// follows the extension: .xlsx/.xlsm, .csv or .tsv. The file is replaced
// atomically.
func WriteRecords(path string, columns []Column, records []Record) error {
	ext := strings.ToLower(filepath.Ext(path))
	var write func(io.Writer) error
	switch ext {
	case ".xlsx", ".xlsm":
		write = func(w io.Writer) error { return writeWorkbook(w, ext, columns, records) }
	case ".csv":
		write = func(w io.Writer) error { return writeDelimited(w, ',', columns, records) }
	case ".tsv":
		write = func(w io.Writer) error { return writeDelimited(w, '\t', columns, records) }
	default:
		return fmt.Errorf("unsupported output type %q", ext)
	}

	return writeFileAtomic(path, write)
}

// writeFileAtomic writes through a temporary file next to path and renames
// it into place, creating the parent directory when needed.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(tmp), err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(tmp), err)
	}
	return nil
}

// writeWorkbook writes a single sheet. ext selects the package content type,
// so an .xlsm file is marked macro-enabled as Excel requires.
func writeWorkbook(w io.Writer, ext string, columns []Column, records []Record) error {
	wb := excelize.NewFile()
	defer wb.Close()
	wb.Path = "export" + ext

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col.Name
	}
	if err := wb.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]any, len(columns))
		for col, v := range rec.values {
			if col < len(row) {
				row[col] = v.Interface()
			}
		}
		if err := wb.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := wb.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeDelimited(w io.Writer, comma rune, columns []Column, records []Record) error {
	// Excel reads CSV as UTF-8 only behind a byte order mark.
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = comma
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		row := make([]string, len(columns))
		for col, v := range rec.values {
			if col < len(row) {
				row[col] = v.String()
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// OutputName returns prefix + the base name of source, or prefix +
// "result.xlsx" when there is no source name.
func OutputName(prefix, source string) string {
	base := filepath.Base(strings.TrimSpace(source))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "result.xlsx"
	}
	return prefix + base
}
