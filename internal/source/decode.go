package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a decoded sheet: the first non-empty row is the header.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]string
}

var ErrEmptyDocument = errors.New("document has no header row")

// Format is the decoder selected for a document.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat picks the decoder from the file extension, then the content
// type, then the zip magic number.
func DetectFormat(doc *Document) (Format, error) {
	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	}
	ct := strings.ToLower(doc.ContentType)
	switch {
	case strings.Contains(ct, "spreadsheetml"):
		return FormatXLSX, nil
	case strings.Contains(ct, "csv"):
		return FormatCSV, nil
	}
	if bytes.HasPrefix(doc.Data, []byte("PK\x03\x04")) {
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported document %q (xlsx or csv expected)", doc.Name)
}

// Decode turns a document into a Table. sheet selects a worksheet by name
// for xlsx input; empty means the first sheet.
func Decode(doc *Document, sheet string) (*Table, error) {
	if doc == nil || len(doc.Data) == 0 {
		return nil, ErrEmptyDocument
	}
	format, err := DetectFormat(doc)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, sheet, err = readXLSX(doc.Data, sheet)
	default:
		rows, err = readCSV(doc.Data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", doc.Name, err)
	}

	// skip leading blank rows
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDocument
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return &Table{Sheet: sheet, Header: header, Rows: rows[1:]}, nil
}

// readXLSX returns raw cell values, so dates arrive as Excel serials and
// times as day fractions regardless of the cell number format.
func readXLSX(data []byte, sheet string) ([][]string, string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, "", ErrEmptyDocument
		}
		sheet = list[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, "", fmt.Errorf("sheet %q not found", sheet)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, "", err
	}
	return rows, sheet, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if sep := sniffSeparator(data); sep != ',' {
		r.Comma = sep
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
}

// sniffSeparator prefers ';' when the first line has more semicolons than
// commas (spreadsheet exports in comma-decimal locales).
func sniffSeparator(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
