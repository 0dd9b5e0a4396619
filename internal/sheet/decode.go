package sheet

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

// Format identifies how an upload is decoded.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var (
	// ErrUnsupportedFormat is returned for file types that cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

	// ErrEmptyFile is returned when the upload decodes to no rows at all.
	ErrEmptyFile = errors.New("empty file")
)

// zipMagic is the local file header signature every xlsx starts with.
var zipMagic = []byte("PK\x03\x04")

// DetectFormat picks a decoder from the file name, falling back to sniffing
// the content when the extension is missing or unknown.
func DetectFormat(fileName string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatXLSX, nil
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".xls":
		// BIFF workbooks predate the zip container excelize reads.
		return "", fmt.Errorf("%w: legacy .xls, save as .xlsx", ErrUnsupportedFormat)
	}

	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX, nil
	}
	if len(data) > 0 && isText(data) {
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
}

// Decode reads an uploaded spreadsheet into a Worksheet. For workbooks only
// the first sheet is read.
func Decode(fileName string, data []byte) (Worksheet, error) {
	format, err := DetectFormat(fileName, data)
	if err != nil {
		return nil, err
	}

	var ws Worksheet
	switch format {
	case FormatXLSX:
		ws, err = decodeXLSX(data)
	default:
		ws, err = decodeCSV(data)
	}
	if err != nil {
		return nil, err
	}

	if len(ws) == 0 {
		return nil, ErrEmptyFile
	}
	return ws, nil
}

// DecodeReader is Decode for callers holding a stream.
func DecodeReader(fileName string, r io.Reader) (Worksheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	return Decode(fileName, data)
}

func decodeXLSX(data []byte) (Worksheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("open workbook: %w", ErrEmptyFile)
	}

	// Raw values keep numeric HS codes free of display formatting.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return Worksheet(rows), nil
}

func decodeCSV(data []byte) (Worksheet, error) {
	data = sanitizeUTF8(stripBOM(data))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = DetectDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return Worksheet(records), nil
}

// DetectDelimiter returns the delimiter that splits the leading lines into
// the most consistent number of columns. Comma wins ties.
func DetectDelimiter(data []byte) rune {
	sample := data
	if len(sample) > 64*1024 {
		sample = sample[:64*1024]
	}

	best := ','
	bestScore := 0
	for _, delim := range []rune{',', ';', '\t', '|'} {
		r := csv.NewReader(bytes.NewReader(sample))
		r.Comma = delim
		r.LazyQuotes = true
		r.FieldsPerRecord = -1

		counts := make(map[int]int)
		for i := 0; i < 50; i++ {
			rec, err := r.Read()
			if err != nil {
				break
			}
			if len(rec) > 1 {
				counts[len(rec)]++
			}
		}

		score := 0
		for cols, n := range counts {
			if s := n*10 + cols; s > score {
				score = s
			}
		}
		if score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

func isText(data []byte) bool {
	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}
	return !bytes.ContainsRune(sample, 0)
}
