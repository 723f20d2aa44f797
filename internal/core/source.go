package core

// source.go reads import rows from uploaded spreadsheets.
//
// CSV input is streamed through the BOM-skipping and UTF-8 sanitizing
// readers so memory stays bounded regardless of file size. XLSX workbooks
// must be opened whole; only the first sheet is read.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tealeg/xlsx"
)

// RowSource yields the header and then the data rows of an import input.
// Next returns io.EOF after the last row.
type RowSource interface {
	Header() []string
	Next() ([]string, error)
}

// UploadFile is what OpenSource needs from an uploaded file.
// multipart.File satisfies it.
type UploadFile interface {
	io.Reader
	io.ReaderAt
}

// OpenSource picks a reader by file extension: .xlsx files are read as
// workbooks, everything else as CSV.
func OpenSource(filename string, f UploadFile, size int64) (RowSource, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		src, err := NewXLSXSource(f, size)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	src, err := NewCSVSource(f)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// CSVSource streams rows from CSV input.
type CSVSource struct {
	reader  *csv.Reader
	counter *CountingReader
	header  []string
}

// NewCSVSource reads the header row from r. It returns ErrEmptyFile when r
// holds no rows at all.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	counter := WrapForStreaming(r)

	cr := csv.NewReader(counter)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv header: %w", err)
	}

	return &CSVSource{reader: cr, counter: counter, header: header}, nil
}

// Header implements RowSource.
func (s *CSVSource) Header() []string { return s.header }

// Next implements RowSource.
func (s *CSVSource) Next() ([]string, error) {
	rec, err := s.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return rec, nil
}

// BytesRead reports how much of the input has been consumed.
func (s *CSVSource) BytesRead() int64 { return s.counter.BytesRead }

// XLSXSource yields rows from the first sheet of a workbook.
type XLSXSource struct {
	rows   []*xlsx.Row
	header []string
	pos    int
}

// NewXLSXSource parses the workbook in r. The first row of the first sheet
// is the header.
func NewXLSXSource(r io.ReaderAt, size int64) (*XLSXSource, error) {
	wb, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	if len(wb.Sheets) == 0 || len(wb.Sheets[0].Rows) == 0 {
		return nil, ErrEmptyFile
	}

	rows := wb.Sheets[0].Rows
	return &XLSXSource{
		rows:   rows,
		header: cellStrings(rows[0]),
		pos:    1,
	}, nil
}

// Header implements RowSource.
func (s *XLSXSource) Header() []string { return s.header }

// Next implements RowSource.
func (s *XLSXSource) Next() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return cellStrings(row), nil
}

func cellStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		if cell != nil {
			out[i] = strings.TrimSpace(cell.String())
		}
	}
	return out
}
