package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

// readXLSX returns the cells of the first worksheet.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoColumns
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// readXLS returns the cells of the first worksheet of a legacy BIFF workbook.
// The decoder needs random access, so the payload is buffered.
func readXLS(r io.Reader) (records [][]string, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	// the BIFF decoder panics on some malformed inputs
	defer func() {
		if p := recover(); p != nil {
			records, err = nil, fmt.Errorf("open xls: malformed workbook: %v", p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoColumns
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		rec := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			if c < row.FirstCol() {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, row.Col(c))
		}
		records = append(records, rec)
	}
	return records, nil
}
