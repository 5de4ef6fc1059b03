// Package csvutil provides CSV-backed grid I/O for table files.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// ReadGrid reads an entire table file into raw rows. Records are allowed to
// have differing field counts; padding to a rectangle is the caller's job.
func ReadGrid(filename string, delim rune) ([][]string, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = csvFile.Close() }()

	reader := csv.NewReader(csvFile)
	reader.Comma = delim
	// Rows of a table file may have been written by hand; accept ragged input.
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV records: %w", err)
	}

	return rows, nil
}

// WriteGrid rewrites the whole table file, one line per row, UTF-8 encoded.
func WriteGrid(filename string, rows [][]string, delim rune, perm os.FileMode) error {
	csvFile, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to open CSV file for writing: %w", err)
	}

	writer := csv.NewWriter(csvFile)
	writer.Comma = delim

	for _, row := range rows {
		// A lone empty field would serialize as a blank line, which the
		// reader then skips; quote it so single-column tables round-trip.
		if len(row) == 1 && row[0] == "" {
			writer.Flush()
			if err := writer.Error(); err != nil {
				_ = csvFile.Close()
				return fmt.Errorf("failed to flush CSV records: %w", err)
			}
			if _, err := csvFile.WriteString(`""` + "\n"); err != nil {
				_ = csvFile.Close()
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
			continue
		}
		if err := writer.Write(row); err != nil {
			_ = csvFile.Close()
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = csvFile.Close()
		return fmt.Errorf("failed to flush CSV records: %w", err)
	}

	if err := csvFile.Close(); err != nil {
		return fmt.Errorf("failed to close CSV file: %w", err)
	}
	return nil
}

// ScanDims returns the row count and the widest column count of a table file
// without keeping the cell data around.
func ScanDims(filename string, delim rune) (rows, cols int, err error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = csvFile.Close() }()

	reader := csv.NewReader(csvFile)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, fmt.Errorf("failed to read CSV record: %w", err)
		}
		rows++
		if len(record) > cols {
			cols = len(record)
		}
	}

	return rows, cols, nil
}
