// Package common provides CSV helpers shared by the transaction sources and
// the batch enrichment command.
package common

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"fjacquet/spend-intel/internal/fileutils"
	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/models"

	"github.com/gocarina/gocsv"
)

// Delimiter is the field separator used when reading and writing CSV files.
var Delimiter rune = ','

// SetDelimiter changes the CSV delimiter.
func SetDelimiter(delim rune) {
	Delimiter = delim
}

func newReader(in io.Reader) gocsv.CSVReader {
	r := csv.NewReader(in)
	r.Comma = Delimiter
	r.TrimLeadingSpace = true
	return r
}

// ReadCSVFile reads CSV data into a slice of structs using gocsv.
// TCSVRow is the struct type that maps to the CSV columns.
func ReadCSVFile[TCSVRow any](filePath string, logger logging.Logger) ([]TCSVRow, error) {
	logger = logging.OrDefault(logger)
	logger.Debug("Reading CSV file", logging.F(logging.FieldPath, filePath))

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	var rows []TCSVRow
	if err := gocsv.UnmarshalCSV(newReader(file), &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV file: %w", err)
	}

	logger.Debug("Read CSV data",
		logging.F(logging.FieldPath, filePath),
		logging.F(logging.FieldCount, len(rows)))
	return rows, nil
}

// WriteCSVFile writes rows to filePath, creating the parent directory. The
// file is replaced atomically, so enriching a file in place is safe.
func WriteCSVFile[TCSVRow any](rows []TCSVRow, filePath string, logger logging.Logger) error {
	logger = logging.OrDefault(logger)
	if rows == nil {
		return fmt.Errorf("cannot write nil rows to CSV")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = Delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(w)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	if err := fileutils.WriteFileAtomic(filePath, buf.Bytes(), models.PermissionArtifactFile); err != nil {
		return fmt.Errorf("error writing CSV file: %w", err)
	}

	logger.Info("Wrote CSV file",
		logging.F(logging.FieldPath, filePath),
		logging.F(logging.FieldCount, len(rows)))
	return nil
}
