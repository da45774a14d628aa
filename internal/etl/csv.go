package etl

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/source"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/logger"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/utils"
)

// CSVTableReader reads the input table from a CSV file whose first row is
// the header. UTF-8 and BOM-marked UTF-16 files are accepted.
type CSVTableReader struct {
	Path string
}

func (c *CSVTableReader) Read(ctx context.Context) (*source.Table, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file '%s': %w", c.Path, err)
	}
	defer f.Close()

	t, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input file '%s': %w", c.Path, err)
	}
	return t, nil
}

// ParseCSV reads a CSV table. Rows shorter than the header are padded with
// empty cells and longer rows are truncated.
func ParseCSV(r io.Reader) (*source.Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file: no header row found")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	var rows [][]models.Value
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) != len(headers) {
			logger.Warnf("line %d has %d columns, expected %d", line, len(record), len(headers))
		}
		row := make([]models.Value, len(headers))
		for i := range row {
			if i < len(record) {
				row[i] = utils.ParseCell(record[i])
			} else {
				row[i] = ""
			}
		}
		rows = append(rows, row)
	}
	return source.New(headers, rows), nil
}
