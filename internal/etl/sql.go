package etl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/source"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
)

// SQLTableReader reads the input table from a SQL Server query.
type SQLTableReader struct {
	DB    *sql.DB
	Query string
}

func (s *SQLTableReader) Read(ctx context.Context) (*source.Table, error) {
	rows, err := s.DB.QueryContext(ctx, s.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to run input query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var data [][]models.Value
	for rows.Next() {
		columns := make([]interface{}, len(cols))
		columnPointers := make([]interface{}, len(cols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}
		if err := rows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		row := make([]models.Value, len(cols))
		for i, val := range columns {
			row[i] = sqlCell(val)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input rows: %w", err)
	}
	return source.New(cols, data), nil
}

// sqlCell maps a scanned driver value onto the cell kinds of a table.
func sqlCell(val interface{}) models.Value {
	switch v := val.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	case string, bool, int64, float64:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
