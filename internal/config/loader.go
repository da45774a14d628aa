package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/mapping"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/schema"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
)

// LoadMapping reads the column mapping file at filePath. Files ending in
// .yaml or .yml are parsed as YAML, everything else as JSON. Blank rows are
// dropped.
func LoadMapping(filePath string) (*mapping.ColumnMapping, error) {
	var rows []models.MappingRow
	if err := readRows(filePath, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file '%s': %w", filePath, err)
	}

	m, err := mapping.FromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("invalid mapping file '%s': %w", filePath, err)
	}
	return m, nil
}

// LoadSchema reads the Measurement Protocol schema file at filePath, in the
// same formats as LoadMapping.
func LoadSchema(filePath string) (*schema.Registry, error) {
	var rows []models.SchemaRow
	if err := readRows(filePath, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse schema file '%s': %w", filePath, err)
	}

	r, err := schema.FromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("invalid schema file '%s': %w", filePath, err)
	}
	return r, nil
}

func readRows(filePath string, out interface{}) error {
	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(bytes, out)
	default:
		return json.Unmarshal(bytes, out)
	}
}
