package models

import "strings"

// Value is a single scalar cell or payload field. It holds a string, a number
// (float64 or one of the integer kinds) or a bool.
type Value = any

// MappingRow represents one line of the column mapping file.
type MappingRow struct {
	SourceColumn string `json:"sourceColumn" yaml:"sourceColumn"`
	TargetPath   string `json:"targetPath" yaml:"targetPath"`
}

// Blank reports whether the row lacks either side of the mapping.
func (r MappingRow) Blank() bool {
	return strings.TrimSpace(r.SourceColumn) == "" || strings.TrimSpace(r.TargetPath) == ""
}

// SchemaRow represents one line of the Measurement Protocol schema file.
type SchemaRow struct {
	Path     string `json:"path" yaml:"path"`
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required" yaml:"required"`
}

func (r SchemaRow) Blank() bool {
	return strings.TrimSpace(r.Path) == ""
}

// StagedRecord is one payload held by the staging store together with its
// validation and delivery status.
type StagedRecord struct {
	Position   int    `json:"position" bson:"position"`
	Payload    string `json:"payload" bson:"payload"`
	Validation string `json:"validation" bson:"validation"`
	Status     string `json:"status" bson:"status"`
}

// Staging status literals.
const (
	StatusUnvalidated = "UNVALIDATED"
	StatusValid       = "VALID"
	StatusUnsent      = "UNSENT"
	StatusSent        = "SENT"
)
