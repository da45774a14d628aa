package etl

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
)

// ValidationMessage is one problem reported by the validation endpoint.
type ValidationMessage struct {
	Description    string `json:"description"`
	FieldPath      string `json:"fieldPath,omitempty"`
	ValidationCode string `json:"validationCode,omitempty"`
}

// ValidationResult is the body returned by the validation endpoint.
type ValidationResult struct {
	ValidationMessages []ValidationMessage `json:"validationMessages"`
}

// ValidationResultFromResponse interprets a validation response. Non-200
// responses and unreadable bodies become a single ERROR message.
func ValidationResultFromResponse(resp Response) ValidationResult {
	if resp.Code != http.StatusOK {
		return errorResult(fmt.Sprintf("Could not validate payload (HTTP error: %d", resp.Code))
	}
	var result ValidationResult
	if err := json.Unmarshal([]byte(resp.Text), &result); err != nil {
		return errorResult(fmt.Sprintf("Could not parse validation response: %v", err))
	}
	return result
}

func errorResult(description string) ValidationResult {
	return ValidationResult{ValidationMessages: []ValidationMessage{{
		Description:    description,
		ValidationCode: "ERROR",
	}}}
}

func (r ValidationResult) IsValid() bool {
	return len(r.ValidationMessages) == 0
}

// Status renders the result as a staging status: VALID, or one line per
// message.
func (r ValidationResult) Status() string {
	if r.IsValid() {
		return models.StatusValid
	}
	lines := make([]string, len(r.ValidationMessages))
	for i, m := range r.ValidationMessages {
		lines[i] = m.String()
	}
	return strings.Join(lines, "\n")
}

func (m ValidationMessage) String() string {
	msg := m.Description
	if m.FieldPath != "" {
		msg = fmt.Sprintf("Error on field \"%s\": %s", m.FieldPath, msg)
	}
	if m.ValidationCode != "" {
		msg = fmt.Sprintf("%s (Code: %s)", msg, m.ValidationCode)
	}
	return msg
}

// sendable reports whether a record with the given validation status may be
// sent. The "UVALIDATED" literal is matched as historically written, so
// records still marked UNVALIDATED are held back until validated.
func sendable(validation string) bool {
	switch validation {
	case "UVALIDATED", "", models.StatusValid:
		return true
	default:
		return false
	}
}
