// Package output provides output formatting for the dcauth CLI.
//
// Commands render either a human-readable table or machine-readable JSON
// with a stable schema, selected by the output-format setting.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Result is the structured JSON output schema shared by all commands.
type Result struct {
	Success   bool         `json:"success"`
	Timestamp string       `json:"timestamp"`
	Command   string       `json:"command,omitempty"`
	Data      any          `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries error information in JSON output.
type ErrorDetail struct {
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// JSONFormatter formats output as indented JSON.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// Write outputs the result as JSON.
func (j *JSONFormatter) Write(result Result) error {
	if result.Timestamp == "" {
		result.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	encoder := json.NewEncoder(j.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// TableFormatter formats output as aligned key/value or columnar text.
type TableFormatter struct {
	writer *tabwriter.Writer
}

// NewTableFormatter creates a table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
	}
}

// WriteRow writes one tab-separated row.
func (t *TableFormatter) WriteRow(values ...string) error {
	for i, v := range values {
		if i > 0 {
			fmt.Fprint(t.writer, "\t")
		}
		fmt.Fprint(t.writer, v)
	}
	fmt.Fprintln(t.writer)
	return nil
}

// Flush flushes buffered rows.
func (t *TableFormatter) Flush() error {
	return t.writer.Flush()
}

// PrintKV renders key/value pairs as an aligned table.
func PrintKV(w io.Writer, pairs [][2]string) error {
	formatter := NewTableFormatter(w)
	for _, p := range pairs {
		if err := formatter.WriteRow(p[0], p[1]); err != nil {
			return err
		}
	}
	return formatter.Flush()
}
