package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any, prettyPrint bool) ([]byte, error)
}

// Tabular is implemented by results that render as a table.
type Tabular interface {
	Header() []string
	Rows() [][]string
}

// New returns the formatter registered under name.
func New(name string) (Formatter, error) {
	switch strings.ToLower(name) {
	case "json":
		return &JSONFormatter{}, nil
	case "yaml", "yml":
		return &YAMLFormatter{}, nil
	case "text", "":
		return &TextFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}

// Write formats data and writes it to w followed by a newline when the
// formatted output lacks one.
func Write(w io.Writer, f Formatter, data any, prettyPrint bool) error {
	out, err := f.Format(data, prettyPrint)
	if err != nil {
		return err
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	_, err = w.Write(out)
	return err
}

// JSONFormatter formats output as JSON
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any, prettyPrint bool) ([]byte, error) {
	if prettyPrint {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any, _ bool) ([]byte, error) {
	return yaml.Marshal(data)
}

// TextFormatter renders Tabular data as aligned columns, strings as is and
// anything else with %v. Without prettyPrint columns are tab separated.
type TextFormatter struct{}

func (f *TextFormatter) Format(data any, prettyPrint bool) ([]byte, error) {
	switch v := data.(type) {
	case Tabular:
		return formatTable(v, prettyPrint)
	case string:
		return []byte(v), nil
	case fmt.Stringer:
		return []byte(v.String()), nil
	default:
		return []byte(fmt.Sprintf("%v", v)), nil
	}
}

func formatTable(t Tabular, prettyPrint bool) ([]byte, error) {
	var buf bytes.Buffer
	if !prettyPrint {
		for _, row := range append([][]string{t.Header()}, t.Rows()...) {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	}
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	for _, row := range append([][]string{t.Header()}, t.Rows()...) {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return nil, fmt.Errorf("failed to write table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush table: %w", err)
	}
	return buf.Bytes(), nil
}
