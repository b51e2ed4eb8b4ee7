package display

import (
	"fmt"
	"strings"
	"time"
)

// TimestampFormat is the standard timestamp format for CLI output.
const TimestampFormat = "2006-01-02 15:04:05"

// SeparatorLine is the standard section separator.
var SeparatorLine = strings.Repeat("─", 60)

// Formatter provides consistent output formatting.
type Formatter struct {
	indentLevel int
}

// NewFormatter creates a new formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// SetIndent sets the current indentation level.
func (f *Formatter) SetIndent(level int) *Formatter {
	f.indentLevel = level
	return f
}

// Indent returns the current indentation string.
func (f *Formatter) Indent() string {
	return strings.Repeat("  ", f.indentLevel)
}

// Section prints a section header with consistent formatting.
func (f *Formatter) Section(title string) string {
	if title != "" {
		return fmt.Sprintf("\n%s\n%s\n", Bold(title), SeparatorLine)
	}
	return fmt.Sprintf("\n%s\n", SeparatorLine)
}

// KeyValue formats a key-value pair with consistent alignment.
func (f *Formatter) KeyValue(key, value string) string {
	const keyWidth = 12
	return fmt.Sprintf("%s%-*s %s\n", f.Indent(), keyWidth, key+":", value)
}

// List formats a numbered list.
func (f *Formatter) List(items []string) string {
	var sb strings.Builder
	indent := f.Indent()
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%s%s %s\n", indent, Muted(fmt.Sprintf("%d.", i+1)), item))
	}
	return sb.String()
}

// Timestamp formats a time.Time using the standard format.
func (f *Formatter) Timestamp(t time.Time) string {
	return t.Format(TimestampFormat)
}

// RelativeTimestamp formats a time.Time as a relative duration.
func (f *Formatter) RelativeTimestamp(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return fmt.Sprintf("%d min ago", int(duration.Minutes()))
	case duration < 24*time.Hour:
		return fmt.Sprintf("%d hr ago", int(duration.Hours()))
	case duration < 30*24*time.Hour:
		return fmt.Sprintf("%d day ago", int(duration.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// Truncate truncates a string to a maximum length, adding "..." if truncated.
func (f *Formatter) Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}

// Table formats a simple table with headers.
func (f *Formatter) Table(headers []string, rows [][]string) string {
	var sb strings.Builder

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	headerCells := make([]string, len(headers))
	for i, h := range headers {
		headerCells[i] = fmt.Sprintf("%-*s", colWidths[i], h)
	}
	sb.WriteString(Bold(strings.Join(headerCells, "  ")))
	sb.WriteString("\n")

	var separators []string
	for _, w := range colWidths {
		separators = append(separators, strings.Repeat("─", w))
	}
	sb.WriteString(Muted(strings.Join(separators, "  ")))
	sb.WriteString("\n")

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i < len(colWidths) {
				cells[i] = fmt.Sprintf("%-*s", colWidths[i], cell)
			} else {
				cells[i] = cell
			}
		}
		sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		sb.WriteString("\n")
	}

	return sb.String()
}

// Section formats a section header.
func Section(title string) string {
	return NewFormatter().Section(title)
}

// KeyValue formats a key-value pair.
func KeyValue(key, value string) string {
	return NewFormatter().KeyValue(key, value)
}

// Table formats a simple table with headers.
func Table(headers []string, rows [][]string) string {
	return NewFormatter().Table(headers, rows)
}

// Truncate truncates a string to a maximum length.
func Truncate(s string, maxLen int) string {
	return NewFormatter().Truncate(s, maxLen)
}
