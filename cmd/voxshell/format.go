package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/voxshell/internal/dbus"
)

// windowRecord is the json/yaml shape of one window.
type windowRecord struct {
	Name       string `json:"name" yaml:"name"`
	State      string `json:"state" yaml:"state"`
	InstanceID string `json:"instance_id,omitempty" yaml:"instance_id,omitempty"`
	X          int32  `json:"x" yaml:"x"`
	Y          int32  `json:"y" yaml:"y"`
	CreatedAt  string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	ShownAt    string `json:"shown_at,omitempty" yaml:"shown_at,omitempty"`
}

func windowRecords(windows []dbus.WindowStatus) []windowRecord {
	records := make([]windowRecord, 0, len(windows))
	for _, w := range windows {
		records = append(records, windowRecord{
			Name:       w.Name,
			State:      w.State,
			InstanceID: w.InstanceID,
			X:          w.X,
			Y:          w.Y,
			CreatedAt:  rfc3339(w.CreatedAt()),
			ShownAt:    rfc3339(w.ShownAt()),
		})
	}
	return records
}

func rfc3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// relativeTime formats t as a human-readable relative time, "-" when unset.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = cellStyle.Foreground(lipgloss.Color("8"))
)

// renderWindowTable renders windows as a bordered table.
func renderWindowTable(windows []dbus.WindowStatus) string {
	rows := make([][]string, 0, len(windows))
	for _, w := range windows {
		pos := "-"
		if w.State != "nonexistent" {
			pos = fmt.Sprintf("%d,%d", w.X, w.Y)
		}
		rows = append(rows, []string{
			w.Name,
			w.State,
			pos,
			relativeTime(w.CreatedAt()),
			relativeTime(w.ShownAt()),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("WINDOW", "STATE", "POSITION", "CREATED", "SHOWN").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case rows[row][1] == "nonexistent":
				return dimStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

// encode writes v as indented JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// encodeStore writes store values. JSON output keeps the stored text; YAML
// output decodes each value first so it renders natively.
func encodeStore(w io.Writer, format string, values map[string]json.RawMessage) error {
	if strings.ToLower(format) != "yaml" {
		return encode(w, format, values)
	}

	decoded := make(map[string]any, len(values))
	for k, raw := range values {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("value of %q is not valid JSON: %w", k, err)
		}
		decoded[k] = v
	}
	return encode(w, format, decoded)
}

// normalizeValue checks that s is a JSON document and compacts it.
func normalizeValue(s string) (string, error) {
	if !json.Valid([]byte(s)) {
		return "", fmt.Errorf("value %q is not valid JSON (quote strings, e.g. '\"text\"')", s)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// eventJSON is the json shape of one monitor event.
type eventJSON struct {
	Signal string   `json:"signal"`
	Window string   `json:"window,omitempty"`
	State  string   `json:"state,omitempty"`
	Keys   []string `json:"keys,omitempty"`
}

func eventRecord(e dbus.Event) eventJSON {
	return eventJSON(e)
}

// formatEvent renders an event as a single line.
func formatEvent(e dbus.Event) string {
	switch e.Signal {
	case "WindowStateChanged":
		return fmt.Sprintf("%s %s %s", e.Signal, e.Window, e.State)
	case "StoreChanged":
		keys := append([]string(nil), e.Keys...)
		sort.Strings(keys)
		return fmt.Sprintf("%s %s", e.Signal, strings.Join(keys, ","))
	default:
		return e.Signal
	}
}
