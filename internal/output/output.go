// Package output renders notes for the terminal or for other programs.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roelfdiedericks/mentalnote/internal/pipeline"
)

// Format selects how a note is written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml (yml too).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Render writes note to w in the given format.
func Render(w io.Writer, note *pipeline.Note, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(note)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(note); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		_, err := io.WriteString(w, renderText(newStyles(w), note))
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}

func renderText(st styles, note *pipeline.Note) string {
	var b strings.Builder
	r := note.Result

	b.WriteString(st.title.Render(r.Title))
	b.WriteString("\n")

	meta := st.category.Render(r.Category)
	if len(r.Tags) > 0 {
		tags := make([]string, len(r.Tags))
		for i, t := range r.Tags {
			tags[i] = "#" + t
		}
		meta += "  " + st.tag.Render(strings.Join(tags, " "))
	}
	b.WriteString(meta)
	b.WriteString("\n\n")

	b.WriteString(strings.TrimRight(r.Content, "\n"))
	b.WriteString("\n")

	if note.Transcript != "" {
		b.WriteString("\n")
		b.WriteString(st.section.Render("Transcript"))
		b.WriteString("\n")
		b.WriteString(st.muted.Render(strings.TrimSpace(note.Transcript)))
		b.WriteString("\n")
	}

	if note.PageURL != "" {
		b.WriteString("\n")
		b.WriteString("Saved to Notion: " + st.link.Render(note.PageURL))
		b.WriteString("\n")
	}
	return b.String()
}

// Error writes a styled error line with an optional hint below it.
func Error(w io.Writer, err error, hint string) {
	st := newStyles(w)
	fmt.Fprintln(w, st.err.Render("Error: "+err.Error()))
	if hint != "" {
		fmt.Fprintln(w, st.muted.Render(hint))
	}
}

// Value writes any value, such as redacted settings or stats, in the given
// format. Text falls back to YAML framed in a box.
func Value(w io.Writer, v any, format Format) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	if format == FormatYAML {
		_, err = w.Write(data)
		return err
	}
	_, err = fmt.Fprintln(w, newStyles(w).box.Render(strings.TrimRight(string(data), "\n")))
	return err
}
