package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/roelfdiedericks/mentalnote/internal/notes"
	"github.com/roelfdiedericks/mentalnote/internal/pipeline"
)

func sampleNote() *pipeline.Note {
	return &pipeline.Note{
		Transcript: "remember to buy milk and call the dentist",
		Result: notes.ProcessResult{
			Title:    "Errands",
			Content:  "- Buy milk\n- Call the dentist\n",
			Category: "Personal",
			Tags:     []string{"shopping", "health"},
		},
		PageURL: "https://www.notion.so/errands-123",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleNote(), FormatText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Errands",
		"Personal",
		"#shopping #health",
		"- Buy milk\n- Call the dentist\n",
		"Transcript",
		"remember to buy milk",
		"Saved to Notion: https://www.notion.so/errands-123",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal output should not contain ANSI escapes")
	}
}

func TestRenderTextMinimal(t *testing.T) {
	var buf bytes.Buffer
	note := &pipeline.Note{Result: notes.ProcessResult{Title: "T", Content: "c", Category: "General", Tags: []string{}}}
	Render(&buf, note, FormatText)
	out := buf.String()
	if strings.Contains(out, "Transcript") || strings.Contains(out, "Notion") || strings.Contains(out, "#") {
		t.Errorf("unexpected sections:\n%s", out)
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleNote(), FormatJSON); err != nil {
		t.Fatal(err)
	}
	var got pipeline.Note
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if got.Result.Title != "Errands" || len(got.Result.Tags) != 2 || got.PageURL == "" {
		t.Errorf("got %+v", got)
	}
	if !strings.Contains(buf.String(), `"pageUrl"`) {
		t.Error("missing pageUrl key")
	}
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleNote(), FormatYAML); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	result, ok := got["result"].(map[string]any)
	if !ok || result["category"] != "Personal" {
		t.Errorf("yaml = %v", got)
	}
	if got["transcript"] != "remember to buy milk and call the dentist" {
		t.Errorf("transcript = %v", got["transcript"])
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	if err := Render(&bytes.Buffer{}, sampleNote(), Format("xml")); err == nil {
		t.Error("expected error")
	}
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	Error(&buf, errors.New("boom"), "Check your API key.")
	if !strings.Contains(buf.String(), "Error: boom") || !strings.Contains(buf.String(), "Check your API key.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestValue(t *testing.T) {
	v := map[string]string{"openaiKey": "****abcd"}
	for _, f := range []Format{FormatText, FormatJSON, FormatYAML} {
		var buf bytes.Buffer
		if err := Value(&buf, v, f); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if !strings.Contains(buf.String(), "****abcd") {
			t.Errorf("%s output = %q", f, buf.String())
		}
	}
}
