package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/roelfdiedericks/mentalnote/internal/config"
	"github.com/roelfdiedericks/mentalnote/internal/config/forms"
	"github.com/roelfdiedericks/mentalnote/internal/inbox"
	. "github.com/roelfdiedericks/mentalnote/internal/logging"
	"github.com/roelfdiedericks/mentalnote/internal/notes"
	"github.com/roelfdiedericks/mentalnote/internal/output"
	"github.com/roelfdiedericks/mentalnote/internal/pipeline"
)

// FormatFlag is shared by commands that print a note.
type FormatFlag struct {
	Format string `help:"Output format: text, json or yaml" short:"o" default:"text" enum:"text,json,yaml,yml"`
}

func (f FormatFlag) format() output.Format {
	format, _ := output.ParseFormat(f.Format)
	return format
}

// ProcessFlags are the per-run processing overrides.
type ProcessFlags struct {
	Provider string `help:"AI provider: openai, anthropic or gemini (default from settings)" short:"p"`
	Language string `help:"Output language (default from settings)" short:"l"`
	Prompt   string `help:"System prompt (default from settings)"`
	Save     bool   `help:"Save the note to Notion" short:"s"`
}

func (f ProcessFlags) overrides() (pipeline.Overrides, error) {
	o := pipeline.Overrides{SystemPrompt: f.Prompt, Language: f.Language}
	if f.Provider != "" {
		p, err := notes.ParseProvider(f.Provider)
		if err != nil {
			return o, err
		}
		o.Provider = p
	}
	return o, nil
}

// ProcessCmd structures text from arguments, a file or stdin.
type ProcessCmd struct {
	Text []string `arg:"" optional:"" help:"Text to process; read from --file or stdin when omitted"`
	File string   `help:"Read text from a file" short:"f" type:"existingfile"`
	ProcessFlags
	FormatFlag
}

func (c *ProcessCmd) Run(ctx context.Context, app *App) error {
	o, err := c.overrides()
	if err != nil {
		return err
	}
	text, err := c.input()
	if err != nil {
		return err
	}
	note, err := app.Pipeline().Run(ctx, text, o, c.Save)
	return show(note, c.format(), err)
}

func (c *ProcessCmd) input() (string, error) {
	if len(c.Text) > 0 {
		return strings.Join(c.Text, " "), nil
	}
	if c.File != "" {
		data, err := os.ReadFile(c.File)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no text given: pass it as an argument, with --file, or on stdin")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// TranscribeCmd prints the transcript of an audio file.
type TranscribeCmd struct {
	Audio string `arg:"" help:"Audio file" type:"existingfile"`
}

func (c *TranscribeCmd) Run(ctx context.Context, app *App) error {
	text, err := app.Pipeline().Transcribe(ctx, c.Audio)
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimSpace(text))
	return nil
}

// NoteCmd transcribes, processes and optionally saves one recording.
type NoteCmd struct {
	Audio string `arg:"" help:"Audio file" type:"existingfile"`
	ProcessFlags
	FormatFlag
}

func (c *NoteCmd) Run(ctx context.Context, app *App) error {
	o, err := c.overrides()
	if err != nil {
		return err
	}
	note, err := app.Pipeline().RunAudio(ctx, c.Audio, o, c.Save)
	return show(note, c.format(), err)
}

// SaveCmd saves an earlier result, as written by --format json, to Notion.
type SaveCmd struct {
	Result     string `help:"JSON note or result file" required:"" type:"existingfile"`
	Transcript string `help:"Transcript file (overrides the one in the result)" type:"existingfile"`
	FormatFlag
}

func (c *SaveCmd) Run(ctx context.Context, app *App) error {
	note, err := readNote(c.Result)
	if err != nil {
		return err
	}
	if c.Transcript != "" {
		data, err := os.ReadFile(c.Transcript)
		if err != nil {
			return err
		}
		note.Transcript = string(data)
	}

	url, err := app.Pipeline().Save(ctx, note.Transcript, note.Result)
	if err != nil {
		return err
	}
	note.PageURL = url
	return output.Render(os.Stdout, note, c.format())
}

// readNote accepts either a full note or a bare result object.
func readNote(path string) (*pipeline.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var note pipeline.Note
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if note.Result.Title == "" && note.Result.Content == "" {
		if err := json.Unmarshal(data, &note.Result); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if note.Result.Title == "" && note.Result.Content == "" {
		return nil, fmt.Errorf("%s has no title or content", path)
	}
	return &note, nil
}

// WatchCmd processes recordings dropped into a directory until interrupted.
type WatchCmd struct {
	Dir      string        `arg:"" help:"Directory to watch" type:"existingdir"`
	Debounce time.Duration `help:"Quiet time before a file is picked up" default:"2s"`
	ProcessFlags
}

func (c *WatchCmd) Run(ctx context.Context, app *App) error {
	o, err := c.overrides()
	if err != nil {
		return err
	}
	p := app.Pipeline()
	if p.Transcriber == nil {
		return fmt.Errorf("watching needs an OpenAI API key for Whisper transcription")
	}
	if c.Save && !app.Settings.HasNotion() {
		return pipeline.ErrNotionNotConfigured
	}

	w, err := inbox.NewWatcher(c.Dir, c.Debounce, func(ctx context.Context, path string) (*pipeline.Note, error) {
		return p.RunAudio(ctx, path, o, c.Save)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Watching %s, press Ctrl+C to stop\n", c.Dir)
	return w.Run(ctx)
}

// SettingsCmd edits settings with an interactive form and saves them.
type SettingsCmd struct{}

func (c *SettingsCmd) Run(app *App) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("settings needs an interactive terminal; edit %s instead", app.SettingsPath)
	}

	// Edit the file's own settings, not the flag/env overrides.
	s, _, err := config.Load(app.SettingsPath)
	if err != nil {
		return err
	}
	ok, err := forms.Run(s.FormDef(), s)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "Cancelled, nothing saved.")
		return nil
	}
	for _, w := range s.Validate() {
		L_warn("config: " + w)
	}
	if err := s.Save(app.SettingsPath); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved %s\n", app.SettingsPath)
	return nil
}

// ConfigCmd shows settings, lists backups or restores one.
type ConfigCmd struct {
	Backups bool `help:"List settings backups"`
	Restore int  `help:"Restore backup N (0 = newest)" default:"-1"`
	FormatFlag
}

func (c *ConfigCmd) Run(app *App) error {
	switch {
	case c.Restore >= 0:
		return config.RestoreBackup(app.SettingsPath, c.Restore)
	case c.Backups:
		backups := config.ListBackups(app.SettingsPath)
		if len(backups) == 0 {
			fmt.Println("No backups.")
		}
		for _, b := range backups {
			fmt.Printf("%d  %s  %s\n", b.Index, b.ModTime.Format(time.DateTime), b.Path)
		}
		return nil
	}
	fmt.Fprintf(os.Stderr, "# %s\n", app.SettingsPath)
	return output.Value(os.Stdout, app.Settings.Redacted(), c.format())
}

// StatsCmd prints the metrics recorded across runs.
type StatsCmd struct {
	FormatFlag
}

func (c *StatsCmd) Run(app *App) error {
	stages := app.Metrics.Snapshot()
	if len(stages) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}
	return output.Value(os.Stdout, stages, c.format())
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("mentalnote %s\n", version)
	return nil
}

// show renders whatever part of the note was produced, then reports err.
func show(note *pipeline.Note, format output.Format, err error) error {
	if note != nil && (note.Result.Title != "" || note.Result.Content != "") {
		if rerr := output.Render(os.Stdout, note, format); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}
