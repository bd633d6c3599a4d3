package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/roelfdiedericks/mentalnote/internal/config"
	"github.com/roelfdiedericks/mentalnote/internal/llm"
	. "github.com/roelfdiedericks/mentalnote/internal/logging"
	"github.com/roelfdiedericks/mentalnote/internal/metrics"
	"github.com/roelfdiedericks/mentalnote/internal/notes"
	"github.com/roelfdiedericks/mentalnote/internal/notion"
	"github.com/roelfdiedericks/mentalnote/internal/output"
	"github.com/roelfdiedericks/mentalnote/internal/paths"
	"github.com/roelfdiedericks/mentalnote/internal/pipeline"
	"github.com/roelfdiedericks/mentalnote/internal/stt"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

// CLI is the root command line.
type CLI struct {
	Config  string        `help:"Settings file (default ./mentalnote.json, then ~/.mentalnote/mentalnote.json)" short:"c" type:"path"`
	Debug   bool          `help:"Enable debug logging" short:"d"`
	Trace   bool          `help:"Enable trace logging"`
	Dump    bool          `help:"Write failed LLM requests to ~/.mentalnote/llm_dumps"`
	Timeout time.Duration `help:"Timeout per network call (0 keeps the client default)" default:"0s"`

	OpenAIKey        string `name:"openai-key" env:"OPENAI_API_KEY" help:"OpenAI API key (overrides settings)"`
	AnthropicKey     string `name:"anthropic-key" env:"ANTHROPIC_API_KEY" help:"Anthropic API key (overrides settings)"`
	GeminiKey        string `name:"gemini-key" env:"GEMINI_API_KEY" help:"Gemini API key (overrides settings)"`
	NotionToken      string `name:"notion-token" env:"NOTION_TOKEN" help:"Notion integration token (overrides settings)"`
	NotionDatabaseID string `name:"notion-database-id" env:"NOTION_DATABASE_ID" help:"Notion database id (overrides settings)"`

	Process    ProcessCmd    `cmd:"" help:"Turn text into a structured note"`
	Transcribe TranscribeCmd `cmd:"" help:"Transcribe an audio file with Whisper"`
	Note       NoteCmd       `cmd:"" help:"Transcribe an audio file and turn it into a note"`
	Save       SaveCmd       `cmd:"" help:"Save a processed note to Notion"`
	Watch      WatchCmd      `cmd:"" help:"Process every recording dropped into a directory"`
	Stats      StatsCmd      `cmd:"" help:"Show per-stage timings and failure counts"`
	Settings   SettingsCmd   `cmd:"" help:"Edit settings interactively"`
	ShowConfig ConfigCmd     `cmd:"" name:"config" help:"Show settings with secrets redacted"`
	Version    VersionCmd    `cmd:"" help:"Show version"`
}

// App is shared by every command.
type App struct {
	Settings     *config.Settings
	SettingsPath string
	Timeout      time.Duration
	DumpDir      string
	Metrics      *metrics.Manager
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("mentalnote"),
		kong.Description("Voice notes in, structured notes out."),
		kong.UsageOnError(),
	)

	level := LevelWarn
	if cli.Debug {
		level = LevelDebug
	}
	if cli.Trace {
		level = LevelTrace
	}
	Init(&Config{Level: level, TimeFormat: "15:04:05", ShowCaller: cli.Trace})

	app, err := newApp(&cli)
	if err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(app)
	if cerr := app.Metrics.Close(); cerr != nil {
		L_warn("metrics: close failed", "error", cerr)
	}
	if err != nil {
		stop()
		fail(err)
	}
}

func fail(err error) {
	output.Error(os.Stderr, err, llm.Hint(err))
	os.Exit(1)
}

func newApp(cli *CLI) (*App, error) {
	s, path, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	applyOverrides(s, cli)

	app := &App{Settings: s, SettingsPath: path, Timeout: cli.Timeout}
	if cli.Dump {
		dir, err := paths.DumpDir()
		if err != nil {
			return nil, err
		}
		if err := paths.EnsureDir(dir); err != nil {
			return nil, err
		}
		app.DumpDir = dir
	}
	if dbPath, err := metrics.DefaultPath(); err == nil {
		if m, err := metrics.Open(dbPath); err == nil {
			app.Metrics = m
		} else {
			L_warn("metrics disabled", "error", err)
		}
	}

	L_debug("settings", "path", path, "openai", Redact(s.OpenAIKey), "anthropic", Redact(s.AnthropicKey),
		"gemini", Redact(s.GeminiKey), "notion", Redact(s.NotionToken))
	return app, nil
}

// applyOverrides copies non-empty flag/env values over the loaded settings.
// Overrides live only for this run and are never saved.
func applyOverrides(s *config.Settings, cli *CLI) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&s.OpenAIKey, cli.OpenAIKey)
	set(&s.AnthropicKey, cli.AnthropicKey)
	set(&s.GeminiKey, cli.GeminiKey)
	set(&s.NotionToken, cli.NotionToken)
	set(&s.NotionDatabaseID, cli.NotionDatabaseID)
}

// Pipeline wires the configured backends. Missing credentials leave the
// matching step nil; the pipeline reports it when the step is used.
func (a *App) Pipeline() *pipeline.Pipeline {
	p := &pipeline.Pipeline{
		Processor: notes.NewDispatcher(llm.NewFactory(llm.Options{
			Timeout: a.Timeout,
			DumpDir: a.DumpDir,
		})),
		Settings: a.Settings,
		Metrics:  a.Metrics,
	}

	if a.Settings.OpenAIKey != "" {
		w, err := stt.NewWhisperProvider(stt.WhisperConfig{
			APIKey:  a.Settings.OpenAIKey,
			BaseURL: a.Settings.WhisperBaseURL,
			Timeout: a.Timeout,
		})
		if err == nil {
			p.Transcriber = w
		}
	}

	if a.Settings.NotionToken != "" {
		c, err := notion.NewClient(notion.ClientConfig{Token: a.Settings.NotionToken, Timeout: a.Timeout})
		if err == nil {
			p.Saver = c
		}
	}
	return p
}
