package config

import (
	"github.com/roelfdiedericks/mentalnote/internal/config/forms"
	"github.com/roelfdiedericks/mentalnote/internal/notes"
)

// FormDef describes the interactive settings form.
func (s *Settings) FormDef() forms.FormDef {
	providers := make([]forms.Option, len(notes.Providers))
	for i, p := range notes.Providers {
		providers[i] = forms.Option{Label: providerLabel(p), Value: string(p)}
	}

	return forms.FormDef{
		Title:       "Settings",
		Description: "API keys are stored in plain text with mode 0600.",
		Sections: []forms.Section{
			{
				Title: "AI Providers",
				Desc:  "At least one key is needed to process notes",
				Fields: []forms.Field{
					{Name: "openaiKey", Title: "OpenAI API Key", Desc: "Also used for Whisper transcription", Type: forms.Secret},
					{Name: "anthropicKey", Title: "Anthropic API Key", Type: forms.Secret},
					{Name: "geminiKey", Title: "Gemini API Key", Type: forms.Secret},
					{Name: "defaultProvider", Title: "Default AI Provider", Type: forms.Select, Options: providers, Default: string(notes.ProviderOpenAI)},
				},
			},
			{
				Title: "Notion",
				Desc:  "Needed to save notes as pages",
				Fields: []forms.Field{
					{Name: "notionToken", Title: "Integration Token", Type: forms.Secret},
					{Name: "notionDatabaseId", Title: "Database ID", Desc: "The 32-character id from the database URL", Type: forms.Text},
				},
			},
			{
				Title: "Processing",
				Fields: []forms.Field{
					{Name: "systemPrompt", Title: "System Prompt", Type: forms.TextArea, Default: notes.DefaultSystemPrompt},
					{Name: "outputLanguage", Title: "Output Language", Desc: "Language the note is written in", Type: forms.Text, Default: notes.DefaultLanguage},
					{Name: "whisperBaseURL", Title: "Whisper Endpoint", Desc: "Leave empty for api.openai.com", Type: forms.Text},
				},
			},
		},
	}
}

func providerLabel(p notes.Provider) string {
	switch p {
	case notes.ProviderOpenAI:
		return "OpenAI (GPT-4o)"
	case notes.ProviderAnthropic:
		return "Anthropic (Claude 3.5 Sonnet)"
	case notes.ProviderGemini:
		return "Google Gemini (1.5 Flash)"
	}
	return string(p)
}
