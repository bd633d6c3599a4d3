package notes

import "strings"

// Categories is the vocabulary the prompt asks the model to pick from.
// The normalizer does not enforce it.
var Categories = []string{"Work", "Personal", "Idea", "Task", "Meeting", "Study", "Project", "Note", "Reminder", "Other"}

const promptSuffixTemplate = `

IMPORTANT: You MUST return your response EXACTLY in the following JSON format:
{
  "title": "a short title for the note in {{language}}",
  "content": "your detailed summary/analysis here (can be multi-line) in {{language}}",
  "category": "ONE main category in {{language}} (choose from: {{categories}})",
  "tags": ["tag1", "tag2", "tag3"]
}

RULES:
1. The "content" must be a structured and useful summary of the text, NOT just a repetition.
2. The "category" must be ONE WORD only, Capitalized.
3. The "tags" must be relevant keywords, lowercase, 2 to 5 tags.
4. Return ONLY valid JSON, no additional text before or after.
5. Use UTF-8 for special characters.
6. The output content MUST be in {{language}}.`

// StructuredPromptSuffix returns the instruction appended to every system
// prompt. It depends only on language and is the same for all providers.
func StructuredPromptSuffix(language string) string {
	if language == "" {
		language = DefaultLanguage
	}
	r := strings.NewReplacer(
		"{{language}}", language,
		"{{categories}}", strings.Join(Categories, ", "),
	)
	return r.Replace(promptSuffixTemplate)
}

// FullPrompt is the instruction sent to the backend.
func FullPrompt(systemPrompt, language string) string {
	return systemPrompt + StructuredPromptSuffix(language)
}
