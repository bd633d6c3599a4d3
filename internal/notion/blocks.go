package notion

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jomei/notionapi"
)

// BuildRequest assembles the page-creation body: Name title, optional
// Category select and Tags multi-select, then content, a divider, the
// transcript heading and the transcript.
func BuildRequest(databaseID string, page Page) *notionapi.PageCreateRequest {
	props := notionapi.Properties{
		"Name": &notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: page.Title}}},
		},
	}

	if category := Capitalize(page.Category); category != "" {
		props["Category"] = &notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: category},
		}
	}

	var tags []notionapi.Option
	for _, tag := range page.Tags {
		if name := Capitalize(tag); name != "" {
			tags = append(tags, notionapi.Option{Name: name})
		}
	}
	if len(tags) > 0 {
		props["Tags"] = &notionapi.MultiSelectProperty{
			Type:        notionapi.PropertyTypeMultiSelect,
			MultiSelect: tags,
		}
	}

	var children []notionapi.Block
	if page.Content != "" {
		children = append(children, paragraph(page.Content))
	}
	children = append(children, &notionapi.DividerBlock{
		BasicBlock: basicBlock(notionapi.BlockTypeDivider),
	})
	children = append(children, &notionapi.Heading2Block{
		BasicBlock: basicBlock(notionapi.BlockTypeHeading2),
		Heading2:   notionapi.Heading{RichText: richText(TranscriptHeading)},
	})
	if page.Transcript != "" {
		children = append(children, paragraph(page.Transcript))
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: props,
		Children:   children,
	}
}

func basicBlock(t notionapi.BlockType) notionapi.BasicBlock {
	return notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: t}
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: content}}}
}

func paragraph(text string) *notionapi.ParagraphBlock {
	return &notionapi.ParagraphBlock{
		BasicBlock: basicBlock(notionapi.BlockTypeParagraph),
		Paragraph:  notionapi.Paragraph{RichText: richText(TruncateUTF16(text, maxTextUnits))},
	}
}

// Capitalize trims s and upper-cases its first letter, lower-casing the rest.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}

// TruncateUTF16 cuts s to at most limit UTF-16 code units, the unit Notion
// counts in. A surrogate pair is never split.
func TruncateUTF16(s string, limit int) string {
	units := 0
	for i, r := range s {
		n := 1
		if r >= 0x10000 {
			n = 2
		}
		if units+n > limit {
			return s[:i]
		}
		units += n
	}
	return s
}
