// Package forms describes config editing forms and renders them with huh.
package forms

// FieldType defines the type of form field
type FieldType int

const (
	Toggle   FieldType = iota // Boolean on/off
	Text                      // Single-line text input
	Secret                    // Password/token input (masked)
	Select                    // Dropdown selection
	TextArea                  // Multi-line text input
)

func (t FieldType) String() string {
	switch t {
	case Toggle:
		return "toggle"
	case Text:
		return "text"
	case Secret:
		return "secret"
	case Select:
		return "select"
	case TextArea:
		return "textarea"
	}
	return "unknown"
}

// FormDef defines a form for editing a config struct
type FormDef struct {
	Title       string
	Description string
	Sections    []Section
}

// Section groups related fields; each becomes one form page.
type Section struct {
	Title  string
	Desc   string
	Fields []Field
}

// Field defines a single form field
type Field struct {
	Name     string    // JSON field name (maps to struct field)
	Title    string    // Display title
	Desc     string    // Help text
	Type     FieldType
	Default  any // Shown when the struct field is empty
	Required bool

	// Select options (for Select type)
	Options []Option
}

// Option is a choice for Select fields
type Option struct {
	Label string
	Value string
}

// Configurable is implemented by config structs that provide form definitions
type Configurable interface {
	FormDef() FormDef
}
