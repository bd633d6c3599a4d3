package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/charmbracelet/huh"
)

// binding tracks how to apply a form value back to the struct
type binding struct {
	name  string
	field reflect.Value
	typ   FieldType
	str   *string
	flag  *bool
}

func (b binding) apply() error {
	if !b.field.CanSet() {
		return fmt.Errorf("cannot set field")
	}
	switch b.typ {
	case Toggle:
		b.field.SetBool(*b.flag)
	default:
		b.field.SetString(strings.TrimSpace(*b.str))
	}
	return nil
}

// Build creates huh groups for def bound to the struct pointed to by value.
// The returned apply func copies the edited values back into the struct.
func Build(def FormDef, value any) ([]*huh.Group, func() error, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("value must be a pointer to a struct, got %T", value)
	}
	rv = rv.Elem()

	var groups []*huh.Group
	var bindings []binding

	for _, section := range def.Sections {
		var fields []huh.Field
		for _, fd := range section.Fields {
			field, b, err := renderField(fd, rv)
			if err != nil {
				return nil, nil, fmt.Errorf("field %s: %w", fd.Name, err)
			}
			fields = append(fields, field)
			bindings = append(bindings, b)
		}
		if len(fields) == 0 {
			continue
		}
		group := huh.NewGroup(fields...).Title(section.Title)
		if section.Desc != "" {
			group = group.Description(section.Desc)
		}
		groups = append(groups, group)
	}

	if len(groups) == 0 {
		return nil, nil, fmt.Errorf("no form fields generated")
	}

	apply := func() error {
		for _, b := range bindings {
			if err := b.apply(); err != nil {
				return fmt.Errorf("field %s: %w", b.name, err)
			}
		}
		return nil
	}
	return groups, apply, nil
}

// Run shows the form and applies the result to value. It reports false when
// the user aborted; value is left untouched then.
func Run(def FormDef, value any) (bool, error) {
	groups, apply, err := Build(def, value)
	if err != nil {
		return false, err
	}
	if err := huh.NewForm(groups...).WithShowHelp(true).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return true, apply()
}

// renderField creates a huh field from a Field definition
func renderField(def Field, rv reflect.Value) (huh.Field, binding, error) {
	fv := fieldByJSONTag(rv, def.Name)
	if !fv.IsValid() {
		return nil, binding{}, fmt.Errorf("field not found in struct")
	}

	b := binding{name: def.Name, field: fv, typ: def.Type}

	if def.Type == Toggle {
		if fv.Kind() != reflect.Bool {
			return nil, binding{}, fmt.Errorf("toggle needs a bool, got %s", fv.Kind())
		}
		val := fv.Bool()
		b.flag = &val
		return huh.NewConfirm().Title(def.Title).Description(def.Desc).Value(&val), b, nil
	}

	if fv.Kind() != reflect.String {
		return nil, binding{}, fmt.Errorf("%s needs a string, got %s", def.Type, fv.Kind())
	}
	val := fv.String()
	if val == "" && def.Default != nil {
		val = fmt.Sprint(def.Default)
	}
	b.str = &val

	validate := func(s string) error {
		if def.Required && strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", def.Title)
		}
		return nil
	}

	switch def.Type {
	case Text, Secret:
		input := huh.NewInput().Title(def.Title).Description(def.Desc).Value(&val).Validate(validate)
		if def.Type == Secret {
			input = input.EchoMode(huh.EchoModePassword)
		}
		return input, b, nil

	case TextArea:
		return huh.NewText().Title(def.Title).Description(def.Desc).Value(&val).Validate(validate), b, nil

	case Select:
		options := make([]huh.Option[string], len(def.Options))
		for i, opt := range def.Options {
			options[i] = huh.NewOption(opt.Label, opt.Value)
		}
		return huh.NewSelect[string]().Title(def.Title).Description(def.Desc).Options(options...).Value(&val), b, nil
	}

	return nil, binding{}, fmt.Errorf("unsupported field type: %v", def.Type)
}

// fieldByJSONTag finds a struct field by its json tag name
func fieldByJSONTag(rv reflect.Value, jsonName string) reflect.Value {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		tag, _, _ := strings.Cut(rt.Field(i).Tag.Get("json"), ",")
		if tag == jsonName {
			return rv.Field(i)
		}
	}
	return reflect.Value{}
}
