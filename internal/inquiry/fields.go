package inquiry

import (
	"regexp"
	"strings"
)

// Field names a contact-form field.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldPhone   Field = "phone"
	FieldCompany Field = "company"
	FieldService Field = "service"
	FieldMessage Field = "message"
)

// Fields lists every recognised field in extraction order.
var Fields = []Field{FieldName, FieldEmail, FieldPhone, FieldCompany, FieldService, FieldMessage}

// FieldSet holds the values extracted from a form notification.
// Fields that were not found are absent from the map.
type FieldSet map[Field]string

// Get returns the value of f and whether it was extracted.
func (fs FieldSet) Get(f Field) (string, bool) {
	v, ok := fs[f]
	return v, ok
}

// GetOr returns the value of f, or def when f was not extracted.
func (fs FieldSet) GetOr(f Field, def string) string {
	if v, ok := fs[f]; ok {
		return v
	}
	return def
}

// Single-line fields: "Label: value" at the start of a line.
var linePatterns = map[Field]*regexp.Regexp{
	FieldName:    linePattern("name"),
	FieldEmail:   linePattern("email"),
	FieldPhone:   linePattern("phone"),
	FieldCompany: linePattern("company"),
	FieldService: linePattern("service"),
}

// The message runs until a blank line, a line opening with a capital letter
// (the next label), or the end of the body.
var messagePattern = regexp.MustCompile(`(?ms)^[ \t]*(?i:message)[ \t]*:\s*(.+?)(?:\n\n|\n[A-Z]|\z)`)

func linePattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[ \t]*` + label + `[ \t]*:[ \t]*(\S.*)$`)
}

// Extract pulls the contact-form fields out of a notification body.
// Each field is matched independently. The second return value is false
// when no field matched at all, which marks the message as unparseable.
func Extract(body string) (FieldSet, bool) {
	body = strings.ReplaceAll(body, "\r\n", "\n")

	fields := make(FieldSet)
	for _, f := range Fields {
		re := linePatterns[f]
		if f == FieldMessage {
			re = messagePattern
		}
		if m := re.FindStringSubmatch(body); m != nil {
			fields[f] = strings.TrimSpace(m[1])
		}
	}

	if len(fields) == 0 {
		return nil, false
	}
	return fields, true
}
