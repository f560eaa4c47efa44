package report

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jagatabuk/inquirybot/internal/inquiry"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

const notAvailable = "N/A"

// NotificationData contains everything the notification templates can use
type NotificationData struct {
	// Contact
	Name    string
	Email   string
	Service string

	// Analysis, display-ready
	InquiryType string
	Complexity  string
	Urgency     string
	Hours       string
	Cost        string
	Suggestions []string
	NextSteps   []string
	AnalyzedAt  string
}

// Notification is a rendered report ready to hand to a sender
type Notification struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer turns an analysis into the operator notification
type Renderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// NewRenderer parses the embedded notification templates
func NewRenderer() (*Renderer, error) {
	htmlSrc, err := embeddedTemplates.ReadFile("templates/notification.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded html template: %w", err)
	}
	textSrc, err := embeddedTemplates.ReadFile("templates/notification.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded text template: %w", err)
	}

	h, err := htmltemplate.New("notification.html").Parse(string(htmlSrc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html template: %w", err)
	}
	t, err := texttemplate.New("notification.txt").Parse(string(textSrc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}

	return &Renderer{
		html: h,
		text: t,
	}, nil
}

// Render produces the subject, HTML and plain-text bodies. Either both
// bodies render or an error is returned; there is no partial output.
func (r *Renderer) Render(fields inquiry.FieldSet, a inquiry.Analysis) (*Notification, error) {
	data := r.data(fields, a)

	var htmlBuf, textBuf bytes.Buffer
	if err := r.html.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render html notification: %w", err)
	}
	if err := r.text.Execute(&textBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render text notification: %w", err)
	}

	return &Notification{
		Subject: Subject(fields),
		HTML:    htmlBuf.String(),
		Text:    textBuf.String(),
	}, nil
}

func (r *Renderer) data(fields inquiry.FieldSet, a inquiry.Analysis) NotificationData {
	// Casers are stateful, so each render gets its own.
	title := cases.Title(language.English)
	return NotificationData{
		Name:        fields.GetOr(inquiry.FieldName, notAvailable),
		Email:       fields.GetOr(inquiry.FieldEmail, notAvailable),
		Service:     fields.GetOr(inquiry.FieldService, notAvailable),
		InquiryType: title.String(string(a.InquiryType)),
		Complexity:  title.String(string(a.Complexity)),
		Urgency:     title.String(string(a.Urgency)),
		Hours:       a.EstimatedHours,
		Cost:        a.EstimatedCost,
		Suggestions: a.ResponseSuggestions,
		NextSteps:   a.RecommendedNextSteps,
		AnalyzedAt:  a.AnalyzedAt.Format(time.RFC3339),
	}
}

// Subject builds the notification subject from the contact name
func Subject(fields inquiry.FieldSet) string {
	return fmt.Sprintf("🤖 AI Analysis: Contact from %s", fields.GetOr(inquiry.FieldName, "Unknown"))
}
