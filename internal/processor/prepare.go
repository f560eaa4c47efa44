package processor

import (
	"time"

	"github.com/jagatabuk/inquirybot/internal/inquiry"
	"github.com/jagatabuk/inquirybot/internal/report"
)

// Prepared is an analysed inquiry with its rendered notification
type Prepared struct {
	Fields       inquiry.FieldSet
	Analysis     inquiry.Analysis
	Notification *report.Notification
}

// Prepare runs extraction, analysis and rendering on a message body.
// ok is false when the body carries no form fields.
func Prepare(r *report.Renderer, body string, at time.Time) (p *Prepared, ok bool, err error) {
	fields, ok := inquiry.Extract(body)
	if !ok {
		return nil, false, nil
	}

	a := inquiry.Analyze(fields, at)
	n, err := r.Render(fields, a)
	if err != nil {
		return nil, true, err
	}
	return &Prepared{Fields: fields, Analysis: a, Notification: n}, true, nil
}
