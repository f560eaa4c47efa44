package report

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagatabuk/inquirybot/internal/inquiry"
)

func render(t *testing.T, fields inquiry.FieldSet) (*Notification, *goquery.Document) {
	t.Helper()

	r, err := NewRenderer()
	require.NoError(t, err)

	n, err := r.Render(fields, inquiry.Analyze(fields, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)))
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(n.HTML))
	require.NoError(t, err)
	return n, doc
}

func TestRenderPricingInquiry(t *testing.T) {
	fields := inquiry.FieldSet{
		inquiry.FieldName:    "Jane Doe",
		inquiry.FieldEmail:   "jane@x.com",
		inquiry.FieldService: "AI Chatbot",
		inquiry.FieldMessage: "This is urgent, need a quote for a complex chatbot project.",
	}
	n, doc := render(t, fields)

	for _, want := range []string{"Jane Doe", "Pricing", "High", "50-100", "3000-6000"} {
		assert.Contains(t, n.HTML, want)
		assert.Contains(t, n.Text, want)
	}

	assert.Equal(t, "Pricing", doc.Find(".inquiry-type").Text())
	assert.Equal(t, "High", doc.Find(".complexity").Text())
	assert.Equal(t, "High", doc.Find(".urgency").Text())
	assert.Equal(t, "50-100", doc.Find(".hours").Text())
	assert.Equal(t, "£3000-6000", doc.Find(".cost").Text())

	assert.Equal(t, 2, doc.Find(".suggestions br").Length())

	var steps []string
	doc.Find(".next-steps li").Each(func(_ int, s *goquery.Selection) {
		steps = append(steps, s.Text())
	})
	assert.Equal(t, inquiry.NextSteps(inquiry.TypePricing), steps)

	assert.Equal(t, "🤖 AI Analysis: Contact from Jane Doe", n.Subject)
	assert.Contains(t, n.Text, "Estimated Cost:  £3000-6000")
	assert.Contains(t, n.Text, "2024-05-06T07:08:09Z")
}

func TestRenderMissingContactFields(t *testing.T) {
	n, doc := render(t, inquiry.FieldSet{inquiry.FieldMessage: "Just saying hello"})

	var contact []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if strings.HasPrefix(s.Text(), "Name:") || strings.HasPrefix(s.Text(), "Email:") || strings.HasPrefix(s.Text(), "Service:") {
			contact = append(contact, s.Text())
		}
	})
	assert.Equal(t, []string{"Name: N/A", "Email: N/A", "Service: N/A"}, contact)
	assert.Equal(t, "General", doc.Find(".inquiry-type").Text())
	assert.Equal(t, "Medium", doc.Find(".complexity").Text())
	assert.Equal(t, "Normal", doc.Find(".urgency").Text())
	assert.Equal(t, "🤖 AI Analysis: Contact from Unknown", n.Subject)
}

func TestRenderEscapesContactInput(t *testing.T) {
	n, _ := render(t, inquiry.FieldSet{inquiry.FieldName: "<script>alert(1)</script>"})
	assert.NotContains(t, n.HTML, "<script>")
	assert.Contains(t, n.HTML, "&lt;script&gt;")
}
