package inquiry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		body string
		want FieldSet
	}{
		{
			name: "Formspree notification",
			body: "Name: Jane Doe\nEmail: jane@x.com\nService: AI Chatbot\nMessage: This is urgent, need a quote for a complex chatbot project.\n",
			want: FieldSet{
				FieldName:    "Jane Doe",
				FieldEmail:   "jane@x.com",
				FieldService: "AI Chatbot",
				FieldMessage: "This is urgent, need a quote for a complex chatbot project.",
			},
		},
		{
			name: "surrounding whitespace trimmed",
			body: "Name:    Bob   \n",
			want: FieldSet{FieldName: "Bob"},
		},
		{
			name: "labels are case-insensitive",
			body: "NAME: Alice\nemail: alice@example.com\nPHONE: +44 1234 567890\ncompany: Acme Ltd",
			want: FieldSet{
				FieldName:    "Alice",
				FieldEmail:   "alice@example.com",
				FieldPhone:   "+44 1234 567890",
				FieldCompany: "Acme Ltd",
			},
		},
		{
			name: "label must open the line",
			body: "Company Name: Acme\nName: Bob",
			want: FieldSet{FieldName: "Bob"},
		},
		{
			name: "message spans lines until blank line",
			body: "Message: line one\nline two\n\nSent via Formspree",
			want: FieldSet{FieldMessage: "line one\nline two"},
		},
		{
			name: "message stops at next capitalised label",
			body: "Message: hello\nPhone: 123",
			want: FieldSet{FieldMessage: "hello", FieldPhone: "123"},
		},
		{
			name: "message value on following line",
			body: "Message:\nHello there\n",
			want: FieldSet{FieldMessage: "Hello there"},
		},
		{
			name: "CRLF line endings",
			body: "Name: Bob\r\nMessage: Hi\r\n\r\nThanks",
			want: FieldSet{FieldName: "Bob", FieldMessage: "Hi"},
		},
		{
			name: "empty label value is absent",
			body: "Name:\nEmail: bob@example.com",
			want: FieldSet{FieldEmail: "bob@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.body)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractUnparseable(t *testing.T) {
	for _, body := range []string{
		"",
		"Just a plain email with no labels at all.",
		"Hello,\n\nPlease find the invoice attached.\n",
	} {
		got, ok := Extract(body)
		assert.False(t, ok, "body %q", body)
		assert.Nil(t, got)
	}
}

func TestFieldSetGetOr(t *testing.T) {
	fs := FieldSet{FieldName: "Bob"}

	v, ok := fs.Get(FieldName)
	assert.True(t, ok)
	assert.Equal(t, "Bob", v)

	_, ok = fs.Get(FieldService)
	assert.False(t, ok)
	assert.Equal(t, "our services", fs.GetOr(FieldService, "our services"))
}
