package email

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeAlternativeBodies(t *testing.T) {
	date := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	raw, id, err := Compose(Message{
		From:    "bot@example.com",
		To:      "ops@example.com",
		Subject: "🤖 AI Analysis: Contact from Jane Doe",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	}, date)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "🤖 AI Analysis: Contact from Jane Doe", subject)

	gotID, err := mr.Header.MessageID()
	require.NoError(t, err)
	assert.Equal(t, id, gotID)

	gotDate, err := mr.Header.Date()
	require.NoError(t, err)
	assert.True(t, date.Equal(gotDate))

	bodies := map[string]string{}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		h, ok := p.Header.(*mail.InlineHeader)
		require.True(t, ok)
		ct, _, err := h.ContentType()
		require.NoError(t, err)
		b, err := io.ReadAll(p.Body)
		require.NoError(t, err)
		bodies[ct] = string(b)
	}
	assert.Equal(t, map[string]string{
		"text/plain": "plain body",
		"text/html":  "<p>html body</p>",
	}, bodies)
}

func TestComposeTextOnly(t *testing.T) {
	raw, _, err := Compose(Message{
		From: "bot@example.com", To: "ops@example.com", Subject: "s", Text: "only text",
	}, time.Now())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "only text")
	assert.NotContains(t, string(raw), "text/html")
}
