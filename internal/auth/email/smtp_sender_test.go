package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSMTPSender(t *testing.T) {
	t.Run("requires host", func(t *testing.T) {
		_, err := NewSMTPSender("", 587, "", "", "noreply@example.com", "", false)
		require.Error(t, err)
	})

	t.Run("requires from address", func(t *testing.T) {
		_, err := NewSMTPSender("smtp.example.com", 587, "", "", "", "", false)
		require.Error(t, err)
	})

	t.Run("defaults port to 587", func(t *testing.T) {
		s, err := NewSMTPSender("smtp.example.com", 0, "", "", "noreply@example.com", "", false)
		require.NoError(t, err)
		require.Equal(t, 587, s.port)
	})
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("noreply@example.com", "Authd", "alice@example.com", "Verify your email", "Hello Alice")

	headers, body, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found)
	require.Equal(t, "Hello Alice", body)

	lines := strings.Split(headers, "\r\n")
	require.Equal(t, []string{
		"From: Authd <noreply@example.com>",
		"To: alice@example.com",
		"Subject: Verify your email",
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
	}, lines)
}

func TestBuildMessageWithoutFromName(t *testing.T) {
	msg := buildMessage("noreply@example.com", "", "alice@example.com", "Subject", "Body")
	require.True(t, strings.HasPrefix(msg, "From: noreply@example.com\r\n"))
}
