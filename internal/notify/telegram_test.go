package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/config"
)

func sampleNotice() TicketNotice {
	return TicketNotice{
		TicketID:    42,
		ClientName:  "ACME_srl",
		Title:       "VM down",
		Description: "prod *cluster*",
		CreatedBy:   "ops@acme.test",
		CreatedAt:   time.Date(2024, 3, 4, 14, 5, 9, 0, time.UTC),
	}
}

func TestNotifyTicketCreatedPostsForm(t *testing.T) {
	var (
		gotPath string
		gotForm map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewTelegramNotifier(config.NotificationConfig{
		TelegramBotToken:    "TOKEN",
		TelegramCloudChatID: "-100",
		TelegramAPIBaseURL:  srv.URL + "/",
		TimeoutSeconds:      2,
	}, time.UTC)

	require.NoError(t, n.NotifyTicketCreated(context.Background(), sampleNotice()))
	assert.Equal(t, "/botTOKEN/sendMessage", gotPath)
	assert.Equal(t, "-100", gotForm["chat_id"])
	assert.Equal(t, "Markdown", gotForm["parse_mode"])
	assert.Contains(t, gotForm["text"], "*Assigned to:* whole division")
	assert.Contains(t, gotForm["text"], "ACME\\_srl")
}

func TestNotifyTicketCreatedNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier(config.NotificationConfig{
		TelegramBotToken: "TOKEN", TelegramCloudChatID: "1", TelegramAPIBaseURL: srv.URL,
	}, time.UTC)

	err := n.NotifyTicketCreated(context.Background(), sampleNotice())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestNotifyTicketCreatedHidesTokenOnTransportError(t *testing.T) {
	n := NewTelegramNotifier(config.NotificationConfig{
		TelegramBotToken: "SECRET", TelegramCloudChatID: "1", TelegramAPIBaseURL: "http://127.0.0.1:1",
	}, time.UTC)

	err := n.NotifyTicketCreated(context.Background(), sampleNotice())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET")
}

func TestNotifyTicketCreatedNotConfigured(t *testing.T) {
	n := NewTelegramNotifier(config.NotificationConfig{}, nil)
	assert.False(t, n.Enabled())
	assert.ErrorIs(t, n.NotifyTicketCreated(context.Background(), sampleNotice()), ErrNotConfigured)
}

func TestFormatTicketCreated(t *testing.T) {
	notice := sampleNotice()
	assignee := "alice"
	notice.AssignedTo = &assignee

	text := FormatTicketCreated(notice, time.UTC)
	assert.True(t, strings.HasPrefix(text, "*New ticket #42 - CLOUD*\n\n"))
	assert.Contains(t, text, "*Assigned to:* alice\n")
	assert.Contains(t, text, "*Description:* prod \\*cluster\\*\n")
	assert.True(t, strings.HasSuffix(text, "*Created at:* 04/03/2024, 14:05:09"))

	blank := "  "
	notice.AssignedTo = &blank
	notice.ClientName = ""
	text = FormatTicketCreated(notice, time.UTC)
	assert.Contains(t, text, "*Assigned to:* whole division")
	assert.Contains(t, text, "*Client:* n/a")
}
