package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/config"
)

const (
	wholeDivisionLabel = "whole division"
	noticeTimeLayout   = "02/01/2006, 15:04:05"
)

// ErrNotConfigured is returned when bot token or chat id are missing.
var ErrNotConfigured = errors.New("telegram notifier not configured")

// TicketNotice is the data a new-ticket announcement carries.
type TicketNotice struct {
	TicketID    int64
	ClientName  string
	Title       string
	Description string
	CreatedBy   string
	AssignedTo  *string
	CreatedAt   time.Time
}

// Notifier delivers new-ticket announcements.
type Notifier interface {
	NotifyTicketCreated(ctx context.Context, notice TicketNotice) error
}

// TelegramNotifier posts to the Bot API sendMessage method.
type TelegramNotifier struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
	loc     *time.Location
}

// NewTelegramNotifier builds a notifier from config. Timestamps are rendered in loc.
func NewTelegramNotifier(cfg config.NotificationConfig, loc *time.Location) *TelegramNotifier {
	baseURL := strings.TrimRight(cfg.TelegramAPIBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	if loc == nil {
		loc = time.Local
	}
	return &TelegramNotifier{
		baseURL: baseURL,
		token:   cfg.TelegramBotToken,
		chatID:  cfg.TelegramCloudChatID,
		client:  &http.Client{Timeout: cfg.Timeout()},
		loc:     loc,
	}
}

// Enabled reports whether credentials are present.
func (t *TelegramNotifier) Enabled() bool {
	return t != nil && t.token != "" && t.chatID != ""
}

// NotifyTicketCreated sends one Markdown message. Any non-200 answer is an error.
func (t *TelegramNotifier) NotifyTicketCreated(ctx context.Context, notice TicketNotice) error {
	if !t.Enabled() {
		return ErrNotConfigured
	}

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", FormatTicketCreated(notice, t.loc))
	form.Set("parse_mode", "Markdown")

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		// the URL embeds the bot token
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return fmt.Errorf("telegram request failed: %w", urlErr.Err)
		}
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// FormatTicketCreated renders the announcement text.
func FormatTicketCreated(n TicketNotice, loc *time.Location) string {
	assignee := wholeDivisionLabel
	if n.AssignedTo != nil && strings.TrimSpace(*n.AssignedTo) != "" {
		assignee = *n.AssignedTo
	}
	client := n.ClientName
	if client == "" {
		client = "n/a"
	}
	createdBy := n.CreatedBy
	if createdBy == "" {
		createdBy = "n/a"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*New ticket #%d - CLOUD*\n\n", n.TicketID)
	fmt.Fprintf(&b, "*Client:* %s\n", escapeMarkdown(client))
	fmt.Fprintf(&b, "*Title:* %s\n", escapeMarkdown(n.Title))
	fmt.Fprintf(&b, "*Description:* %s\n", escapeMarkdown(n.Description))
	fmt.Fprintf(&b, "*Created by:* %s\n", escapeMarkdown(createdBy))
	fmt.Fprintf(&b, "*Assigned to:* %s\n", escapeMarkdown(assignee))
	fmt.Fprintf(&b, "*Created at:* %s", n.CreatedAt.In(loc).Format(noticeTimeLayout))
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
