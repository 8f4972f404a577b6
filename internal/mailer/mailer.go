package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/content"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/database"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/logs"
)

const defaultBaseURL = "https://api.resend.com"

// Client sends transactional e-mail through the Resend HTTP API.
type Client struct {
	BaseURL string
	APIKey  string
	From    string
	HTTP    *http.Client
}

func NewClientFromEnv() *Client {
	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = "MindMortal <no-reply@mindmortal.com>"
	}
	return &Client{
		BaseURL: defaultBaseURL,
		APIKey:  os.Getenv("RESEND_API_KEY"),
		From:    from,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers one HTML e-mail to the given recipients.
func (c *Client) Send(ctx context.Context, to []string, subject, html string) error {
	payload := map[string]interface{}{
		"from":    c.From,
		"to":      to,
		"subject": subject,
		"html":    html,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail API returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

// Deliverer sweeps pending timeless messages whose delivery date has
// arrived and sends them out. A message is marked sent only after a
// successful send, so a crashed sweep retries it next run.
type Deliverer struct {
	Mail *Client
	Now  func() time.Time
}

func NewDeliverer(mail *Client) *Deliverer {
	return &Deliverer{Mail: mail, Now: time.Now}
}

// DeliverDue processes due messages one by one. Per-message failures are
// logged and skipped; they never abort the sweep.
func (d *Deliverer) DeliverDue(ctx context.Context) (int, error) {
	var due []content.TimelessMessage
	if err := database.DB.
		Where("status = ? AND is_deleted = ? AND delivery_date <= ?", "pending", false, d.Now()).
		Find(&due).Error; err != nil {
		return 0, fmt.Errorf("loading due messages: %w", err)
	}

	sent := 0
	for _, msg := range due {
		recipients := splitRecipients(msg.Recipients)
		if len(recipients) == 0 {
			logs.LogJSON("WARN", "Timeless message has no recipients, skipping", map[string]interface{}{
				"messageID": msg.ID,
			})
			continue
		}

		html := fmt.Sprintf("<h1>%s</h1><p>%s</p>", msg.Title, msg.Body)
		if err := d.Mail.Send(ctx, recipients, msg.Title, html); err != nil {
			logs.LogJSON("ERROR", "Failed to deliver timeless message", map[string]interface{}{
				"error":     err.Error(),
				"messageID": msg.ID,
			})
			continue
		}

		now := d.Now()
		if err := database.DB.Model(&content.TimelessMessage{}).
			Where("id = ?", msg.ID).
			Updates(map[string]interface{}{"status": "sent", "sent_at": now}).Error; err != nil {
			logs.LogJSON("ERROR", "Delivered message could not be marked sent", map[string]interface{}{
				"error":     err.Error(),
				"messageID": msg.ID,
			})
			continue
		}
		sent++
	}
	return sent, nil
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
