package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/fyndra/outfitscout/internal/watch"
)

const resendEndpoint = "https://api.resend.com"

// EmailNotifier sends alert emails through the Resend API.
type EmailNotifier struct {
	client *resty.Client
	from   string
	to     []string
}

// NewEmailNotifier creates a Resend-backed notifier.
func NewEmailNotifier(apiKey, from string, to []string) *EmailNotifier {
	client := resty.New().
		SetBaseURL(resendEndpoint).
		SetAuthToken(apiKey).
		SetRetryCount(2)
	return &EmailNotifier{client: client, from: from, to: to}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// Notify sends one alert email. A non-2xx API response is an error so
// the caller can decide whether to retry on the next check.
func (n *EmailNotifier) Notify(ctx context.Context, alert watch.Alert) error {
	subject := fmt.Sprintf("Price alert: %s %s (target %s)",
		alert.CurrentCost.StringFixed(2), alert.Currency, alert.Target.StringFixed(2))
	if alert.Restock {
		subject = fmt.Sprintf("Back in stock: watch %s at %s %s",
			alert.EntryID, alert.CurrentCost.StringFixed(2), alert.Currency)
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(resendRequest{
			From:    n.from,
			To:      n.to,
			Subject: subject,
			HTML:    htmlBody(alert),
			Text:    textBody(alert),
		}).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send alert email: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func htmlBody(alert watch.Alert) string {
	var b strings.Builder
	if alert.Restock {
		fmt.Fprintf(&b, "<h2>Back in stock</h2>")
	} else {
		fmt.Fprintf(&b, "<h2>Price dropped to your target</h2>")
	}
	fmt.Fprintf(&b, "<p>Current best landed cost: <strong>%s %s</strong>",
		alert.CurrentCost.StringFixed(2), alert.Currency)
	if !alert.Target.IsZero() {
		fmt.Fprintf(&b, " (target %s %s)", alert.Target.StringFixed(2), alert.Currency)
	}
	b.WriteString("</p>")
	if len(alert.ShopLinks) > 0 {
		b.WriteString("<ul>")
		for _, link := range alert.ShopLinks {
			fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, link, link)
		}
		b.WriteString("</ul>")
	}
	return b.String()
}

func textBody(alert watch.Alert) string {
	var b strings.Builder
	if alert.Restock {
		b.WriteString("Back in stock.\n")
	} else {
		b.WriteString("Price dropped to your target.\n")
	}
	fmt.Fprintf(&b, "Current best landed cost: %s %s\n",
		alert.CurrentCost.StringFixed(2), alert.Currency)
	if !alert.Target.IsZero() {
		fmt.Fprintf(&b, "Target: %s %s\n", alert.Target.StringFixed(2), alert.Currency)
	}
	for _, link := range alert.ShopLinks {
		b.WriteString(link + "\n")
	}
	return b.String()
}
