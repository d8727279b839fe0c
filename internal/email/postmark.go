package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mvillanueva/parokya/internal/model"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

// Sender is the identity block interpolated into every notification.
type Sender struct {
	Name         string
	Position     string
	Contact      string
	Organization string
}

type Client struct {
	serverToken string
	fromEmail   string
	sender      Sender
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

func NewClient(serverToken, fromEmail string, sender Sender, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		sender:      sender,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendAcceptance notifies a parishioner that their booking was approved.
func (c *Client) SendAcceptance(b model.Booking) error {
	subject := fmt.Sprintf("Your %s booking has been accepted", b.Type)
	intro := fmt.Sprintf("Dear %s,", b.Name())
	line := fmt.Sprintf(
		"We are pleased to confirm your %s on %s at %s. Please arrive a few minutes early and bring any required documents.",
		b.Type, b.Date, b.Time,
	)
	return c.send(b, subject, intro, line)
}

// SendCancellation notifies a parishioner that their booking was declined
// or cancelled.
func (c *Client) SendCancellation(b model.Booking) error {
	subject := fmt.Sprintf("Your %s booking has been cancelled", b.Type)
	intro := fmt.Sprintf("Dear %s,", b.Name())
	line := fmt.Sprintf(
		"We regret to inform you that your %s scheduled for %s at %s has been cancelled. Please contact the parish office if you would like to rebook.",
		b.Type, b.Date, b.Time,
	)
	return c.send(b, subject, intro, line)
}

func (c *Client) send(b model.Booking, subject, intro, line string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	signature := fmt.Sprintf("%s\n%s\n%s\n%s",
		c.sender.Name, c.sender.Position, c.sender.Contact, c.sender.Organization)

	textBody := fmt.Sprintf("%s\n\n%s\n\nBooking reference: %s\nContact on file: %s / %s\n\n%s",
		intro, line, b.ID, b.Email, b.Phone, signature)

	htmlBody := fmt.Sprintf(
		`<p>%s</p><p>%s</p><p>Booking reference: <strong>%s</strong><br>Contact on file: %s / %s</p><p>%s<br>%s<br>%s<br>%s</p>`,
		intro, line, b.ID, b.Email, b.Phone,
		c.sender.Name, c.sender.Position, c.sender.Contact, c.sender.Organization,
	)

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       b.Email,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
