// Package contact relays contact-form submissions to an email provider.
package contact

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/hpungsan/attune/internal/config"
	"github.com/hpungsan/attune/internal/errors"
)

// Subject is the subject line of every relayed message.
const Subject = "Contact from Portfolio"

const notProvided = "Not provided"

// Message is one contact-form submission.
type Message struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Message   string `json:"message"`
	// To overrides the configured recipient.
	To string `json:"to,omitempty"`
}

// Result describes a delivered (or, in development mode, logged) message.
type Result struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	DevMode bool   `json:"dev_mode,omitempty"`
}

// Relay sends messages through the provider's HTTP API. Without an API key
// it runs in development mode and only logs.
type Relay struct {
	cfg    config.Contact
	client *http.Client
	log    *zap.Logger
	md     goldmark.Markdown
}

// NewRelay returns a Relay. A nil client uses a client with a 10s timeout.
func NewRelay(cfg config.Contact, client *http.Client, log *zap.Logger) *Relay {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{
		cfg:    cfg,
		client: client,
		log:    log,
		md:     goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps())),
	}
}

// DevMode reports whether messages are logged instead of sent.
func (r *Relay) DevMode() bool {
	return strings.TrimSpace(r.cfg.APIKey) == ""
}

// Send validates msg and delivers it. It does not retry.
func (r *Relay) Send(ctx context.Context, msg Message) (*Result, error) {
	msg = trim(msg)
	if msg.FirstName == "" || msg.Email == "" || msg.Message == "" {
		return nil, errors.NewInvalidRequest("missing required fields")
	}

	to := msg.To
	if to == "" {
		to = r.cfg.To
	}

	if r.DevMode() {
		r.log.Info("contact message (development mode, not sent)",
			zap.String("to", to),
			zap.String("subject", Subject),
			zap.String("first_name", msg.FirstName),
			zap.String("last_name", orNotProvided(msg.LastName)),
			zap.String("email", msg.Email),
			zap.String("phone", orNotProvided(msg.Phone)),
			zap.String("message", msg.Message))
		return &Result{Message: "Email sent successfully (development mode)", DevMode: true}, nil
	}

	if to == "" {
		return nil, errors.NewInvalidRequest("no recipient configured")
	}

	payload, err := json.Marshal(sendRequest{
		From:    r.cfg.From,
		To:      to,
		ReplyTo: msg.Email,
		Subject: Subject,
		HTML:    r.renderHTML(msg),
		Text:    renderText(msg),
	})
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Error("contact relay request failed", zap.Error(err))
		return nil, errors.NewRelayFailed(0, err.Error())
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var perr providerError
		_ = json.Unmarshal(body, &perr)
		reason := perr.Message
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		r.log.Error("contact relay rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("reason", reason))
		return nil, errors.NewRelayFailed(resp.StatusCode, reason)
	}

	var sent sendResponse
	if err := json.Unmarshal(body, &sent); err != nil {
		r.log.Warn("decode contact relay response", zap.Error(err))
	}
	return &Result{Message: "Email sent successfully", ID: sent.ID}, nil
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ReplyTo string `json:"reply_to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

type sendResponse struct {
	ID string `json:"id"`
}

type providerError struct {
	Message string `json:"message"`
}

// renderHTML builds the email body. Header fields are escaped; the message
// itself is rendered as markdown with raw HTML dropped.
func (r *Relay) renderHTML(msg Message) string {
	var b strings.Builder
	b.WriteString("<h2>New Contact Form Submission</h2>\n")
	field := func(label, value string) {
		fmt.Fprintf(&b, "<p><strong>%s:</strong> %s</p>\n", label, template.HTMLEscapeString(value))
	}
	field("First Name", msg.FirstName)
	field("Last Name", orNotProvided(msg.LastName))
	field("Email", msg.Email)
	field("Phone", orNotProvided(msg.Phone))
	b.WriteString("<h3>Message:</h3>\n")

	var body bytes.Buffer
	if err := r.md.Convert([]byte(msg.Message), &body); err != nil {
		body.Reset()
		body.WriteString("<p>" + template.HTMLEscapeString(msg.Message) + "</p>")
	}
	b.Write(body.Bytes())
	return b.String()
}

func renderText(msg Message) string {
	return fmt.Sprintf("New Contact Form Submission\n\nFirst Name: %s\nLast Name: %s\nEmail: %s\nPhone: %s\n\nMessage:\n%s\n",
		msg.FirstName, orNotProvided(msg.LastName), msg.Email, orNotProvided(msg.Phone), msg.Message)
}

func trim(msg Message) Message {
	msg.FirstName = strings.TrimSpace(msg.FirstName)
	msg.LastName = strings.TrimSpace(msg.LastName)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Phone = strings.TrimSpace(msg.Phone)
	msg.Message = strings.TrimSpace(msg.Message)
	msg.To = strings.TrimSpace(msg.To)
	return msg
}

func orNotProvided(s string) string {
	if s == "" {
		return notProvided
	}
	return s
}
