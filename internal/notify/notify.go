// Package notify hands committed invoices to the external payment-link agent.
// Delivery happens on a background worker fed by a bounded queue, so a slow
// or failing agent never delays or undoes a sale.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/txn"
)

const invoicePath = "/api/invoice"

type Config struct {
	URL         string
	Timeout     time.Duration
	QueueSize   int
	MaxAttempts int
	RetryDelay  time.Duration
}

// Message is what the agent needs to raise a payment link for an invoice.
type Message struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Phone     string
}

type agentRequest struct {
	InvoiceData struct {
		InvoiceNumber string `json:"invoice_number"`
		Amount        string `json:"amount"`
	} `json:"invoice_data"`
	CustomerPhone string `json:"customer_phone"`
}

type agentResponse struct {
	PaymentStatus string  `json:"payment_status"`
	PaymentURL    *string `json:"razorpay_payment_url"`
}

type Notifier struct {
	baseURL     string
	client      *http.Client
	queue       chan Message
	maxAttempts int
	retryDelay  time.Duration
}

func New(cfg Config) *Notifier {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	return &Notifier{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		client:      &http.Client{Timeout: cfg.Timeout},
		queue:       make(chan Message, cfg.QueueSize),
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
	}
}

// InvoiceCreated enqueues inv for delivery. It never blocks; when the queue
// is full the notification is dropped and logged.
func (n *Notifier) InvoiceCreated(inv *invoice.Invoice) {
	msg := Message{
		InvoiceID: inv.ID,
		Amount:    inv.Total,
		Phone:     NormalizePhone(inv.Buyer.Contact),
	}

	select {
	case n.queue <- msg:
	default:
		slog.Error("agent queue full, dropping invoice notification", "invoice_id", inv.ID)
	}
}

// Run delivers queued messages until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if pending := len(n.queue); pending > 0 {
				slog.Warn("agent worker stopping with undelivered notifications", "pending", pending)
			}

			return nil
		case msg := <-n.queue:
			n.process(ctx, msg)
		}
	}
}

func (n *Notifier) process(ctx context.Context, msg Message) {
	if n.baseURL == "" {
		slog.Info("agent url not configured, skipping invoice notification", "invoice_id", msg.InvoiceID)
		return
	}

	schedule := backoff.WithContext(backoff.WithMaxRetries(txn.NewBackOff(n.retryDelay), uint64(n.maxAttempts-1)), ctx)

	err := backoff.RetryNotify(func() error {
		return n.deliver(ctx, msg)
	}, schedule, func(err error, next time.Duration) {
		slog.Warn("agent delivery failed", "invoice_id", msg.InvoiceID, "retry_in", next, "error", err)
	})
	if err != nil {
		slog.Error("giving up on invoice notification", "invoice_id", msg.InvoiceID, "error", err)
	}
}

func (n *Notifier) deliver(ctx context.Context, msg Message) error {
	var body agentRequest
	body.InvoiceData.InvoiceNumber = msg.InvoiceID.String()
	body.InvoiceData.Amount = msg.Amount.StringFixed(2)
	body.CustomerPhone = msg.Phone

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+invoicePath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting invoice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("agent returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))

		// The agent rejected the request itself; sending it again cannot help.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}

		return err
	}

	var out agentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		slog.Warn("could not decode agent response", "invoice_id", msg.InvoiceID, "error", err)
		return nil
	}

	if out.PaymentURL != nil {
		slog.Info("payment link issued", "invoice_id", msg.InvoiceID, "url", *out.PaymentURL, "status", out.PaymentStatus)
	}

	return nil
}

// NormalizePhone converts a contact number to the +<country><number> form
// the agent expects. Bare ten-digit numbers are taken to be Indian.
func NormalizePhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}

		return -1
	}, raw)

	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return "+" + digits
	case len(digits) == 10:
		return "+91" + digits
	default:
		return "+" + digits
	}
}
