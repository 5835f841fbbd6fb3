// Package notification delivers booking confirmations to callers over SMS.
// Production wiring goes through the Redis queue so a slow gateway never
// stalls a voice turn; delivery is best effort and the booking record is
// the source of truth either way.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voyager/models"
	"voyager/services/tasks"
	"voyager/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// SMSSender is one delivery channel for a text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Service is the notification surface the booking pipeline sees.
type Service interface {
	DispatchBookingConfirmation(b *models.Booking) error
}

// QueueService enqueues confirmations; the cron worker delivers them.
type QueueService struct {
	Client *asynq.Client
}

func NewQueueService(client *asynq.Client) *QueueService {
	return &QueueService{Client: client}
}

func (s *QueueService) DispatchBookingConfirmation(b *models.Booking) error {
	task, opts, err := tasks.NewConfirmationTask(PayloadFor(b))
	if err != nil {
		return fmt.Errorf("notification: build confirmation task: %w", err)
	}
	info, err := s.Client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("notification: enqueue confirmation for booking %s: %w", b.ID, err)
	}
	utils.GetLogger().Info("confirmation queued",
		zap.String("bookingID", b.ID), zap.String("taskID", info.ID))
	return nil
}

// DirectService sends synchronously, for deployments without a queue.
type DirectService struct {
	Sender SMSSender
}

func NewDirectService(sender SMSSender) *DirectService {
	return &DirectService{Sender: sender}
}

func (s *DirectService) DispatchBookingConfirmation(b *models.Booking) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Sender.SendSMS(ctx, b.Phone, ConfirmationBody(PayloadFor(b)))
}

// PayloadFor projects a booking into the queued SMS job.
func PayloadFor(b *models.Booking) models.ConfirmationPayload {
	return models.ConfirmationPayload{
		BookingID:       b.ID,
		Phone:           b.Phone,
		OriginIATA:      b.OriginIATA,
		DestinationIATA: b.DestinationIATA,
		DepartureDate:   b.DepartureDate,
		ReturnDate:      b.ReturnDate,
		PNR:             b.PNR,
		PriceTotal:      b.PriceTotal,
		Currency:        b.Currency,
	}
}

// ConfirmationBody renders the text message for a confirmed booking.
func ConfirmationBody(p models.ConfirmationPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your flight is booked! %s to %s on %s", p.OriginIATA, p.DestinationIATA, p.DepartureDate)
	if p.ReturnDate != "" {
		fmt.Fprintf(&b, ", returning %s", p.ReturnDate)
	}
	fmt.Fprintf(&b, ". Confirmation code: %s. Total: %s.", p.PNR, smsAmount(p.PriceTotal, p.Currency))
	return b.String()
}

func smsAmount(total, currency string) string {
	if currency == "" || strings.EqualFold(currency, "USD") {
		return "$" + total
	}
	return total + " " + currency
}

// LogSender writes messages to the log instead of a gateway. It is the
// development default, the same way the mock flight backend is.
type LogSender struct {
	From string
}

func (s *LogSender) SendSMS(ctx context.Context, to, body string) error {
	utils.GetLogger().Info("sms (log delivery)",
		zap.String("from", s.From), zap.String("to", to), zap.String("body", body))
	return nil
}

// WebhookSender posts messages to an HTTP SMS gateway as JSON. The request
// shape matches the voice platform's outbound-message hook.
type WebhookSender struct {
	URL    string
	From   string
	Client *http.Client
}

func NewWebhookSender(url, from string) *WebhookSender {
	return &WebhookSender{
		URL:    url,
		From:   from,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSender) SendSMS(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(map[string]string{
		"from": s.From,
		"to":   to,
		"body": body,
	})
	if err != nil {
		return fmt.Errorf("sms: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send to %s: %w", to, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms: gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
