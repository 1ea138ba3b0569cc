package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the pipeline.
const (
	EventLeadCreated    = "lead.created"
	EventLeadStageMoved = "lead.stage_moved"
	EventLeadDeleted    = "lead.deleted"
)

// LeadEvent is the payload delivered to the configured receiver.
type LeadEvent struct {
	Type      string `json:"type"`
	LeadID    string `json:"leadId"`
	OwnerID   string `json:"ownerId"`
	Stage     string `json:"stage,omitempty"`
	PrevStage string `json:"prevStage,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Notifier delivers lead events to a single configured endpoint.
// Delivery is fire and forget: failures are logged, never surfaced to
// the request that triggered them.
type Notifier struct {
	url    string
	secret string
	client *http.Client
	logger *slog.Logger
}

// New creates a notifier. A nil *Notifier is valid and drops all events,
// which is how deployments without a receiver run.
func New(url, secret string, logger *slog.Logger) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		url:    url,
		secret: secret,
		client: NewHTTPClient(),
		logger: logger,
	}
}

// Dispatch sends the event in the background and returns immediately.
func (n *Notifier) Dispatch(event LeadEvent) {
	if n == nil {
		return
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	go n.deliver(event)
}

func (n *Notifier) deliver(event LeadEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("failed to marshal lead event", "type", event.Type, "error", err)
		return
	}

	deliveryID := uuid.New().String()

	for attempt := 0; ; attempt++ {
		err := n.send(payload, deliveryID)
		if err == nil {
			n.logger.Debug("lead event delivered",
				"type", event.Type,
				"delivery_id", deliveryID,
				"attempts", attempt+1,
			)
			return
		}

		if IsExhausted(attempt+1, DefaultMaxAttempts) {
			n.logger.Warn("lead event delivery abandoned",
				"type", event.Type,
				"delivery_id", deliveryID,
				"attempts", attempt+1,
				"error", err,
			)
			return
		}
		time.Sleep(NextRetryDelay(attempt))
	}
}

func (n *Notifier) send(payload []byte, deliveryID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), ClientTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	timestamp := time.Now().Unix()
	signature := GenerateSignature(n.secret, timestamp, payload)
	setEventHeaders(req, signature, strconv.FormatInt(timestamp, 10), deliveryID)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("receiver returned status %d", resp.StatusCode)
	}
	return nil
}
