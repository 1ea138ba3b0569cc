// LeadPilot Webhook Receiver Example
//
// This is a minimal example of how to receive and verify LeadPilot lead events.
//
// Usage:
//   export LEADPILOT_WEBHOOK_SECRET="your_secret_here"
//   go run main.go
//
// Then set NOTIFY_WEBHOOK_URL on the LeadPilot server to http://your-server:9000/webhook

package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"
)

// LeadEvent represents the webhook payload for lead lifecycle events
type LeadEvent struct {
	Type      string `json:"type"`
	LeadID    string `json:"leadId"`
	OwnerID   string `json:"ownerId"`
	Stage     string `json:"stage,omitempty"`
	PrevStage string `json:"prevStage,omitempty"`
	Timestamp string `json:"timestamp"`
}

func main() {
	secret := os.Getenv("LEADPILOT_WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("LEADPILOT_WEBHOOK_SECRET environment variable is required")
	}

	http.HandleFunc("/webhook", webhookHandler(secret))
	http.HandleFunc("/health", healthHandler)

	log.Println("Starting webhook receiver on :9000")
	log.Println("Endpoint: http://localhost:9000/webhook")
	log.Fatal(http.ListenAndServe(":9000", nil))
}

func webhookHandler(secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Printf("Error reading body: %v", err)
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		signature := r.Header.Get("X-Leadpilot-Signature")
		timestamp := r.Header.Get("X-Leadpilot-Timestamp")
		if signature == "" || timestamp == "" {
			log.Println("Missing signature headers")
			http.Error(w, "Missing signature", http.StatusUnauthorized)
			return
		}

		if !verifySignature(signature, timestamp, string(body), secret) {
			log.Println("Invalid signature")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		var event LeadEvent
		if err := json.Unmarshal(body, &event); err != nil {
			log.Printf("Error parsing JSON: %v", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		log.Printf("✓ Received %s event", event.Type)
		log.Printf("  Lead ID:  %s", event.LeadID)
		log.Printf("  Owner:    %s", event.OwnerID)
		if event.Stage != "" {
			log.Printf("  Stage:    %s (was %s)", event.Stage, event.PrevStage)
		}
		log.Printf("  Delivery: %s at %s", r.Header.Get("X-Leadpilot-Delivery-Id"), event.Timestamp)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "received"})
	}
}

// verifySignature verifies the HMAC-SHA256 signature from LeadPilot
//
// Signed payload: {timestamp}.{body}
// Signature header: hex-encoded HMAC digest
func verifySignature(signature, timestamp, body, secret string) bool {
	// Check timestamp (±5 min tolerance)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if math.Abs(float64(time.Now().Unix()-ts)) > 300 {
		log.Println("Signature timestamp too old or in future")
		return false
	}

	signedPayload := timestamp + "." + body
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison
	return hmac.Equal([]byte(signature), []byte(expected))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
