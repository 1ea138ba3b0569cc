package notify

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateSignature(t *testing.T) {
	tests := []struct {
		name        string
		secret      string
		timestamp   int64
		payloadJSON []byte
	}{
		{
			name:        "basic signature",
			secret:      "evsec_test123",
			timestamp:   1736600000,
			payloadJSON: []byte(`{"type":"lead.created","leadId":"01ABC"}`),
		},
		{
			name:        "empty payload",
			secret:      "secret",
			timestamp:   1000000000,
			payloadJSON: []byte(`{}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := GenerateSignature(tt.secret, tt.timestamp, tt.payloadJSON)

			// Signature should be hex-encoded (64 chars for SHA256)
			if len(sig) != 64 {
				t.Errorf("signature length = %d, want 64", len(sig))
			}

			sig2 := GenerateSignature(tt.secret, tt.timestamp, tt.payloadJSON)
			if sig != sig2 {
				t.Error("signature is not deterministic")
			}

			sig3 := GenerateSignature(tt.secret, tt.timestamp+1, tt.payloadJSON)
			if sig == sig3 {
				t.Error("different timestamp should produce different signature")
			}

			sig4 := GenerateSignature(tt.secret+"x", tt.timestamp, tt.payloadJSON)
			if sig == sig4 {
				t.Error("different secret should produce different signature")
			}
		})
	}
}

func TestValidateSignature(t *testing.T) {
	secret := "test_secret"
	timestamp := time.Now().Unix()
	payload := []byte(`{"type":"lead.stage_moved"}`)

	validSig := GenerateSignature(secret, timestamp, payload)

	tests := []struct {
		name      string
		signature string
		timestamp int64
		wantErr   error
	}{
		{
			name:      "valid signature",
			signature: validSig,
			timestamp: timestamp,
			wantErr:   nil,
		},
		{
			name:      "tampered signature",
			signature: validSig[:60] + "0000",
			timestamp: timestamp,
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "stale timestamp",
			signature: validSig,
			timestamp: timestamp - int64((DefaultReplayWindow + time.Minute).Seconds()),
			wantErr:   ErrReplayWindowExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignature(secret, tt.signature, tt.timestamp, payload, DefaultReplayWindow)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSignature() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateSecret(t *testing.T) {
	s1, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	if len(s1) != 64 {
		t.Errorf("secret length = %d, want 64 hex chars", len(s1))
	}

	s2, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	if s1 == s2 {
		t.Error("secrets should be unique")
	}
}

func TestNextRetryDelay(t *testing.T) {
	for attempt := 0; attempt < DefaultMaxAttempts+2; attempt++ {
		d := NextRetryDelay(attempt)
		if d <= 0 {
			t.Errorf("attempt %d: non-positive delay %v", attempt, d)
		}
		if d > 10*time.Second {
			t.Errorf("attempt %d: delay %v too long for in-process delivery", attempt, d)
		}
	}

	if d := NextRetryDelay(-1); d <= 0 {
		t.Errorf("negative attempt: non-positive delay %v", d)
	}
}

func TestIsExhausted(t *testing.T) {
	if IsExhausted(2, 3) {
		t.Error("2 of 3 attempts should not be exhausted")
	}
	if !IsExhausted(3, 3) {
		t.Error("3 of 3 attempts should be exhausted")
	}
}
