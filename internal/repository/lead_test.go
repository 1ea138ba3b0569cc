package repository

import (
	"errors"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	original := &PaginationCursor{
		ID:        "01HZXM5T4N8Q",
		CreatedAt: created,
	}

	encoded := encodeCursor(original)
	if encoded == "" {
		t.Fatal("encoded cursor should not be empty")
	}

	decoded, err := decodeCursor(encoded)
	if err != nil {
		t.Fatalf("decodeCursor failed: %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("ID mismatch: got %q, want %q", decoded.ID, original.ID)
	}
	if !decoded.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", decoded.CreatedAt, original.CreatedAt)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"not json", "bm90LWpzb24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeCursor(tt.cursor); err == nil {
				t.Error("expected error for invalid cursor")
			}
		})
	}
}

func TestErrSentinels(t *testing.T) {
	// Handlers rely on errors.Is against these sentinels.
	if !errors.Is(ErrLeadNotFound, ErrLeadNotFound) {
		t.Error("ErrLeadNotFound should match itself")
	}
	if errors.Is(ErrLeadNotFound, ErrUserNotFound) {
		t.Error("lead and user sentinels must be distinct")
	}
}
