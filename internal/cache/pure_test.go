package cache

import (
	"strings"
	"testing"
)

func TestHashIP(t *testing.T) {
	t.Run("consistent hashing", func(t *testing.T) {
		ip := "192.168.1.1"
		h1 := hashIP(ip)
		h2 := hashIP(ip)
		if h1 != h2 {
			t.Errorf("hashIP not deterministic: %q vs %q", h1, h2)
		}
	})

	t.Run("different IPs produce different hashes", func(t *testing.T) {
		h1 := hashIP("192.168.1.1")
		h2 := hashIP("192.168.1.2")
		if h1 == h2 {
			t.Error("different IPs produced identical hashes")
		}
	})

	t.Run("hash length", func(t *testing.T) {
		h := hashIP("10.0.0.1")
		if len(h) != 16 {
			t.Errorf("expected 16 hex chars, got %d", len(h))
		}
	})

	t.Run("does not contain raw IP", func(t *testing.T) {
		ip := "203.0.113.42"
		h := hashIP(ip)
		if strings.Contains(h, ip) {
			t.Error("hash contains raw IP")
		}
	})
}

func TestProspectFingerprint(t *testing.T) {
	t.Run("case and whitespace insensitive", func(t *testing.T) {
		a := ProspectFingerprint("Jane Doe", "Acme Corp", "VP Sales")
		b := ProspectFingerprint("  jane doe ", "ACME CORP", " vp sales")
		if a != b {
			t.Errorf("fingerprints differ for equivalent prospects: %q vs %q", a, b)
		}
	})

	t.Run("distinct prospects differ", func(t *testing.T) {
		a := ProspectFingerprint("Jane Doe", "Acme Corp", "VP Sales")
		b := ProspectFingerprint("John Doe", "Acme Corp", "VP Sales")
		if a == b {
			t.Error("distinct prospects produced identical fingerprints")
		}
	})

	t.Run("field boundaries matter", func(t *testing.T) {
		a := ProspectFingerprint("jane", "doeacme", "corp")
		b := ProspectFingerprint("janedoe", "acme", "corp")
		if a == b {
			t.Error("field concatenation collision")
		}
	})
}
