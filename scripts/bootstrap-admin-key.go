// Command bootstrap-admin-key generates an operator key and prints the
// hash to store in ADMIN_KEY_HASH. The plaintext key is shown once and
// never persisted.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/leadpilot/leadpilot/internal/auth"
)

type output struct {
	Key     string `json:"key"`
	KeyHash string `json:"key_hash"`
}

func main() {
	format := flag.String("format", "plain", "Output format: plain or json")
	flag.Parse()

	key, err := generateKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate key:", err)
		os.Exit(1)
	}

	hash, err := auth.HashAdminKey(key)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash key:", err)
		os.Exit(1)
	}

	out := output{Key: key, KeyHash: hash}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, "encode output:", err)
			os.Exit(1)
		}
	default:
		fmt.Println("Admin key (send as X-Admin-Key, shown once):")
		fmt.Println("  " + out.Key)
		fmt.Println()
		fmt.Println("Set in the server environment:")
		fmt.Println("  ADMIN_KEY_HASH='" + out.KeyHash + "'")
	}
}

func generateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "lpk_" + hex.EncodeToString(buf), nil
}
