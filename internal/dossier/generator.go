// Package dossier turns prospect details into AI-generated sales dossiers.
package dossier

import "context"

// Generator produces raw model output for a prompt. Implementations wrap
// a specific provider behind this surface so the service and tests do
// not depend on any SDK.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
