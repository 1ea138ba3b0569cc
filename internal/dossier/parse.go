package dossier

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/leadpilot/leadpilot/internal/model"
)

// ErrBadProviderOutput indicates the model reply was not valid dossier JSON.
var ErrBadProviderOutput = errors.New("provider returned malformed dossier")

// ParseResponse decodes a model reply into a Dossier. Models often wrap
// JSON in markdown code fences despite instructions, so fences are
// stripped before decoding.
func ParseResponse(raw string) (*model.Dossier, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var d model.Dossier
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		return nil, ErrBadProviderOutput
	}
	if d.Personality == "" && d.EmailDraft == "" && len(d.PainPoints) == 0 && len(d.IceBreakers) == 0 {
		return nil, ErrBadProviderOutput
	}

	if d.PainPoints == nil {
		d.PainPoints = []string{}
	}
	if d.IceBreakers == nil {
		d.IceBreakers = []string{}
	}
	return &d, nil
}
