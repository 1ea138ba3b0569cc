package dossier

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the generation prompt for a prospect. The prompt
// demands strict JSON so ParseResponse can decode the reply directly.
func BuildPrompt(name, company, role string) string {
	var b strings.Builder

	b.WriteString("You are an expert B2B sales researcher. Build a concise sales dossier for the prospect below.\n\n")
	fmt.Fprintf(&b, "Prospect name: %s\n", name)
	fmt.Fprintf(&b, "Company: %s\n", company)
	fmt.Fprintf(&b, "Role: %s\n\n", role)
	b.WriteString("Respond with ONLY a JSON object, no prose and no markdown, with exactly these fields:\n")
	b.WriteString(`{
  "personality": "one paragraph describing their likely communication style and priorities",
  "painPoints": ["3 to 5 business problems someone in this role at this company likely faces"],
  "iceBreakers": ["3 conversation openers tailored to this prospect"],
  "emailDraft": "a short personalized cold outreach email, under 150 words"
}`)
	b.WriteString("\n")

	return b.String()
}
