package handler

import (
	"net/http"
)

// legalPages maps slugs to static policy documents. Served as JSON so
// the frontend renders them with its own chrome.
var legalPages = map[string]struct {
	Title string
	Body  string
}{
	"privacy": {
		Title: "Privacy Policy",
		Body: "We store your account email, the prospect details you submit, and the " +
			"dossiers generated from them. Prospect details are sent to our AI provider " +
			"solely to generate your dossier and are never sold or shared for advertising. " +
			"Usage counters exist only to enforce plan limits. You can delete leads at any " +
			"time; deletion is immediate and permanent.",
	},
	"terms": {
		Title: "Terms of Service",
		Body: "LeadPilot provides AI-assisted sales research tools. Generated dossiers are " +
			"suggestions, not verified facts; you are responsible for how you use them in " +
			"outreach. Daily generation limits depend on your plan and reset at midnight UTC. " +
			"Abuse of the service, including automated scraping of the generation endpoint, " +
			"may result in account suspension.",
	},
	"refunds": {
		Title: "Refund Policy",
		Body: "Pro subscriptions are billed monthly through Stripe. You can cancel at any " +
			"time from the billing portal and keep Pro access until the end of the paid " +
			"period. If something went wrong with a charge, contact support within 14 days " +
			"and we will make it right.",
	},
}

// LegalPageResponse is a static policy document.
type LegalPageResponse struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// LegalPage serves GET /legal/{slug} for privacy, terms and refunds.
func LegalPage(slug string) http.HandlerFunc {
	page, ok := legalPages[slug]
	return func(w http.ResponseWriter, r *http.Request) {
		if !ok {
			NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, LegalPageResponse{
			Slug:  slug,
			Title: page.Title,
			Body:  page.Body,
		})
	}
}
