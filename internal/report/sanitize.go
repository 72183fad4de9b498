package report

import (
	"regexp"
	"strings"
	"unicode"

	"localradar/internal/model"
)

// disallowed matches everything outside the safe allowlist used by the
// sanitize-and-retry rendering path.
var disallowed = regexp.MustCompile(`[^\w\s.,!?-]`)

// CleanText reduces a string to renderer-safe ASCII: non-ASCII runes are
// dropped and remaining punctuation is filtered through the allowlist.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return disallowed.ReplaceAllString(b.String(), "")
}

func cleanAll(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = CleanText(s)
	}
	return out
}

// sanitizeDocument returns a copy of the document with every text field
// reduced through CleanText. Charts and numbers are untouched.
func sanitizeDocument(doc *model.ReportDocument) *model.ReportDocument {
	out := *doc
	out.Title = CleanText(doc.Title)
	out.Slogan = CleanText(doc.Slogan)
	out.Requester = CleanText(doc.Requester)
	out.Category = CleanText(doc.Category)
	out.Location = CleanText(doc.Location)
	out.NicheAlert = CleanText(doc.NicheAlert)
	out.Suggestions = cleanAll(doc.Suggestions)

	out.Competitors = make([]model.CompetitorRecord, len(doc.Competitors))
	for i, c := range doc.Competitors {
		cc := c
		cc.Name = CleanText(c.Name)
		cc.Address = CleanText(c.Address)
		cc.Phone = CleanText(c.Phone)
		cc.Website = CleanText(c.Website)
		cc.OpeningHours = cleanAll(c.OpeningHours)
		cc.PositiveSample = CleanText(c.PositiveSample)
		cc.NegativeSample = CleanText(c.NegativeSample)
		cc.Dossier = model.StrategicDossier{
			Archetype:        CleanText(c.Dossier.Archetype),
			MainStrength:     CleanText(c.Dossier.MainStrength),
			Weakness:         CleanText(c.Dossier.Weakness),
			StrategicSummary: CleanText(c.Dossier.StrategicSummary),
		}
		out.Competitors[i] = cc
	}
	return &out
}
