package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"localradar/internal/logger"
	"localradar/internal/model"
)

// Renderer serializes a composed document to a paginated PDF. When the
// primary pass fails (typically on unencodable characters in model output or
// reviews) it retries exactly once with every text field sanitized; a second
// failure is terminal. A truncated document is never returned.
type Renderer struct {
	build func(*model.ReportDocument) ([]byte, error)
}

func NewRenderer() *Renderer {
	return &Renderer{build: buildPDF}
}

// Render implements the sanitize-and-retry policy.
func (r *Renderer) Render(doc *model.ReportDocument) ([]byte, error) {
	out, err := r.build(doc)
	if err == nil {
		return out, nil
	}
	logger.Log.Warnf("report: primary render failed, retrying sanitized: %v", err)

	out, retryErr := r.build(sanitizeDocument(doc))
	if retryErr == nil {
		return out, nil
	}
	return nil, fmt.Errorf("report could not be generated: %w (first attempt: %v)", retryErr, err)
}

func buildPDF(doc *model.ReportDocument) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentW := pageW - left - right

	pdf.AddPage()

	// Header.
	if len(doc.Logo) > 0 {
		embedImage(pdf, "logo", doc.Logo, 30, pageW)
	}
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(contentW, 12, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 12)
	pdf.CellFormat(contentW, 7, tr(fmt.Sprintf("%q", doc.Slogan)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 7, tr(fmt.Sprintf("Competitive analysis for %s in %s", doc.Category, doc.Location)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 6,
		tr(fmt.Sprintf("Prepared for %s on %s  |  Competition level: %s",
			doc.Requester, doc.GeneratedAt.Format("02/01/2006 15:04"), doc.CompetitionLevel)),
		"", 1, "C", false, 0, "")
	pdf.Ln(4)
	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(left, pdf.GetY(), pageW-right, pdf.GetY())
	pdf.Ln(4)

	// Sentiment radar.
	sectionTitle(pdf, tr, "Market Sentiment Diagnosis")
	embedImage(pdf, "radar", doc.RadarChart, 120, pageW)

	// Suggestions.
	sectionTitle(pdf, tr, "Strategic Suggestions")
	pdf.SetFont("Helvetica", "", 10)
	if len(doc.Suggestions) == 0 {
		pdf.MultiCell(contentW, 5.5, tr("No strategic suggestions available."), "", "L", false)
	}
	for _, s := range doc.Suggestions {
		pdf.MultiCell(contentW, 5.5, tr("- "+s), "", "L", false)
	}
	pdf.Ln(2)

	// Optional opportunity alert.
	if doc.NicheAlert != "" {
		pdf.SetFillColor(255, 230, 230)
		pdf.SetDrawColor(244, 67, 54)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW, 8, tr("Opportunity Alert"), "LTR", 1, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentW, 5.5, tr(doc.NicheAlert), "LBR", "L", true)
		pdf.Ln(3)
	}

	// Competitor scatter, only when a chart was produced.
	if len(doc.ScatterChart) > 0 {
		sectionTitle(pdf, tr, "Competitor Positioning")
		embedImage(pdf, "scatter", doc.ScatterChart, 150, pageW)
	}

	// Comparison table.
	sectionTitle(pdf, tr, "Competitor Overview")
	colW := []float64{62, 20, 25, 18, 65}
	headers := []string{"Name", "Rating", "Reviews", "Price", "Website"}
	pdf.SetFillColor(242, 242, 242)
	pdf.SetDrawColor(204, 204, 204)
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(colW[i], 7, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, c := range doc.Competitors {
		pdf.CellFormat(colW[0], 6.5, tr(truncate(c.Name, 38)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[1], 6.5, fmt.Sprintf("%.1f", c.Rating), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[2], 6.5, fmt.Sprintf("%d", c.RatingCount), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[3], 6.5, priceLabel(c.PriceLevel), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[4], 6.5, tr(truncate(c.Website, 40)), "1", 1, "L", false, 0, "")
	}

	// Per-competitor appendix on a fresh page, in discovery order.
	pdf.AddPage()
	sectionTitle(pdf, tr, "Appendix: Competitor Dossiers")
	for _, c := range doc.Competitors {
		writeDossierCard(pdf, tr, contentW, c)
	}

	if pdf.Err() {
		return nil, pdf.Error()
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeDossierCard(pdf *fpdf.Fpdf, tr func(string) string, contentW float64, c model.CompetitorRecord) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 8, tr(c.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if c.Address != "" {
		pdf.MultiCell(contentW, 5, tr("Address: "+c.Address), "", "L", false)
	}
	if c.Phone != "" {
		pdf.MultiCell(contentW, 5, tr("Phone: "+c.Phone), "", "L", false)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5.5, tr("Strategic archetype: ")+tr(c.Dossier.Archetype), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(contentW, 5, tr("Strength: "+c.Dossier.MainStrength), "", "L", false)
	pdf.MultiCell(contentW, 5, tr("Exploitable weakness: "+c.Dossier.Weakness), "", "L", false)
	pdf.MultiCell(contentW, 5, tr(c.Dossier.StrategicSummary), "", "L", false)

	if len(c.OpeningHours) > 0 {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 5.5, tr("Opening hours"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		for _, h := range c.OpeningHours {
			pdf.CellFormat(contentW, 4.5, tr("  "+h), "", 1, "L", false, 0, "")
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pos := c.PositiveSample
	if pos == "" {
		pos = "No positive review found."
	}
	neg := c.NegativeSample
	if neg == "" {
		neg = "No negative review found."
	}
	pdf.MultiCell(contentW, 4.5, tr("Positive: "+truncate(pos, 400)), "", "L", false)
	pdf.MultiCell(contentW, 4.5, tr("Negative: "+truncate(neg, 400)), "", "L", false)
	pdf.Ln(4)
}

func sectionTitle(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(1)
}

// embedImage registers PNG bytes under name and draws them centered at the
// given width, advancing the cursor past the image.
func embedImage(pdf *fpdf.Fpdf, name string, png []byte, width, pageW float64) {
	if len(png) == 0 {
		return
	}
	info := pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	if info == nil || pdf.Err() {
		return
	}
	height := width * info.Height() / info.Width()
	y := pdf.GetY()
	pdf.ImageOptions(name, (pageW-width)/2, y, width, height, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetY(y + height + 4)
}

func priceLabel(level int) string {
	if level <= 0 {
		return "-"
	}
	if level > 4 {
		level = 4
	}
	return strings.Repeat("$", level)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
