// Package chart renders the two report visualizations to PNG. The renders are
// deterministic given the same input; no interactivity, print resolution only.
package chart

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"localradar/internal/model"
)

// Renderer draws report charts. labelMaxChars bounds scatter point labels so
// neighboring names do not overlap.
type Renderer struct {
	labelMaxChars int
}

func NewRenderer(labelMaxChars int) *Renderer {
	if labelMaxChars <= 0 {
		labelMaxChars = 15
	}
	return &Renderer{labelMaxChars: labelMaxChars}
}

const (
	radarSide   = 600
	scatterW    = 800
	scatterH    = 600
	radarMaxVal = 10.0
)

// RenderSentimentRadar draws the five-axis radar chart. Axis order is the
// fixed topic order, so radars from different reports line up visually. The
// polygon is closed by returning to the first vertex.
func (r *Renderer) RenderSentimentRadar(diag model.SentimentDiagnosis) ([]byte, error) {
	dc := gg.NewContext(radarSide, radarSide)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	cx, cy := float64(radarSide)/2, float64(radarSide)/2+15
	radius := 210.0
	n := len(model.Topics)

	angle := func(i int) float64 {
		return -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
	}

	// Grid rings at 2,4,6,8,10 and the axis spokes.
	dc.SetRGB(0.8, 0.8, 0.8)
	dc.SetLineWidth(1)
	for ring := 2; ring <= 10; ring += 2 {
		rr := radius * float64(ring) / radarMaxVal
		for i := 0; i <= n; i++ {
			x := cx + rr*math.Cos(angle(i%n))
			y := cy + rr*math.Sin(angle(i%n))
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	}
	for i := 0; i < n; i++ {
		dc.DrawLine(cx, cy, cx+radius*math.Cos(angle(i)), cy+radius*math.Sin(angle(i)))
		dc.Stroke()
	}

	// Value polygon, filled then stroked.
	scores := diag.Scores()
	vertex := func(i int) (float64, float64) {
		rr := radius * float64(scores[i%n]) / radarMaxVal
		return cx + rr*math.Cos(angle(i%n)), cy + rr*math.Sin(angle(i%n))
	}
	for i := 0; i <= n; i++ {
		x, y := vertex(i)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.SetRGBA(0, 0.48, 1, 0.25)
	dc.FillPreserve()
	dc.SetRGBA(0, 0.48, 1, 1)
	dc.SetLineWidth(2)
	dc.Stroke()

	// Topic labels just past the axis tips.
	dc.SetRGB(0.1, 0.1, 0.1)
	for i, topic := range model.Topics {
		lx := cx + (radius+28)*math.Cos(angle(i))
		ly := cy + (radius+28)*math.Sin(angle(i))
		dc.DrawStringAnchored(topic, lx, ly, 0.5, 0.5)
	}
	dc.DrawStringAnchored("Sentiment Diagnosis by Topic", cx, 24, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("radar encode: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderCompetitorScatter draws rating (quality) against review count
// (popularity), one labeled point per competitor, with dashed mean reference
// lines. When no competitor carries usable numeric data the chart is omitted
// and (nil, nil) is returned; an all-zero plot would look like data.
func (r *Renderer) RenderCompetitorScatter(competitors []model.CompetitorRecord) ([]byte, error) {
	if len(competitors) == 0 {
		return nil, nil
	}
	usable := false
	for _, c := range competitors {
		if c.Rating != 0 || c.RatingCount != 0 {
			usable = true
			break
		}
	}
	if !usable {
		return nil, nil
	}

	minRating, maxRating := math.Inf(1), math.Inf(-1)
	maxCount := 0
	var sumRating, sumCount float64
	for _, c := range competitors {
		minRating = math.Min(minRating, c.Rating)
		maxRating = math.Max(maxRating, c.Rating)
		if c.RatingCount > maxCount {
			maxCount = c.RatingCount
		}
		sumRating += c.Rating
		sumCount += float64(c.RatingCount)
	}
	meanRating := sumRating / float64(len(competitors))
	meanCount := sumCount / float64(len(competitors))

	xMin, xMax := minRating-0.5, maxRating+0.5
	yMax := float64(maxCount) * 1.1
	if yMax < 1 {
		yMax = 1
	}

	const (
		left   = 70.0
		right  = 40.0
		top    = 50.0
		bottom = 60.0
	)
	plotW := float64(scatterW) - left - right
	plotH := float64(scatterH) - top - bottom
	px := func(rating float64) float64 { return left + (rating-xMin)/(xMax-xMin)*plotW }
	py := func(count float64) float64 { return top + plotH - count/yMax*plotH }

	dc := gg.NewContext(scatterW, scatterH)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Frame and grid.
	dc.SetRGB(0.85, 0.85, 0.85)
	dc.SetLineWidth(0.5)
	for i := 1; i < 10; i++ {
		gx := left + plotW*float64(i)/10
		gy := top + plotH*float64(i)/10
		dc.DrawLine(gx, top, gx, top+plotH)
		dc.DrawLine(left, gy, left+plotW, gy)
	}
	dc.Stroke()
	dc.SetRGB(0.3, 0.3, 0.3)
	dc.SetLineWidth(1)
	dc.DrawRectangle(left, top, plotW, plotH)
	dc.Stroke()

	// Mean reference lines.
	dc.SetRGB(0.5, 0.5, 0.5)
	dc.SetDash(4, 4)
	dc.DrawLine(px(meanRating), top, px(meanRating), top+plotH)
	dc.DrawLine(left, py(meanCount), left+plotW, py(meanCount))
	dc.Stroke()
	dc.SetDash()

	// One labeled point per competitor.
	for _, c := range competitors {
		x, y := px(c.Rating), py(float64(c.RatingCount))
		dc.SetRGBA(0.3, 0.69, 0.31, 0.8)
		dc.DrawCircle(x, y, 7)
		dc.FillPreserve()
		dc.SetRGB(0, 0, 0)
		dc.SetLineWidth(1)
		dc.Stroke()

		label := c.Name
		if len(label) > r.labelMaxChars {
			label = label[:r.labelMaxChars]
		}
		dc.DrawStringAnchored(label, x, y-14, 0.5, 0.5)
	}

	// Titles and axis captions.
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawStringAnchored("Competitor Analysis: Quality vs. Popularity", float64(scatterW)/2, 24, 0.5, 0.5)
	dc.DrawStringAnchored("Average rating (quality)", float64(scatterW)/2, float64(scatterH)-20, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(-math.Pi/2, 20, float64(scatterH)/2)
	dc.DrawStringAnchored("Review count (popularity)", 20, float64(scatterH)/2, 0.5, 0.5)
	dc.Pop()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("scatter encode: %w", err)
	}
	return buf.Bytes(), nil
}
