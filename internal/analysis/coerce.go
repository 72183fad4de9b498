package analysis

import (
	"bytes"
	"encoding/json"
	"math"
)

// coerceScore converts one topic value from the model into an int in [0,10].
// Precedence: a bare number; else a nested "score" field; else a nested
// "rating" field; else neutral 5. Models have been observed returning both
// {"Price": 6} and {"Price": {"score": 6, "reason": ...}} for the same prompt,
// so the coercion lives here and nowhere else.
func coerceScore(raw json.RawMessage) int {
	// json.Unmarshal accepts "null" into a float64 without touching it, which
	// would read as a hard 0; null means "not mentioned".
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 5
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return clampScore(num)
	}

	var nested struct {
		Score  *float64 `json:"score"`
		Rating *float64 `json:"rating"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		if nested.Score != nil {
			return clampScore(*nested.Score)
		}
		if nested.Rating != nil {
			return clampScore(*nested.Rating)
		}
	}
	return 5
}

func clampScore(v float64) int {
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}
