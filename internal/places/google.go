package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"localradar/internal/config"
	"localradar/internal/logger"
	"localradar/internal/model"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// detailFields is the field mask sent with every detail request.
const detailFields = "name,formatted_address,review,formatted_phone_number,website,opening_hours"

// GoogleClient implements Directory against the Google Places web service.
type GoogleClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGoogleClient builds a client from config. The base URL is overridable for
// tests.
func NewGoogleClient(cfg config.PlacesConfig) *GoogleClient {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &GoogleClient{
		apiKey:  cfg.APIKey,
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ Directory = (*GoogleClient)(nil)

// textSearchResponse is the discovery payload.
type textSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID          string  `json:"place_id"`
		Name             string  `json:"name"`
		Rating           float64 `json:"rating"`
		UserRatingsTotal int     `json:"user_ratings_total"`
		PriceLevel       int     `json:"price_level"`
		Website          string  `json:"website"`
	} `json:"results"`
}

// detailResponse is the per-place payload.
type detailResponse struct {
	Status string `json:"status"`
	Result struct {
		FormattedAddress     string `json:"formatted_address"`
		FormattedPhoneNumber string `json:"formatted_phone_number"`
		Website              string `json:"website"`
		OpeningHours         struct {
			WeekdayText []string `json:"weekday_text"`
		} `json:"opening_hours"`
		Reviews []struct {
			Text   string `json:"text"`
			Rating int    `json:"rating"`
		} `json:"reviews"`
	} `json:"result"`
}

// Discover issues one text search for "<category> in <location>". Transport
// failures and non-OK statuses collapse to an empty result set; only context
// cancellation is returned as an error.
func (c *GoogleClient) Discover(ctx context.Context, query model.SearchQuery) ([]model.CandidatePlace, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("%s in %s", query.Category, query.Location))
	params.Set("key", c.apiKey)

	var resp textSearchResponse
	if err := c.get(ctx, "/textsearch/json", params, &resp); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Log.Warnf("places: text search failed: %v", err)
		return nil, nil
	}
	if resp.Status != "OK" {
		if resp.Status != "ZERO_RESULTS" {
			logger.Log.Warnf("places: text search status %q", resp.Status)
		}
		return nil, nil
	}

	candidates := make([]model.CandidatePlace, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.PlaceID == "" {
			continue
		}
		candidates = append(candidates, model.CandidatePlace{
			ID:          r.PlaceID,
			Name:        r.Name,
			Rating:      r.Rating,
			RatingCount: r.UserRatingsTotal,
			PriceLevel:  r.PriceLevel,
			Website:     r.Website,
		})
	}
	return candidates, nil
}

// FetchDetail issues one detail call. Any failure yields the zero PlaceDetail;
// downstream stages treat empty fields as unknown.
func (c *GoogleClient) FetchDetail(ctx context.Context, placeID string) (model.PlaceDetail, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailFields)
	params.Set("key", c.apiKey)

	var resp detailResponse
	if err := c.get(ctx, "/details/json", params, &resp); err != nil {
		if ctx.Err() != nil {
			return model.PlaceDetail{}, ctx.Err()
		}
		logger.Log.Warnf("places: detail fetch for %s failed: %v", placeID, err)
		return model.PlaceDetail{}, nil
	}
	if resp.Status != "OK" {
		logger.Log.Warnf("places: detail status %q for %s", resp.Status, placeID)
		return model.PlaceDetail{}, nil
	}

	detail := model.PlaceDetail{
		Address:      resp.Result.FormattedAddress,
		Phone:        resp.Result.FormattedPhoneNumber,
		Website:      resp.Result.Website,
		OpeningHours: resp.Result.OpeningHours.WeekdayText,
	}
	for _, r := range resp.Result.Reviews {
		detail.Reviews = append(detail.Reviews, model.Review{Text: r.Text, Rating: r.Rating})
	}
	return detail, nil
}

func (c *GoogleClient) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("places api error (status %d): %s", res.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
