// Package places talks to the business-directory search API. Discovery and
// detail lookups both degrade to empty results instead of failing the
// pipeline: an unreachable directory is indistinguishable from an empty
// market, and the engine surfaces that as "no competitors found".
package places

import (
	"context"

	"localradar/internal/model"
)

// Directory is the discovery/enrichment surface the engine depends on.
type Directory interface {
	Discover(ctx context.Context, query model.SearchQuery) ([]model.CandidatePlace, error)
	FetchDetail(ctx context.Context, placeID string) (model.PlaceDetail, error)
}
