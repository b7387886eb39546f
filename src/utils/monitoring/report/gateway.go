package report

import (
	"go.uber.org/atomic"
)

type GatewayErrors struct {
	BadRequest atomic.Uint64 `json:"bad_request"`
	DbError    atomic.Uint64 `json:"db"`
}

type GatewayState struct {
	RequestsServed     atomic.Uint64 `json:"requests_served"`
	PlacementCacheHits atomic.Uint64 `json:"placement_cache_hits"`
}

type GatewayReport struct {
	State  GatewayState  `json:"state"`
	Errors GatewayErrors `json:"errors"`
}
