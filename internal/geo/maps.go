// README: Distance Matrix backed estimator, used when an API key is configured.
package geo

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

const metersPerMile = 1609.34

// MapsEstimator queries the Google Distance Matrix API for driving distance
// between two postcode prefixes. API failures fall back to the static table
// so eligibility checks never block on the maps service being down.
type MapsEstimator struct {
	client   *maps.Client
	fallback Estimator
	region   string
}

func NewMapsEstimator(apiKey string, fallback Estimator) (*MapsEstimator, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &MapsEstimator{client: client, fallback: fallback, region: "uk"}, nil
}

func (e *MapsEstimator) Estimate(ctx context.Context, from, to string) float64 {
	resp, err := e.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{from},
		Destinations: []string{to},
		Mode:         maps.TravelModeDriving,
	})
	if err != nil {
		return e.fallback.Estimate(ctx, from, to)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return e.fallback.Estimate(ctx, from, to)
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" || el.Distance.Meters <= 0 {
		return e.fallback.Estimate(ctx, from, to)
	}
	return float64(el.Distance.Meters) / metersPerMile
}
