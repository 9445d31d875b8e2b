// README: Geocoding fallback for destinations the town catalog cannot match.
package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// Resolver normalizes free-text destinations ("la laguna de guatavita",
// misspellings, vereda names) to a municipality name via the Geocoding API.
type Resolver struct {
	client *maps.Client
	region string
}

// NewResolver creates a Resolver biased to the given region code (e.g. "co").
func NewResolver(apiKey, region string) (*Resolver, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Resolver{client: client, region: region}, nil
}

// Locality geocodes the text and returns the locality (municipality) long
// name, or "" when the API finds nothing usable.
func (r *Resolver) Locality(ctx context.Context, text string) (string, error) {
	results, err := r.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: text,
		Region:  r.region,
	})
	if err != nil {
		return "", fmt.Errorf("geocode %q: %w", text, err)
	}
	if len(results) == 0 {
		return "", nil
	}
	for _, comp := range results[0].AddressComponents {
		for _, t := range comp.Types {
			if t == "locality" || t == "administrative_area_level_2" {
				return strings.TrimSpace(comp.LongName), nil
			}
		}
	}
	return "", nil
}
