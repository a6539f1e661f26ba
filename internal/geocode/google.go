package geocode

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/example/taxi-dispatch/internal/models"
)

// GoogleGeocoder resolves addresses through the Google Maps Geocoding API.
type GoogleGeocoder struct {
	client *maps.Client
	region string
}

// NewGoogleGeocoder creates a geocoder with the given API key. region biases
// results (e.g. "hu") and may be empty.
func NewGoogleGeocoder(apiKey, region string) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleGeocoder{client: client, region: region}, nil
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (models.Coord, error) {
	r := &maps.GeocodingRequest{Address: address, Region: g.region}
	results, err := g.client.Geocode(ctx, r)
	if err != nil {
		return models.Coord{}, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return models.Coord{}, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	loc := results[0].Geometry.Location
	return models.Coord{Lat: loc.Lat, Lon: loc.Lng}, nil
}
