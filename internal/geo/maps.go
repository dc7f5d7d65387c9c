// README: Google Maps backed geocoder and distance provider.
package geo

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"unirides/internal/types"
)

// NewMapsClient creates a Google Maps client with the given API key.
func NewMapsClient(apiKey string) (*maps.Client, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}

type MapsGeocoder struct {
	client *maps.Client
	region string
}

// NewMapsGeocoder biases lookups toward region (a ccTLD such as "uk").
func NewMapsGeocoder(client *maps.Client, region string) *MapsGeocoder {
	return &MapsGeocoder{client: client, region: region}
}

func (g *MapsGeocoder) Geocode(ctx context.Context, address string) (*types.Point, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  g.region,
	})
	if err != nil {
		return nil, fmt.Errorf("maps api error: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoResult
	}
	loc := results[0].Geometry.Location
	return &types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}

type MapsDistance struct {
	client *maps.Client
}

func NewMapsDistance(client *maps.Client) *MapsDistance {
	return &MapsDistance{client: client}
}

func (d *MapsDistance) Distance(ctx context.Context, origin, dest types.Point) (*Route, error) {
	req := &maps.DistanceMatrixRequest{
		Origins:      []string{latLng(origin)},
		Destinations: []string{latLng(dest)},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
	}
	resp, err := d.client.DistanceMatrix(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("maps api error: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return nil, ErrNoResult
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return nil, fmt.Errorf("%w: element status %s", ErrNoResult, el.Status)
	}
	return &Route{
		DistanceKm:  float64(el.Distance.Meters) / 1000,
		DurationMin: el.Duration.Minutes(),
	}, nil
}

func latLng(p types.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
