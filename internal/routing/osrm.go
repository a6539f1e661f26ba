package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/example/taxi-dispatch/internal/models"
)

// OSRMClient performs route and table lookups against an OSRM HTTP server.
type OSRMClient struct {
	Endpoint string
	Client   *http.Client
}

func NewOSRMClient(endpoint string) *OSRMClient {
	return &OSRMClient{Endpoint: endpoint, Client: &http.Client{Timeout: 5 * time.Second}}
}

// Route queries OSRM /route for the full coordinate sequence:
// /route/v1/driving/{lon1},{lat1};...?overview=false
func (o *OSRMClient) Route(ctx context.Context, coords []models.Coord) (Leg, error) {
	if len(coords) < 2 {
		return Leg{}, fmt.Errorf("osrm: need at least 2 coordinates, got %d", len(coords))
	}
	url := fmt.Sprintf("%s/route/v1/driving/%s?overview=false", o.Endpoint, coordPath(coords))
	var out struct {
		Routes []struct {
			Duration float64 `json:"duration"`
			Distance float64 `json:"distance"`
		} `json:"routes"`
		Code string `json:"code"`
	}
	if err := o.get(ctx, url, &out); err != nil {
		return Leg{}, err
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return Leg{}, fmt.Errorf("osrm no route: %v", out.Code)
	}
	return Leg{DurationSec: out.Routes[0].Duration, DistanceMeters: out.Routes[0].Distance}, nil
}

func (o *OSRMClient) Between(ctx context.Context, from, to models.Coord) (Leg, error) {
	return o.Route(ctx, []models.Coord{from, to})
}

// Matrix queries OSRM /table for all-pairs durations. OSRM encodes an
// unreachable pair as JSON null, which we surface as +Inf.
func (o *OSRMClient) Matrix(ctx context.Context, coords []models.Coord) ([][]float64, error) {
	if len(coords) < 2 {
		return nil, fmt.Errorf("osrm: need at least 2 coordinates, got %d", len(coords))
	}
	url := fmt.Sprintf("%s/table/v1/driving/%s?annotations=duration", o.Endpoint, coordPath(coords))
	var out struct {
		Durations [][]*float64 `json:"durations"`
		Code      string       `json:"code"`
	}
	if err := o.get(ctx, url, &out); err != nil {
		return nil, err
	}
	if out.Code != "Ok" || len(out.Durations) == 0 {
		return nil, fmt.Errorf("osrm no table: %v", out.Code)
	}
	m := make([][]float64, len(out.Durations))
	for i, row := range out.Durations {
		m[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				m[i][j] = math.Inf(1)
				continue
			}
			m[i][j] = *v
		}
	}
	return m, nil
}

func (o *OSRMClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func coordPath(coords []models.Coord) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat)
	}
	return strings.Join(parts, ";")
}
