package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/example/taxi-dispatch/internal/models"
)

// GeminiRanker implements Ranker using Google's Gemini models.
type GeminiRanker struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiRanker initializes a new Gemini client. apiKey comes from the
// environment via config.
func NewGeminiRanker(ctx context.Context, apiKey string) (*GeminiRanker, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Flash keeps dispatch latency and cost low.
	model := client.GenerativeModel("gemini-2.0-flash")

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.1)

	return &GeminiRanker{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (g *GeminiRanker) Close() {
	g.client.Close()
}

func (g *GeminiRanker) OrderStops(ctx context.Context, matrix [][]float64) ([]int, error) {
	b, err := json.Marshal(matrix)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(`You order taxi stops to minimize total travel time.
The JSON matrix below holds pairwise travel durations in seconds; entry [i][j]
is the time from stop i to stop j. Stop 0 is the pickup and is always first.
Return the visiting order of the remaining stops.

Matrix: %s

Output JSON schema:
{"order": [integer indices of every stop except 0, each exactly once]}
`, string(b))

	var out struct {
		Order []int `json:"order"`
	}
	if err := g.generate(ctx, prompt, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

func (g *GeminiRanker) PickVehicle(ctx context.Context, req models.RideRequest, alts []models.Alternative) (string, error) {
	type candidate struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Seats      int    `json:"seats"`
		ETAMinutes int    `json:"eta_minutes"`
		Wait       int    `json:"wait_minutes"`
		Price      int    `json:"price"`
	}
	cands := make([]candidate, len(alts))
	for i, a := range alts {
		cands[i] = candidate{
			ID:         a.Vehicle.ID,
			Type:       string(a.Vehicle.Type),
			Seats:      a.Vehicle.Seats,
			ETAMinutes: a.ETAMinutes,
			Wait:       a.WaitMinutes,
			Price:      a.Price,
		}
	}
	b, err := json.Marshal(cands)
	if err != nil {
		return "", err
	}
	prompt := fmt.Sprintf(`You are a taxi dispatcher choosing the vehicle for a ride.
Candidates are already sorted by total ETA ascending and all seat the party.
Prefer the lowest ETA; break near-ties toward the tighter seat fit and lower
price. Passengers: %d. Notes: %q.

Candidates: %s

Output JSON schema:
{"vehicle_id": "id of the chosen candidate"}
`, req.Passengers, req.Notes, string(b))

	var out struct {
		VehicleID string `json:"vehicle_id"`
	}
	if err := g.generate(ctx, prompt, &out); err != nil {
		return "", err
	}
	return out.VehicleID, nil
}

func (g *GeminiRanker) generate(ctx context.Context, prompt string, out any) error {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return fmt.Errorf("no response candidates from Gemini")
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	clean := cleanJSONString(text.String())
	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, clean)
	}
	return nil
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
