package loadtest

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/okian/fairmeet/internal/domain/geo"
	"github.com/okian/fairmeet/internal/domain/model"
)

const metersPerKM = 1000

type party struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Position *model.Point `json:"position,omitempty"`
}

type meetupRequest struct {
	Category model.Category `json:"category"`
	Parties  []party        `json:"parties"`
}

// generate builds n requests. A Repeat fraction of them reuse an earlier group
// and category so the service cache is exercised.
func generate(cfg *Config) []meetupRequest {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible load
	cats := model.Categories()
	out := make([]meetupRequest, 0, cfg.Requests)

	for i := 0; i < cfg.Requests; i++ {
		if len(out) > 0 && rng.Float64() < cfg.Repeat {
			out = append(out, out[rng.Intn(len(out))])
			continue
		}
		size := cfg.MinParties
		if cfg.MaxParties > cfg.MinParties {
			size += rng.Intn(cfg.MaxParties - cfg.MinParties + 1)
		}
		req := meetupRequest{Category: cats[rng.Intn(len(cats))], Parties: make([]party, size)}
		for j := range req.Parties {
			// Uniform over the disc.
			r := cfg.SpreadKM * metersPerKM * math.Sqrt(rng.Float64())
			theta := 2 * math.Pi * rng.Float64()
			p := geo.Offset(cfg.Center, r*math.Cos(theta), r*math.Sin(theta))
			req.Parties[j] = party{ID: fmt.Sprintf("p%d", j), Label: fmt.Sprintf("Party %d", j+1), Position: &p}
		}
		out = append(out, req)
	}
	return out
}
