// Package bandit implements the Thompson Sampling feedback model over
// (category, method) targeting arms.
package bandit

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sentinel errors for bandit operations.
var (
	// ErrInvalidOutcome is returned for outcomes outside the taxonomy or
	// non-terminal statuses used as feedback.
	ErrInvalidOutcome = errors.New("invalid feedback outcome")

	// ErrInvalidArm is returned when an arm key component is empty.
	ErrInvalidArm = errors.New("invalid arm key")
)

// armKeySep joins category and method in the persisted arm key.
const armKeySep = "|"

// Arm tracks one (category, method) pair as a Beta distribution.
// Alpha counts successes plus the (1,1) prior; Beta counts failures.
type Arm struct {
	Category string  `json:"category"`
	Method   string  `json:"method"`
	Alpha    float64 `json:"alpha"`
	Beta     float64 `json:"beta"`
	Pulls    int     `json:"pulls"`
}

// Mean returns the posterior mean of the Beta distribution.
func (a *Arm) Mean() float64 {
	return a.Alpha / (a.Alpha + a.Beta)
}

// update applies one success or failure observation.
func (a *Arm) update(success bool) {
	if success {
		a.Alpha++
	} else {
		a.Beta++
	}
	a.Pulls++
}

// ArmKey builds the persisted key for a (category, method) pair.
func ArmKey(category, method string) (string, error) {
	category = strings.TrimSpace(category)
	method = strings.TrimSpace(method)
	if category == "" || method == "" {
		return "", fmt.Errorf("%w: category=%q method=%q", ErrInvalidArm, category, method)
	}
	return category + armKeySep + method, nil
}

// Model is the persisted Thompson Sampling state. Arms are created
// lazily with the (1,1) prior on first observation and never deleted.
//
// The random source is injected so recommendation order is reproducible
// in tests; production callers pass a time-seeded source.
type Model struct {
	path string
	rng  *rand.Rand
	arms map[string]*Arm
}

// Open loads the model from path, starting empty when the file does not
// exist. A corrupt state file is an error: arms are feedback history and
// silently resetting them would lose it.
func Open(path string, rng *rand.Rand) (*Model, error) {
	m := &Model{path: path, rng: rng, arms: make(map[string]*Arm)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading arm state: %w", err)
	}
	if err := json.Unmarshal(data, &m.arms); err != nil {
		return nil, fmt.Errorf("parsing arm state %s: %w", path, err)
	}
	return m, nil
}

// Save persists the arm map as a flat key -> arm JSON object, written to
// a temp file and renamed so a crash never leaves partial state.
func (m *Model) Save() error {
	data, err := json.MarshalIndent(m.arms, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding arm state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing arm state: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replacing arm state: %w", err)
	}
	return nil
}

// Len returns the number of observed arms.
func (m *Model) Len() int { return len(m.arms) }

// Arm returns the arm for (category, method), or nil if unobserved.
func (m *Model) Arm(category, method string) *Arm {
	key, err := ArmKey(category, method)
	if err != nil {
		return nil
	}
	return m.arms[key]
}

// Mean returns the posterior mean for (category, method). Unobserved
// arms report the uniform prior mean 0.5.
func (m *Model) Mean(category, method string) float64 {
	if arm := m.Arm(category, method); arm != nil {
		return arm.Mean()
	}
	return 0.5
}

// getOrCreate returns the arm for key, creating it with the (1,1) prior.
func (m *Model) getOrCreate(category, method string) (*Arm, error) {
	key, err := ArmKey(category, method)
	if err != nil {
		return nil, err
	}
	arm, ok := m.arms[key]
	if !ok {
		arm = &Arm{Category: strings.TrimSpace(category), Method: strings.TrimSpace(method), Alpha: 1, Beta: 1}
		m.arms[key] = arm
	}
	return arm, nil
}

// Feedback records one outcome against the (category, method) arm.
// Invalid outcomes reject without mutating state.
func (m *Model) Feedback(category, method, outcome string) error {
	parsed, err := ParseOutcome(outcome)
	if err != nil {
		return err
	}
	arm, err := m.getOrCreate(category, method)
	if err != nil {
		return err
	}
	arm.update(parsed.IsSuccess())
	return nil
}

// Recommendation is one sampled arm ranking entry.
type Recommendation struct {
	Category string  `json:"category"`
	Method   string  `json:"method"`
	Sampled  float64 `json:"sampled"`
	Mean     float64 `json:"mean"`
	Pulls    int     `json:"pulls"`
}

// Recommend draws one Thompson sample per arm and returns the top k by
// sampled value. Intentionally stochastic: two calls on identical state
// may order arms differently, trading exploitation against exploration.
func (m *Model) Recommend(k int) []Recommendation {
	if len(m.arms) == 0 || k <= 0 {
		return nil
	}

	keys := make([]string, 0, len(m.arms))
	for key := range m.arms {
		keys = append(keys, key)
	}
	sort.Strings(keys) // deterministic draw order for a seeded rng

	recs := make([]Recommendation, 0, len(keys))
	for _, key := range keys {
		arm := m.arms[key]
		recs = append(recs, Recommendation{
			Category: arm.Category,
			Method:   arm.Method,
			Sampled:  sampleBeta(m.rng, arm.Alpha, arm.Beta),
			Mean:     arm.Mean(),
			Pulls:    arm.Pulls,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Sampled > recs[j].Sampled })
	if k < len(recs) {
		recs = recs[:k]
	}
	return recs
}

// ArmStat is one arm's posterior summary for dashboards.
type ArmStat struct {
	Category string  `json:"category"`
	Method   string  `json:"method"`
	Alpha    float64 `json:"alpha"`
	Beta     float64 `json:"beta"`
	Mean     float64 `json:"mean"`
	Pulls    int     `json:"pulls"`
}

// Stats returns all arms sorted by posterior mean descending, key
// ascending on ties.
func (m *Model) Stats() []ArmStat {
	stats := make([]ArmStat, 0, len(m.arms))
	for _, arm := range m.arms {
		stats = append(stats, ArmStat{
			Category: arm.Category,
			Method:   arm.Method,
			Alpha:    arm.Alpha,
			Beta:     arm.Beta,
			Mean:     arm.Mean(),
			Pulls:    arm.Pulls,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Mean != stats[j].Mean {
			return stats[i].Mean > stats[j].Mean
		}
		if stats[i].Category != stats[j].Category {
			return stats[i].Category < stats[j].Category
		}
		return stats[i].Method < stats[j].Method
	})
	return stats
}

// sampleBeta draws from Beta(alpha, beta) via two gamma draws.
func sampleBeta(rng *rand.Rand, alpha, beta float64) float64 {
	x := sampleGamma(rng, alpha)
	y := sampleGamma(rng, beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma draws from Gamma(shape, 1) using Marsaglia-Tsang, with the
// standard shape<1 boost.
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := rng.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}
