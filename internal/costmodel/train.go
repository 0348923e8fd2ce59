package costmodel

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// MinTrainingRecords is the smallest training set Train accepts.
const MinTrainingRecords = 10

// ErrInsufficientData is returned when fewer than MinTrainingRecords rows
// qualify for training.
var ErrInsufficientData = errors.New("insufficient data")

// Options tunes a training run. Zero values take the defaults.
type Options struct {
	Alpha           float64
	HoldoutFraction float64 // share of rows scored out of sample, 0 disables
	Seed            int64
	Now             time.Time
}

// Evaluation describes model fit. The in-sample figures reuse the training
// rows and overstate quality; the hold-out figures are set only when a
// split was requested and both sides were large enough.
type Evaluation struct {
	R2             float64  `json:"r2"`
	MAE            float64  `json:"mae"`
	MSE            float64  `json:"mse"`
	Samples        int      `json:"samples"`
	HoldoutR2      *float64 `json:"holdout_r2,omitempty"`
	HoldoutMAE     *float64 `json:"holdout_mae,omitempty"`
	HoldoutSamples int      `json:"holdout_samples,omitempty"`
}

// Message renders the evaluation for operators.
func (e Evaluation) Message() string {
	msg := fmt.Sprintf("R²: %.2f, mean error: $%.2f", e.R2, e.MAE)
	if e.HoldoutR2 != nil && e.HoldoutMAE != nil {
		msg += fmt.Sprintf(" (hold-out R²: %.2f, mean error: $%.2f over %d records)",
			*e.HoldoutR2, *e.HoldoutMAE, e.HoldoutSamples)
	}
	return msg
}

// Model is a fitted pipeline plus regressor.
type Model struct {
	Pipeline  *Pipeline `json:"pipeline"`
	Regressor *Ridge    `json:"regressor"`
}

// Predict returns the expected cost of the observed service, floored at
// zero and rounded to cents.
func (m *Model) Predict(o Observation) float64 {
	v := m.raw(o)
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Round(v*100) / 100
}

func (m *Model) raw(o Observation) float64 {
	return m.Regressor.Predict(m.Pipeline.Transform(o))
}

// TrainingSet joins services with their vehicles and keeps the rows with a
// positive cost and a known odometer.
func TrainingSet(vehicles []models.Vehicle, services []models.ServiceRecord, now time.Time) ([]Observation, []float64) {
	byPlate := make(map[string]models.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byPlate[v.Plate] = v
	}

	var obs []Observation
	var costs []float64
	for _, s := range services {
		v, ok := byPlate[s.Plate]
		if !ok || s.Cost <= 0 || s.Odometer == nil {
			continue
		}
		obs = append(obs, NewObservation(s, v, now))
		costs = append(costs, s.Cost)
	}
	return obs, costs
}

// Train fits the cost model on the fleet history.
func Train(vehicles []models.Vehicle, services []models.ServiceRecord, opts Options) (*Model, Evaluation, error) {
	if opts.Alpha <= 0 {
		opts.Alpha = DefaultAlpha
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	obs, costs := TrainingSet(vehicles, services, opts.Now)
	if len(obs) < MinTrainingRecords {
		return nil, Evaluation{}, fmt.Errorf("%w (minimum %d records, got %d)", ErrInsufficientData, MinTrainingRecords, len(obs))
	}

	m, err := fit(obs, costs, opts.Alpha)
	if err != nil {
		return nil, Evaluation{}, err
	}
	ev := score(m, obs, costs)

	if trainIdx, testIdx, ok := split(len(obs), opts.HoldoutFraction, opts.Seed); ok {
		hm, err := fit(pickObs(obs, trainIdx), pickFloats(costs, trainIdx), opts.Alpha)
		if err == nil {
			h := score(hm, pickObs(obs, testIdx), pickFloats(costs, testIdx))
			ev.HoldoutR2 = &h.R2
			ev.HoldoutMAE = &h.MAE
			ev.HoldoutSamples = h.Samples
		}
	}
	return m, ev, nil
}

func fit(obs []Observation, costs []float64, alpha float64) (*Model, error) {
	p := FitPipeline(obs)
	x := make([][]float64, len(obs))
	for i, o := range obs {
		x[i] = p.Transform(o)
	}
	r, err := FitRidge(x, costs, alpha)
	if err != nil {
		return nil, err
	}
	return &Model{Pipeline: p, Regressor: r}, nil
}

func score(m *Model, obs []Observation, costs []float64) Evaluation {
	pred := make([]float64, len(obs))
	for i, o := range obs {
		pred[i] = m.raw(o)
	}
	return Evaluation{
		R2:      r2Score(costs, pred),
		MAE:     meanAbsoluteError(costs, pred),
		MSE:     meanSquaredError(costs, pred),
		Samples: len(obs),
	}
}

// split shuffles row indices deterministically. Both sides must keep
// enough rows for the split to be meaningful.
func split(n int, fraction float64, seed int64) (train, test []int, ok bool) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, false
	}
	nTest := int(math.Round(float64(n) * fraction))
	if nTest < 1 || n-nTest < MinTrainingRecords {
		return nil, nil, false
	}
	idx := rand.New(rand.NewSource(seed)).Perm(n)
	return idx[nTest:], idx[:nTest], true
}

func pickObs(obs []Observation, idx []int) []Observation {
	out := make([]Observation, len(idx))
	for i, j := range idx {
		out[i] = obs[j]
	}
	return out
}

func pickFloats(xs []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}

// r2Score follows the usual convention for a constant target: 1 for a
// perfect fit, 0 otherwise.
func r2Score(y, pred []float64) float64 {
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i, v := range y {
		ssRes += (v - pred[i]) * (v - pred[i])
		ssTot += (v - mean) * (v - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func meanAbsoluteError(y, pred []float64) float64 {
	var sum float64
	for i, v := range y {
		sum += math.Abs(v - pred[i])
	}
	return sum / float64(len(y))
}

func meanSquaredError(y, pred []float64) float64 {
	var sum float64
	for i, v := range y {
		sum += (v - pred[i]) * (v - pred[i])
	}
	return sum / float64(len(y))
}
