package risk

import (
	"fmt"
	"math"
)

// Logistic is a standardized logistic regression. Its fields are exported for
// JSON serialization into the model artifact payload.
type Logistic struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Means   []float64 `json:"means"`
	Stds    []float64 `json:"stds"`
}

// TrainOptions tune gradient descent. Zero values select defaults.
type TrainOptions struct {
	Epochs       int
	LearningRate float64
	// HoldoutEvery reserves every Nth sample for evaluation.
	HoldoutEvery int
}

func (o *TrainOptions) defaults() {
	if o.Epochs == 0 {
		o.Epochs = 300
	}
	if o.LearningRate == 0 {
		o.LearningRate = 0.1
	}
	if o.HoldoutEvery == 0 {
		o.HoldoutEvery = 5
	}
}

// TrainLogistic fits a logistic regression on the given samples and binary
// labels. The split between training and holdout is deterministic so repeated
// training on identical data yields identical artifacts.
func TrainLogistic(samples [][]float64, labels []float64, opts TrainOptions) (*Logistic, Metrics, error) {
	if len(samples) == 0 || len(samples) != len(labels) {
		return nil, Metrics{}, fmt.Errorf("need matching samples and labels, got %d/%d", len(samples), len(labels))
	}
	opts.defaults()

	dims := len(samples[0])
	for _, s := range samples {
		if len(s) != dims {
			return nil, Metrics{}, ErrDimensionMismatch
		}
	}

	means, stds := standardization(samples, dims)

	var trainX, holdX [][]float64
	var trainY, holdY []float64
	for i, s := range samples {
		scaled := scale(s, means, stds)
		if len(samples) > opts.HoldoutEvery && (i+1)%opts.HoldoutEvery == 0 {
			holdX = append(holdX, scaled)
			holdY = append(holdY, labels[i])
		} else {
			trainX = append(trainX, scaled)
			trainY = append(trainY, labels[i])
		}
	}

	m := &Logistic{
		Weights: make([]float64, dims),
		Means:   means,
		Stds:    stds,
	}

	n := float64(len(trainX))
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		grad := make([]float64, dims)
		var gradBias float64

		for i, x := range trainX {
			p := sigmoid(dot(m.Weights, x) + m.Bias)
			diff := p - trainY[i]
			for j := range x {
				grad[j] += diff * x[j]
			}
			gradBias += diff
		}

		for j := range m.Weights {
			m.Weights[j] -= opts.LearningRate * grad[j] / n
		}
		m.Bias -= opts.LearningRate * gradBias / n
	}

	metrics := Metrics{
		TrainAccuracy:   accuracyScaled(m, trainX, trainY),
		HoldoutAccuracy: accuracyScaled(m, holdX, holdY),
		Samples:         len(samples),
		Dimensions:      dims,
	}
	if len(holdX) == 0 {
		metrics.HoldoutAccuracy = metrics.TrainAccuracy
	}

	return m, metrics, nil
}

// Predict returns the risk probability and the signed per-dimension
// contributions (weight times standardized value).
func (m *Logistic) Predict(values []float64) (float64, []float64, error) {
	if len(values) != len(m.Weights) {
		return 0, nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(values), len(m.Weights))
	}

	scaled := scale(values, m.Means, m.Stds)

	contributions := make([]float64, len(scaled))
	for j, x := range scaled {
		contributions[j] = m.Weights[j] * x
	}

	return sigmoid(dot(m.Weights, scaled) + m.Bias), contributions, nil
}

func standardization(samples [][]float64, dims int) ([]float64, []float64) {
	n := float64(len(samples))
	means := make([]float64, dims)
	stds := make([]float64, dims)

	for _, s := range samples {
		for j, v := range s {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}

	for _, s := range samples {
		for j, v := range s {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	return means, stds
}

func scale(values, means, stds []float64) []float64 {
	scaled := make([]float64, len(values))
	for j, v := range values {
		scaled[j] = (v - means[j]) / stds[j]
	}
	return scaled
}

func accuracyScaled(m *Logistic, xs [][]float64, ys []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	correct := 0
	for i, x := range xs {
		p := sigmoid(dot(m.Weights, x) + m.Bias)
		if (p >= 0.5) == (ys[i] >= 0.5) {
			correct++
		}
	}
	return float64(correct) / float64(len(xs))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
