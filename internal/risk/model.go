// Package risk implements the risk-model capability consumed by the
// prediction stage. The pipeline depends only on the Model and LabelSource
// interfaces; the built-in implementation is a standardized logistic
// regression trained by gradient descent.
package risk

import "fmt"

// Model produces a risk probability and per-dimension contribution weights
// for one feature vector.
type Model interface {
	// Predict returns a probability in [0,1] and one signed contribution per
	// input dimension. Positive contributions push risk upward.
	Predict(values []float64) (float64, []float64, error)
}

// LabelSource assigns training labels to feature vectors. Label returns the
// target (0 or 1) and whether the sample is labelable at all.
type LabelSource interface {
	Label(dims []string, values []float64) (float64, bool)
}

// Metrics summarizes a training round.
type Metrics struct {
	TrainAccuracy   float64 `json:"train_accuracy"`
	HoldoutAccuracy float64 `json:"holdout_accuracy"`
	Samples         int     `json:"samples"`
	Dimensions      int     `json:"dimensions"`
}

// ErrDimensionMismatch indicates an input vector whose length does not match
// the trained model.
var ErrDimensionMismatch = fmt.Errorf("feature vector dimensions do not match model")
