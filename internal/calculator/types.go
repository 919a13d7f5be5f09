package calculator

// Plate is one denomination of the plate inventory. Count is the number of
// units available for one side of the bar. Avoid marks plates that are only
// loaded when the target cannot be met without them.
type Plate struct {
	Weight float64 `json:"weight" yaml:"weight"`
	Count  uint16  `json:"count" yaml:"count"`
	Avoid  bool    `json:"avoid,omitempty" yaml:"avoid,omitempty"`
}

// Bar is a handle the plates are loaded onto, with optional loading rules.
// A zero PlateThreshold or MaxLoad means no limit. PlateLimits caps the
// per-side count of the listed weights.
type Bar struct {
	Type           string  `json:"type" yaml:"type"`
	Weight         float64 `json:"weight" yaml:"weight"`
	PlateThreshold float64 `json:"plateThreshold,omitempty" yaml:"plate_threshold,omitempty"`
	MaxLoad        float64 `json:"maxLoad,omitempty" yaml:"max_load,omitempty"`
	PlateLimits    []Plate `json:"plateLimits,omitempty" yaml:"plate_limits,omitempty"`
}

// Calculator describes the plate loading operations used by the API layer.
// Plate and denomination slices must be sorted ascending by weight.
type Calculator interface {
	DeterminePlates(target, handle *float64, plates []Plate) []float64
	DeterminePlateCombos(plates []float64) []float64
	DetermineWeightSpace(handle *float64, plates []float64) []float64
}
