package calculator

import (
	"math"
	"sort"
)

// weightTolerance absorbs rounding when fractional plates are summed in a
// different order than the enumerator summed them.
const weightTolerance = 1e-9

// Loadable returns the part of the inventory the bar accepts. Plates heavier
// than PlateThreshold are dropped and PlateLimits caps per-side counts.
func (b Bar) Loadable(plates []Plate) []Plate {
	out := make([]Plate, 0, len(plates))
	for _, p := range plates {
		if b.PlateThreshold > 0 && p.Weight > b.PlateThreshold {
			continue
		}
		if limit, ok := b.plateLimit(p.Weight); ok && p.Count > limit {
			p.Count = limit
		}
		out = append(out, p)
	}
	return out
}

// Cap drops the weights above MaxLoad from an ascending weight space.
func (b Bar) Cap(weights []float64) []float64 {
	if b.MaxLoad <= 0 {
		return weights
	}
	n := sort.Search(len(weights), func(i int) bool { return weights[i] > b.MaxLoad })
	return weights[:n]
}

func (b Bar) plateLimit(weight float64) (uint16, bool) {
	for _, limit := range b.PlateLimits {
		if limit.Weight == weight {
			return limit.Count, true
		}
	}
	return 0, false
}

// SelectPlates runs the greedy selector for the bar with its loading rules
// applied. Avoided plates are used only when the target cannot be met exactly
// without them.
func SelectPlates(target *float64, bar Bar, plates []Plate) []float64 {
	loadable := bar.Loadable(plates)
	if preferred, avoided := withoutAvoided(loadable); avoided && target != nil {
		selected := DeterminePlates(target, &bar.Weight, preferred)
		if sameWeight(sumWeights(selected), (*target-bar.Weight)/2) {
			return selected
		}
	}
	return DeterminePlates(target, &bar.Weight, loadable)
}

// BarWeightSpace is the weight space of one bar under its loading rules.
func BarWeightSpace(bar Bar, plates []Plate) []float64 {
	weights := DetermineWeightSpace(&bar.Weight, Denominations(bar.Loadable(plates)))
	return bar.Cap(weights)
}

// WeightSpaceAcrossBars merges the weight spaces of every bar into one
// ascending list.
func WeightSpaceAcrossBars(bars []Bar, plates []Plate) []float64 {
	weights := []float64{}
	for _, bar := range bars {
		weights = merge(weights, BarWeightSpace(bar, plates))
	}
	return weights
}

// LoadPlates finds the plates for one side that bring the bar to exactly
// total, heaviest first. Avoided plates are used only when no exact load
// exists without them. It reports false when total is unreachable.
func LoadPlates(total float64, bar Bar, plates []Plate) ([]float64, bool) {
	loadable := bar.Loadable(plates)
	perSide := (total - bar.Weight) / 2
	if preferred, avoided := withoutAvoided(loadable); avoided {
		if selected, ok := exactLoad(perSide, preferred); ok {
			return selected, true
		}
	}
	return exactLoad(perSide, loadable)
}

// exactLoad searches the ascending inventory from the heaviest plate down,
// taking as many of each weight as fit before backtracking.
func exactLoad(perSide float64, plates []Plate) ([]float64, bool) {
	if math.IsNaN(perSide) || perSide < -weightTolerance {
		return nil, false
	}

	prefix := make([]float64, len(plates)+1)
	for i, p := range plates {
		prefix[i+1] = prefix[i] + p.Weight*float64(p.Count)
	}

	selected := []float64{}
	var search func(i int, left float64) bool
	search = func(i int, left float64) bool {
		if math.Abs(left) <= weightTolerance {
			return true
		}
		if i < 0 || left < 0 || left > prefix[i+1]+weightTolerance {
			return false
		}

		p := plates[i]
		if p.Weight <= 0 {
			return search(i-1, left)
		}
		n := int(p.Count)
		if fit := int((left + weightTolerance) / p.Weight); fit < n {
			n = fit
		}
		for c := n; c >= 0; c-- {
			mark := len(selected)
			for k := 0; k < c; k++ {
				selected = append(selected, p.Weight)
			}
			if search(i-1, left-float64(c)*p.Weight) {
				return true
			}
			selected = selected[:mark]
		}
		return false
	}

	if !search(len(plates)-1, perSide) {
		return nil, false
	}
	return selected, true
}

func withoutAvoided(plates []Plate) ([]Plate, bool) {
	out := make([]Plate, 0, len(plates))
	for _, p := range plates {
		if !p.Avoid {
			out = append(out, p)
		}
	}
	return out, len(out) != len(plates)
}

func sumWeights(weights []float64) float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	return total
}

func sameWeight(a, b float64) bool {
	return math.Abs(a-b) <= weightTolerance
}
