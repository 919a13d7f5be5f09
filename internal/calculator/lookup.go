package calculator

import (
	"math"
	"sort"
	"strings"
)

// Denominations expands an inventory into a denomination list, repeating each
// weight once per available unit.
func Denominations(plates []Plate) []float64 {
	total := 0
	for _, p := range plates {
		total += int(p.Count)
	}

	out := make([]float64, 0, total)
	for _, p := range plates {
		for n := uint16(0); n < p.Count; n++ {
			out = append(out, p.Weight)
		}
	}
	return out
}

// Inventory groups an ascending denomination list back into plates, one
// entry per distinct weight.
func Inventory(denominations []float64) []Plate {
	out := []Plate{}
	for _, w := range denominations {
		if n := len(out); n > 0 && out[n-1].Weight == w && out[n-1].Count < math.MaxUint16 {
			out[n-1].Count++
			continue
		}
		out = append(out, Plate{Weight: w, Count: 1})
	}
	return out
}

// ClosestTarget finds the weight nearest to target in an ascending weight
// space. Targets outside the space, or NaN, report false. Ties go to the
// lighter weight.
func ClosestTarget(target float64, weights []float64) (float64, bool) {
	if len(weights) == 0 || math.IsNaN(target) {
		return 0, false
	}
	if target < weights[0] || target > weights[len(weights)-1] {
		return 0, false
	}

	i := sort.SearchFloat64s(weights, target)
	if weights[i] == target || i == 0 {
		return weights[i], true
	}

	lower, upper := weights[i-1], weights[i]
	if upper-target < target-lower {
		return upper, true
	}
	return lower, true
}

// ChooseBar picks a bar for the target. With an explicit weight the first bar
// of that weight wins; otherwise the heaviest bar not exceeding the target.
func ChooseBar(bars []Bar, target *float64, barType string, weight *float64) (Bar, bool) {
	if target == nil || len(bars) == 0 {
		return Bar{}, false
	}
	barType = strings.ToLower(strings.TrimSpace(barType))

	var (
		best  Bar
		found bool
	)
	for _, bar := range bars {
		if barType != "" && bar.Type != barType {
			continue
		}
		if weight != nil {
			if bar.Weight == *weight {
				return bar, true
			}
			continue
		}
		if bar.Weight > *target {
			continue
		}
		if !found || bar.Weight > best.Weight {
			best, found = bar, true
		}
	}
	return best, found
}
