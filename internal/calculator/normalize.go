package calculator

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
)

// NormalizePlates validates an inventory, merges duplicate weights and sorts
// it ascending. Merged counts saturate at math.MaxUint16; a weight is avoided
// when any of its entries is.
func NormalizePlates(plates []Plate, maxDistinct int) ([]Plate, error) {
	if len(plates) == 0 {
		return nil, ErrInvalidPlates
	}

	counts := make(map[float64]int, len(plates))
	avoid := make(map[float64]bool)
	for _, p := range plates {
		if !validWeight(p.Weight) || p.Weight == 0 {
			return nil, fmt.Errorf("%w: got %v", ErrInvalidPlates, p.Weight)
		}
		counts[p.Weight] += int(p.Count)
		if p.Avoid {
			avoid[p.Weight] = true
		}
		if maxDistinct > 0 && len(counts) > maxDistinct {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyPlates, maxDistinct)
		}
	}

	out := make([]Plate, 0, len(counts))
	for weight, count := range counts {
		if count > math.MaxUint16 {
			count = math.MaxUint16
		}
		out = append(out, Plate{Weight: weight, Count: uint16(count), Avoid: avoid[weight]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weight < out[j].Weight })
	return out, nil
}

// NormalizeDenominations validates a denomination list and returns a sorted
// copy. Repeated weights are kept since each one is a separate pair.
func NormalizeDenominations(plates []float64, maxLen int) ([]float64, error) {
	if maxLen > 0 && len(plates) > maxLen {
		return nil, fmt.Errorf("%w: got %d, limit is %d", ErrTooManyDenominations, len(plates), maxLen)
	}
	for _, w := range plates {
		if !validWeight(w) || w == 0 {
			return nil, fmt.Errorf("%w: got %v", ErrInvalidDenominations, w)
		}
	}

	out := slices.Clone(plates)
	if out == nil {
		out = []float64{}
	}
	slices.Sort(out)
	return out, nil
}

// NormalizeBars validates a bar catalogue and sorts it heaviest first.
func NormalizeBars(bars []Bar) ([]Bar, error) {
	if len(bars) == 0 {
		return nil, ErrInvalidBars
	}

	out := make([]Bar, 0, len(bars))
	for _, bar := range bars {
		bar.Type = strings.ToLower(strings.TrimSpace(bar.Type))
		if bar.Type == "" || !validWeight(bar.Weight) {
			return nil, fmt.Errorf("%w: got %q/%v", ErrInvalidBars, bar.Type, bar.Weight)
		}
		if !validWeight(bar.PlateThreshold) || !validWeight(bar.MaxLoad) {
			return nil, fmt.Errorf("%w: %s bar has threshold %v and max load %v",
				ErrInvalidBars, bar.Type, bar.PlateThreshold, bar.MaxLoad)
		}
		if bar.MaxLoad > 0 && bar.MaxLoad < bar.Weight {
			return nil, fmt.Errorf("%w: %s bar max load %v is below its weight %v",
				ErrInvalidBars, bar.Type, bar.MaxLoad, bar.Weight)
		}
		limits := make([]Plate, 0, len(bar.PlateLimits))
		for _, limit := range bar.PlateLimits {
			if !validWeight(limit.Weight) || limit.Weight == 0 {
				return nil, fmt.Errorf("%w: %s bar limits plate weight %v", ErrInvalidBars, bar.Type, limit.Weight)
			}
			limits = append(limits, Plate{Weight: limit.Weight, Count: limit.Count})
		}
		if len(limits) == 0 {
			limits = nil
		}
		sort.Slice(limits, func(i, j int) bool { return limits[i].Weight < limits[j].Weight })
		bar.PlateLimits = limits
		out = append(out, bar)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out, nil
}

func validWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0) && w >= 0
}
