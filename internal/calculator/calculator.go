package calculator

type plateCalculator struct{}

// New creates a Calculator backed by the greedy selector and the sorted
// subset-sum enumerator.
func New() Calculator {
	return &plateCalculator{}
}

func (c *plateCalculator) DeterminePlates(target, handle *float64, plates []Plate) []float64 {
	return DeterminePlates(target, handle, plates)
}

func (c *plateCalculator) DeterminePlateCombos(plates []float64) []float64 {
	return DeterminePlateCombos(plates)
}

func (c *plateCalculator) DetermineWeightSpace(handle *float64, plates []float64) []float64 {
	return DetermineWeightSpace(handle, plates)
}

// DeterminePlates greedily picks the plates for one side of the bar, starting
// from the heaviest denomination. The result may fall short of the target when
// the inventory cannot cover it.
func DeterminePlates(target, handle *float64, plates []Plate) []float64 {
	needed := []float64{}
	if target == nil || handle == nil || len(plates) == 0 {
		return needed
	}

	weightLeft := (*target - *handle) / 2

	i := len(plates) - 1
	weight, count := plates[i].Weight, plates[i].Count

	for weightLeft > 0 {
		if count > 0 {
			if weight <= weightLeft {
				needed = append(needed, weight)
				weightLeft -= weight
			}
			count--
		}
		if count > 0 {
			continue
		}
		if i == 0 {
			break
		}
		i--
		weight, count = plates[i].Weight, plates[i].Count
	}

	return needed
}

// DeterminePlateCombos returns every distinct load reachable by adding pairs
// of plates from the denomination list, ascending and starting at 0.
func DeterminePlateCombos(plates []float64) []float64 {
	return plateCombos(plates, 0)
}

// plateCombos enumerates the loads of plates[:len(plates)-pivot]. The pivot
// counts from the heaviest end.
func plateCombos(plates []float64, pivot int) []float64 {
	if pivot >= len(plates) {
		return []float64{0}
	}

	plate := plates[len(plates)-1-pivot]
	loaded := 2 * plate

	loads := plateCombos(plates, pivot+1)
	newLoads := make([]float64, len(loads))
	for i, load := range loads {
		newLoads[i] = load + loaded
	}
	return merge(loads, newLoads)
}

// DetermineWeightSpace returns every total weight reachable with the handle
// and the denomination list.
func DetermineWeightSpace(handle *float64, plates []float64) []float64 {
	if handle == nil {
		return []float64{}
	}

	weights := DeterminePlateCombos(plates)
	for i := range weights {
		weights[i] += *handle
	}
	return weights
}

// merge joins two ascending slices. Equal heads across a and b are emitted
// once.
func merge(a, b []float64) []float64 {
	ai, bi := 0, 0
	result := make([]float64, 0, len(a)+len(b))

	for ai < len(a) && bi < len(b) {
		diff := a[ai] - b[bi]
		if diff <= 0 {
			result = append(result, a[ai])
			ai++
			if diff == 0 {
				bi++
			}
			continue
		}
		result = append(result, b[bi])
		bi++
	}

	result = append(result, a[ai:]...)
	result = append(result, b[bi:]...)
	return result
}
