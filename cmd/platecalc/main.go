// Command platecalc runs the plate calculator offline and prints JSON results.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/eugenenazirov/plate-calculator/internal/calculator"
	"github.com/eugenenazirov/plate-calculator/internal/storage"
)

var (
	errOutOfRange = errors.New("target outside reachable weights")
	errNotFinite  = errors.New("value must be a finite number")
)

type selectResult struct {
	Plates    []float64 `json:"plates"`
	PerSide   float64   `json:"perSide"`
	Total     *float64  `json:"total,omitempty"`
	Remainder *float64  `json:"remainder,omitempty"`
}

type weightsResult struct {
	Weights []float64 `json:"weights"`
	Count   int       `json:"count"`
}

type closestResult struct {
	Target  float64   `json:"target"`
	Closest float64   `json:"closest"`
	Handle  float64   `json:"handle"`
	Plates  []float64 `json:"plates"`
	PerSide float64   `json:"perSide"`
	Total   float64   `json:"total"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "platecalc:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	app := kingpin.New("platecalc", "Offline barbell plate calculator")
	app.Terminate(nil)
	app.ErrorWriter(io.Discard)
	app.UsageWriter(out)

	selectCmd := app.Command("select", "Choose plates for one side of the bar")
	var selTargetSet, selHandleSet bool
	selTarget := selectCmd.Flag("target", "Target total weight").IsSetByUser(&selTargetSet).Float64()
	selHandle := selectCmd.Flag("handle", "Bar weight").IsSetByUser(&selHandleSet).Float64()
	selPlates := selectCmd.Flag("plate", "Plate as weight:count (repeatable, defaults to the built-in inventory)").Strings()

	combosCmd := app.Command("combos", "List every distinct loaded weight, excluding the bar")
	combosPlates := combosCmd.Flag("plate", "Plate pair weight (repeatable)").Float64List()

	spaceCmd := app.Command("space", "List every reachable total weight")
	var spaceHandleSet bool
	spaceHandle := spaceCmd.Flag("handle", "Bar weight").IsSetByUser(&spaceHandleSet).Float64()
	spaceThreshold := spaceCmd.Flag("plate-threshold", "Skip plates heavier than this").Float64()
	spaceMaxLoad := spaceCmd.Flag("max-load", "Drop totals above this").Float64()
	spacePlates := spaceCmd.Flag("plate", "Plate pair weight (repeatable, defaults to the built-in inventory)").Float64List()

	closestCmd := app.Command("closest", "Find the reachable total nearest to a target")
	closestTarget := closestCmd.Flag("target", "Target total weight").Required().Float64()
	closestHandle := closestCmd.Flag("handle", "Bar weight").Required().Float64()
	closestThreshold := closestCmd.Flag("plate-threshold", "Skip plates heavier than this").Float64()
	closestMaxLoad := closestCmd.Flag("max-load", "Drop totals above this").Float64()
	closestPlates := closestCmd.Flag("plate", "Plate pair weight (repeatable, defaults to the built-in inventory)").Float64List()

	command, err := app.Parse(args)
	if err != nil {
		return err
	}

	var result any
	switch command {
	case selectCmd.FullCommand():
		if err := checkFinite("target", *selTarget); err != nil {
			return err
		}
		if err := checkFinite("handle", *selHandle); err != nil {
			return err
		}
		plates, err := parseInventory(*selPlates)
		if err != nil {
			return err
		}
		result = selectPlates(optional(*selTarget, selTargetSet), optional(*selHandle, selHandleSet), plates)
	case combosCmd.FullCommand():
		denoms, err := calculator.NormalizeDenominations(*combosPlates, calculator.DefaultMaxDenominations)
		if err != nil {
			return err
		}
		combos := calculator.DeterminePlateCombos(denoms)
		result = weightsResult{Weights: combos, Count: len(combos)}
	case spaceCmd.FullCommand():
		plates, err := inventory(*spacePlates)
		if err != nil {
			return err
		}
		weights := []float64{}
		if spaceHandleSet {
			bar, err := newBar(*spaceHandle, *spaceThreshold, *spaceMaxLoad)
			if err != nil {
				return err
			}
			weights = calculator.BarWeightSpace(bar, plates)
		}
		result = weightsResult{Weights: weights, Count: len(weights)}
	case closestCmd.FullCommand():
		if err := checkFinite("target", *closestTarget); err != nil {
			return err
		}
		bar, err := newBar(*closestHandle, *closestThreshold, *closestMaxLoad)
		if err != nil {
			return err
		}
		plates, err := inventory(*closestPlates)
		if err != nil {
			return err
		}
		result, err = closest(*closestTarget, bar, plates)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func selectPlates(target, handle *float64, plates []calculator.Plate) selectResult {
	chosen := calculator.DeterminePlates(target, handle, plates)
	res := selectResult{Plates: chosen}
	for _, w := range chosen {
		res.PerSide += w
	}
	if target != nil && handle != nil {
		total := *handle + 2*res.PerSide
		remainder := *target - total
		res.Total = &total
		res.Remainder = &remainder
	}
	return res
}

func closest(target float64, bar calculator.Bar, plates []calculator.Plate) (closestResult, error) {
	weights := calculator.BarWeightSpace(bar, plates)
	best, ok := calculator.ClosestTarget(target, weights)
	if !ok {
		return closestResult{}, fmt.Errorf("%w: %g not in [%g, %g]", errOutOfRange, target, weights[0], weights[len(weights)-1])
	}

	loaded, ok := calculator.LoadPlates(best, bar, plates)
	if !ok {
		return closestResult{}, fmt.Errorf("no plate set loads %g", best)
	}
	perSide := 0.0
	for _, w := range loaded {
		perSide += w
	}
	return closestResult{
		Target:  target,
		Closest: best,
		Handle:  bar.Weight,
		Plates:  loaded,
		PerSide: perSide,
		Total:   bar.Weight + 2*perSide,
	}, nil
}

// newBar validates the handle and its loading rules.
func newBar(handle, threshold, maxLoad float64) (calculator.Bar, error) {
	for name, v := range map[string]float64{"handle": handle, "plate-threshold": threshold, "max-load": maxLoad} {
		if err := checkFinite(name, v); err != nil {
			return calculator.Bar{}, err
		}
	}
	bars, err := calculator.NormalizeBars([]calculator.Bar{{
		Type:           "bar",
		Weight:         handle,
		PlateThreshold: threshold,
		MaxLoad:        maxLoad,
	}})
	if err != nil {
		return calculator.Bar{}, err
	}
	return bars[0], nil
}

// inventory groups the given denominations into plates, falling back to the
// built-in inventory when none are given.
func inventory(plates []float64) ([]calculator.Plate, error) {
	if len(plates) == 0 {
		return storage.DefaultPlates(), nil
	}
	denoms, err := calculator.NormalizeDenominations(plates, calculator.DefaultMaxDenominations)
	if err != nil {
		return nil, err
	}
	return calculator.Inventory(denoms), nil
}

func parseInventory(raw []string) ([]calculator.Plate, error) {
	if len(raw) == 0 {
		return storage.DefaultPlates(), nil
	}

	plates := make([]calculator.Plate, 0, len(raw))
	for _, item := range raw {
		weightStr, countStr, found := strings.Cut(item, ":")
		if !found {
			countStr = "1"
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid plate weight %q: %w", item, err)
		}
		count, err := strconv.ParseUint(strings.TrimSpace(countStr), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid plate count %q: %w", item, err)
		}
		plates = append(plates, calculator.Plate{Weight: weight, Count: uint16(count)})
	}
	return calculator.NormalizePlates(plates, storage.MaxPlateWeights)
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("--%s: %w, got %v", name, errNotFinite, v)
	}
	return nil
}

func optional(v float64, set bool) *float64 {
	if !set {
		return nil
	}
	return &v
}
