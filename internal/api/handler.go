package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/eugenenazirov/plate-calculator/internal/calculator"
	"github.com/eugenenazirov/plate-calculator/internal/metrics"
	"github.com/eugenenazirov/plate-calculator/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires calculator and storage dependencies into HTTP handlers.
type Handler struct {
	calculator calculator.Calculator
	storage    storage.Storage
	metrics    *metrics.Metrics

	clock            func() time.Time
	maxDenominations int

	mu              sync.RWMutex
	platesUpdatedAt time.Time
	barsUpdatedAt   time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithMaxDenominations limits how many denominations a single enumeration may use.
func WithMaxDenominations(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxDenominations = n
		}
	}
}

// WithMetrics enables Prometheus instrumentation for the handler and its router.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(calc calculator.Calculator, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		calculator:       calc,
		storage:          store,
		maxDenominations: calculator.DefaultMaxDenominations,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	now := h.clock()
	h.platesUpdatedAt = now
	h.barsUpdatedAt = now
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetPlates(w http.ResponseWriter, r *http.Request) {
	_ = r
	plates, err := h.storage.GetPlates()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := platesResponse{
		Plates:    plates,
		UpdatedAt: h.updatedAt(&h.platesUpdatedAt),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutPlates(w http.ResponseWriter, r *http.Request) {
	var req platesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Plates) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid plates", "plates must contain at least one plate")
		return
	}

	if err := h.storage.SetPlates(req.Plates); err != nil {
		if writeValidationError(w, err) {
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markUpdated(&h.platesUpdatedAt)

	plates, err := h.storage.GetPlates()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := platesResponse{
		Plates:    plates,
		UpdatedAt: h.updatedAt(&h.platesUpdatedAt),
		Message:   "Plates updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetBars(w http.ResponseWriter, r *http.Request) {
	_ = r
	bars, err := h.storage.GetBars()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := barsResponse{
		Bars:      bars,
		UpdatedAt: h.updatedAt(&h.barsUpdatedAt),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutBars(w http.ResponseWriter, r *http.Request) {
	var req barsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if err := h.storage.SetBars(req.Bars); err != nil {
		if writeValidationError(w, err) {
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markUpdated(&h.barsUpdatedAt)

	bars, err := h.storage.GetBars()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := barsResponse{
		Bars:      bars,
		UpdatedAt: h.updatedAt(&h.barsUpdatedAt),
		Message:   "Bars updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSelectPlates(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	plates, err := h.resolvePlates(req.Plates)
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		writeInternalError(w, err)
		return
	}

	handle := req.Handle
	var bar *calculator.Bar
	if handle == nil && req.BarType != "" {
		chosen, ok, err := h.chooseStoredBar(req.Target, req.BarType)
		if err != nil {
			writeInternalError(w, err)
			return
		}
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "No suitable bar",
				fmt.Sprintf("no %s bar fits the target", req.BarType),
				"Register a matching bar or pass the handle weight explicitly")
			return
		}
		bar = &chosen
		handle = &chosen.Weight
	}

	start := time.Now()
	var selected []float64
	if bar != nil {
		selected = calculator.SelectPlates(req.Target, *bar, plates)
	} else {
		selected = h.calculator.DeterminePlates(req.Target, handle, plates)
	}
	elapsed := time.Since(start)

	perSide := 0.0
	for _, weight := range selected {
		perSide += weight
	}

	resp := selectResponse{
		Target:            req.Target,
		Handle:            handle,
		Bar:               bar,
		Plates:            selected,
		PerSide:           perSide,
		Loaded:            2 * perSide,
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	if req.Target != nil && handle != nil {
		total := *handle + resp.Loaded
		remainder := *req.Target - total
		resp.Total = &total
		resp.Remainder = &remainder
		if remainder != 0 {
			h.metrics.IncInexact()
		}
	}
	h.metrics.ObserveResult("select", len(selected))
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCombos(w http.ResponseWriter, r *http.Request) {
	var req combosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	denominations, err := calculator.NormalizeDenominations(req.Plates, h.maxDenominations)
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		writeInternalError(w, err)
		return
	}

	start := time.Now()
	combos := h.calculator.DeterminePlateCombos(denominations)
	elapsed := time.Since(start)

	h.metrics.ObserveResult("combos", len(combos))
	writeJSON(w, http.StatusOK, combosResponse{
		Combos:            combos,
		Count:             len(combos),
		CalculationTimeMs: elapsed.Milliseconds(),
	})
}

func (h *Handler) handleWeightSpace(w http.ResponseWriter, r *http.Request) {
	var req weightSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	denominations, err := h.resolveDenominations(req.Plates)
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		writeInternalError(w, err)
		return
	}

	start := time.Now()
	weights := h.calculator.DetermineWeightSpace(req.Handle, denominations)
	elapsed := time.Since(start)

	h.metrics.ObserveResult("weight_space", len(weights))
	writeJSON(w, http.StatusOK, weightSpaceResponse{
		Handle:            req.Handle,
		Weights:           weights,
		Count:             len(weights),
		CalculationTimeMs: elapsed.Milliseconds(),
	})
}

func (h *Handler) handleClosest(w http.ResponseWriter, r *http.Request) {
	var req closestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.Target == nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "target is required")
		return
	}

	bar := calculator.Bar{Type: req.BarType}
	if req.Handle != nil {
		bar.Weight = *req.Handle
	} else {
		chosen, ok, err := h.chooseStoredBar(req.Target, req.BarType)
		if err != nil {
			writeInternalError(w, err)
			return
		}
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "No suitable bar",
				fmt.Sprintf("no bar weighs %v or less", *req.Target),
				"Register a lighter bar or pass the handle weight explicitly")
			return
		}
		bar = chosen
	}

	inventory, err := h.resolveInventory(req.Plates)
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		writeInternalError(w, err)
		return
	}

	loadable := bar.Loadable(inventory)
	if err := h.checkPairs(loadable); err != nil {
		writeValidationError(w, err)
		return
	}

	weights := bar.Cap(h.calculator.DetermineWeightSpace(&bar.Weight, calculator.Denominations(loadable)))
	closest, ok := calculator.ClosestTarget(*req.Target, weights)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "Target out of range",
			fmt.Sprintf("achievable weights span %v to %v", weights[0], weights[len(weights)-1]),
			"Adjust the target or add heavier plates")
		return
	}

	plates, ok := calculator.LoadPlates(closest, bar, inventory)
	if !ok {
		writeInternalError(w, fmt.Errorf("no plate set loads %v", closest))
		return
	}

	perSide := 0.0
	for _, weight := range plates {
		perSide += weight
	}

	h.metrics.ObserveResult("closest", len(weights))
	writeJSON(w, http.StatusOK, closestResponse{
		Target:  *req.Target,
		Closest: closest,
		Bar:     bar,
		Plates:  plates,
		PerSide: perSide,
		Total:   bar.Weight + 2*perSide,
	})
}

func (h *Handler) handleChooseBar(w http.ResponseWriter, r *http.Request) {
	var req chooseBarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	bars, err := h.storage.GetBars()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	bar, ok := calculator.ChooseBar(bars, req.Target, req.Type, req.Weight)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "No suitable bar", "no registered bar matches the request")
		return
	}
	writeJSON(w, http.StatusOK, chooseBarResponse{Bar: bar})
}

func (h *Handler) handleBarsWeightSpace(w http.ResponseWriter, r *http.Request) {
	var req barsWeightSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	bars, err := h.storage.GetBars()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	barType := strings.ToLower(strings.TrimSpace(req.BarType))
	if barType != "" {
		bars = slices.DeleteFunc(bars, func(b calculator.Bar) bool { return b.Type != barType })
	}
	if len(bars) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "No suitable bar",
			fmt.Sprintf("no %s bar is registered", req.BarType))
		return
	}

	inventory, err := h.resolveInventory(req.Plates)
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		writeInternalError(w, err)
		return
	}
	for _, bar := range bars {
		if err := h.checkPairs(bar.Loadable(inventory)); err != nil {
			writeValidationError(w, err)
			return
		}
	}

	start := time.Now()
	weights := calculator.WeightSpaceAcrossBars(bars, inventory)
	elapsed := time.Since(start)

	h.metrics.ObserveResult("bars_weight_space", len(weights))
	writeJSON(w, http.StatusOK, barsWeightSpaceResponse{
		Bars:              bars,
		Weights:           weights,
		Count:             len(weights),
		CalculationTimeMs: elapsed.Milliseconds(),
	})
}

// chooseStoredBar picks a bar from the stored catalogue for the target.
func (h *Handler) chooseStoredBar(target *float64, barType string) (calculator.Bar, bool, error) {
	bars, err := h.storage.GetBars()
	if err != nil {
		return calculator.Bar{}, false, err
	}
	bar, ok := calculator.ChooseBar(bars, target, barType, nil)
	return bar, ok, nil
}

// resolveInventory returns the request denominations grouped into plates, or
// the stored inventory when the request omits them.
func (h *Handler) resolveInventory(plates []float64) ([]calculator.Plate, error) {
	if plates == nil {
		return h.storage.GetPlates()
	}
	denominations, err := calculator.NormalizeDenominations(plates, h.maxDenominations)
	if err != nil {
		return nil, err
	}
	return calculator.Inventory(denominations), nil
}

// checkPairs rejects inventories that expand into more denominations than
// the enumerator is allowed to handle.
func (h *Handler) checkPairs(plates []calculator.Plate) error {
	total := 0
	for _, p := range plates {
		total += int(p.Count)
	}
	if total > h.maxDenominations {
		return fmt.Errorf("%w: inventory holds %d pairs, limit is %d",
			calculator.ErrTooManyDenominations, total, h.maxDenominations)
	}
	return nil
}

// resolvePlates returns the request inventory normalised, or the stored one
// when the request omits it.
func (h *Handler) resolvePlates(plates []calculator.Plate) ([]calculator.Plate, error) {
	if plates == nil {
		return h.storage.GetPlates()
	}
	if len(plates) == 0 {
		return plates, nil
	}
	return calculator.NormalizePlates(plates, storage.MaxPlateWeights)
}

// resolveDenominations returns the request denominations normalised, or the
// stored inventory expanded into one denomination per available pair.
func (h *Handler) resolveDenominations(plates []float64) ([]float64, error) {
	if plates != nil {
		return calculator.NormalizeDenominations(plates, h.maxDenominations)
	}

	inventory, err := h.storage.GetPlates()
	if err != nil {
		return nil, err
	}
	if err := h.checkPairs(inventory); err != nil {
		return nil, err
	}
	return calculator.Denominations(inventory), nil
}

func (h *Handler) updatedAt(field *time.Time) time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return *field
}

func (h *Handler) markUpdated(field *time.Time) {
	h.mu.Lock()
	*field = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type platesRequest struct {
	Plates []calculator.Plate `json:"plates"`
}

type barsRequest struct {
	Bars []calculator.Bar `json:"bars"`
}

type selectRequest struct {
	Target  *float64           `json:"target"`
	Handle  *float64           `json:"handle"`
	BarType string             `json:"barType"`
	Plates  []calculator.Plate `json:"plates"`
}

type combosRequest struct {
	Plates []float64 `json:"plates"`
}

type weightSpaceRequest struct {
	Handle *float64  `json:"handle"`
	Plates []float64 `json:"plates"`
}

type closestRequest struct {
	Target  *float64  `json:"target"`
	Handle  *float64  `json:"handle"`
	BarType string    `json:"barType"`
	Plates  []float64 `json:"plates"`
}

type barsWeightSpaceRequest struct {
	BarType string    `json:"barType"`
	Plates  []float64 `json:"plates"`
}

type chooseBarRequest struct {
	Target *float64 `json:"target"`
	Type   string   `json:"type"`
	Weight *float64 `json:"weight"`
}

type platesResponse struct {
	Plates    []calculator.Plate `json:"plates"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Message   string             `json:"message,omitempty"`
}

type barsResponse struct {
	Bars      []calculator.Bar `json:"bars"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Message   string           `json:"message,omitempty"`
}

type selectResponse struct {
	Target            *float64        `json:"target"`
	Handle            *float64        `json:"handle"`
	Bar               *calculator.Bar `json:"bar,omitempty"`
	Plates            []float64       `json:"plates"`
	PerSide           float64         `json:"perSide"`
	Loaded            float64         `json:"loaded"`
	Total             *float64        `json:"total,omitempty"`
	Remainder         *float64        `json:"remainder,omitempty"`
	CalculationTimeMs int64           `json:"calculationTimeMs"`
}

type combosResponse struct {
	Combos            []float64 `json:"combos"`
	Count             int       `json:"count"`
	CalculationTimeMs int64     `json:"calculationTimeMs"`
}

type weightSpaceResponse struct {
	Handle            *float64  `json:"handle"`
	Weights           []float64 `json:"weights"`
	Count             int       `json:"count"`
	CalculationTimeMs int64     `json:"calculationTimeMs"`
}

type closestResponse struct {
	Target  float64        `json:"target"`
	Closest float64        `json:"closest"`
	Bar     calculator.Bar `json:"bar"`
	Plates  []float64      `json:"plates"`
	PerSide float64        `json:"perSide"`
	Total   float64        `json:"total"`
}

type barsWeightSpaceResponse struct {
	Bars              []calculator.Bar `json:"bars"`
	Weights           []float64        `json:"weights"`
	Count             int              `json:"count"`
	CalculationTimeMs int64            `json:"calculationTimeMs"`
}

type chooseBarResponse struct {
	Bar calculator.Bar `json:"bar"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

// writeValidationError maps input validation failures onto 400 responses and
// reports whether err was one of them.
func writeValidationError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, calculator.ErrInvalidPlates), errors.Is(err, calculator.ErrTooManyPlates):
		writeError(w, http.StatusBadRequest, "Invalid plates", err.Error())
	case errors.Is(err, calculator.ErrInvalidDenominations):
		writeError(w, http.StatusBadRequest, "Invalid denominations", err.Error())
	case errors.Is(err, calculator.ErrTooManyDenominations):
		writeError(w, http.StatusBadRequest, "Too many denominations", err.Error(),
			"Split the request or reduce the number of plate pairs")
	case errors.Is(err, calculator.ErrInvalidBars):
		writeError(w, http.StatusBadRequest, "Invalid bars", err.Error())
	default:
		return false
	}
	return true
}
