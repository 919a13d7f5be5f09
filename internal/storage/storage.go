package storage

import (
	"fmt"
	"slices"
	"sync"

	"github.com/eugenenazirov/plate-calculator/internal/calculator"
)

// MaxPlateWeights caps the number of distinct weights an inventory may hold.
const MaxPlateWeights = 32

var (
	// ErrInvalidPlates indicates the provided inventory violates validation rules.
	ErrInvalidPlates = calculator.ErrInvalidPlates
	// ErrInvalidBars indicates the provided bar catalogue violates validation rules.
	ErrInvalidBars = calculator.ErrInvalidBars
)

var defaultPlates = []calculator.Plate{
	{Weight: 0.25, Count: 1},
	{Weight: 0.5, Count: 1},
	{Weight: 0.75, Count: 1},
	{Weight: 1, Count: 1},
	{Weight: 1.25, Count: 0},
	{Weight: 2.5, Count: 1},
	{Weight: 5, Count: 1},
	{Weight: 10, Count: 3},
	{Weight: 15, Count: 1},
	{Weight: 25, Count: 1},
	{Weight: 35, Count: 1},
	{Weight: 45, Count: 3},
	{Weight: 55, Count: 0},
}

var defaultBars = []calculator.Bar{
	{Type: "barbell", Weight: 45},
	{Type: "barbell", Weight: 35},
	{Type: "ez", Weight: 25},
	{Type: "dumbbell", Weight: 15},
	{Type: "dumbbell", Weight: 10},
}

// Storage provides access to the plate inventory and bar catalogue.
type Storage interface {
	GetPlates() ([]calculator.Plate, error)
	SetPlates(plates []calculator.Plate) error
	GetBars() ([]calculator.Bar, error)
	SetBars(bars []calculator.Bar) error
}

// MemoryStorage keeps the inventory in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu     sync.RWMutex
	plates []calculator.Plate
	bars   []calculator.Bar
}

// NewMemoryStorage initialises storage with copies of the default inventory and bars.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		plates: DefaultPlates(),
		bars:   DefaultBars(),
	}
}

// DefaultPlates returns a copy of the default plate inventory.
func DefaultPlates() []calculator.Plate {
	return slices.Clone(defaultPlates)
}

// DefaultBars returns a copy of the default bar catalogue.
func DefaultBars() []calculator.Bar {
	return cloneBars(defaultBars)
}

// GetPlates returns a defensive copy of the current inventory, ascending by weight.
func (s *MemoryStorage) GetPlates() ([]calculator.Plate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.plates), nil
}

// SetPlates validates, normalises, and stores the provided inventory.
func (s *MemoryStorage) SetPlates(plates []calculator.Plate) error {
	normalized, err := calculator.NormalizePlates(plates, MaxPlateWeights)
	if err != nil {
		return fmt.Errorf("set plates: %w", err)
	}

	s.mu.Lock()
	s.plates = normalized
	s.mu.Unlock()

	return nil
}

// GetBars returns a defensive copy of the bar catalogue, heaviest first.
func (s *MemoryStorage) GetBars() ([]calculator.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneBars(s.bars), nil
}

// SetBars validates, normalises, and stores the provided bar catalogue.
func (s *MemoryStorage) SetBars(bars []calculator.Bar) error {
	normalized, err := calculator.NormalizeBars(bars)
	if err != nil {
		return fmt.Errorf("set bars: %w", err)
	}

	s.mu.Lock()
	s.bars = normalized
	s.mu.Unlock()

	return nil
}

// cloneBars copies bars along with their plate limits.
func cloneBars(bars []calculator.Bar) []calculator.Bar {
	out := slices.Clone(bars)
	for i := range out {
		out[i].PlateLimits = slices.Clone(out[i].PlateLimits)
	}
	return out
}
