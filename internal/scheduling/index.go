// Package scheduling holds the booking core: the per-car interval index, the
// availability and conflict resolver that guards it, and the projector that
// derives rental and payment status from stored facts.
package scheduling

import (
	"sort"
	"sync"
	"time"

	"velorent-backend/internal/domain"
)

// Range is one occupied interval [Start, End) on a car's calendar.
type Range struct {
	Start    time.Time
	End      time.Time
	RentalID string
}

// Overlaps applies the half-open rule: a range ending on day D does not clash
// with one starting on day D.
func (r Range) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && start.Before(r.End)
}

// Violation is a pair of stored ranges on the same car that overlap. It can
// only come from data loaded around the resolver, e.g. an import.
type Violation struct {
	CarID  string
	First  Range
	Second Range
}

// IntervalIndex keeps, per car, the non-cancelled rental ranges sorted by start.
type IntervalIndex struct {
	mu    sync.RWMutex
	byCar map[string][]Range
	carOf map[string]string
}

func NewIntervalIndex() *IntervalIndex {
	return &IntervalIndex{
		byCar: make(map[string][]Range),
		carOf: make(map[string]string),
	}
}

func rangeOf(r *domain.Rental) Range {
	return Range{Start: r.StartDate, End: r.EndDate, RentalID: r.ID}
}

func less(a, b Range) bool {
	if a.Start.Equal(b.Start) {
		return a.RentalID < b.RentalID
	}
	return a.Start.Before(b.Start)
}

// Load replaces the whole index with the given rentals. Cancelled rentals are skipped.
func (ix *IntervalIndex) Load(rentals []domain.Rental) {
	byCar := make(map[string][]Range)
	carOf := make(map[string]string)
	for i := range rentals {
		r := &rentals[i]
		if r.Cancelled {
			continue
		}
		byCar[r.CarID] = append(byCar[r.CarID], rangeOf(r))
		carOf[r.ID] = r.CarID
	}
	for _, ranges := range byCar {
		sort.Slice(ranges, func(i, j int) bool { return less(ranges[i], ranges[j]) })
	}

	ix.mu.Lock()
	ix.byCar = byCar
	ix.carOf = carOf
	ix.mu.Unlock()
}

// Insert adds a range in start order. Re-inserting a rental ID moves it.
func (ix *IntervalIndex) Insert(carID string, rg Range) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if prev, ok := ix.carOf[rg.RentalID]; ok {
		ix.removeLocked(prev, rg.RentalID)
	}
	ix.insertLocked(carID, rg)
}

func (ix *IntervalIndex) insertLocked(carID string, rg Range) {
	ranges := ix.byCar[carID]
	pos := sort.Search(len(ranges), func(i int) bool { return less(rg, ranges[i]) })
	ranges = append(ranges, Range{})
	copy(ranges[pos+1:], ranges[pos:])
	ranges[pos] = rg
	ix.byCar[carID] = ranges
	ix.carOf[rg.RentalID] = carID
}

// Remove drops a rental's range. It reports whether anything was removed.
func (ix *IntervalIndex) Remove(carID, rentalID string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.removeLocked(carID, rentalID)
}

func (ix *IntervalIndex) removeLocked(carID, rentalID string) bool {
	ranges := ix.byCar[carID]
	for i := range ranges {
		if ranges[i].RentalID == rentalID {
			ix.byCar[carID] = append(ranges[:i], ranges[i+1:]...)
			if len(ix.byCar[carID]) == 0 {
				delete(ix.byCar, carID)
			}
			delete(ix.carOf, rentalID)
			return true
		}
	}
	return false
}

// Update moves a rental to new dates, keeping order. It reports false when the
// rental is not indexed under carID.
func (ix *IntervalIndex) Update(carID, rentalID string, start, end time.Time) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if !ix.removeLocked(carID, rentalID) {
		return false
	}
	ix.insertLocked(carID, Range{Start: start, End: end, RentalID: rentalID})
	return true
}

// RangesFor returns a copy of the car's ranges in start order.
func (ix *IntervalIndex) RangesFor(carID string) []Range {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ranges := ix.byCar[carID]
	out := make([]Range, len(ranges))
	copy(out, ranges)
	return out
}

// Overlaps lists every range on the car that clashes with [start, end),
// skipping excludeRentalID. Scanning stops at the first range starting at or
// after end.
func (ix *IntervalIndex) Overlaps(carID string, start, end time.Time, excludeRentalID string) []Range {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []Range
	for _, rg := range ix.byCar[carID] {
		if !rg.Start.Before(end) {
			break
		}
		if rg.RentalID == excludeRentalID {
			continue
		}
		if rg.Overlaps(start, end) {
			out = append(out, rg)
		}
	}
	return out
}

// CarOf returns the car a rental is indexed under.
func (ix *IntervalIndex) CarOf(rentalID string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	carID, ok := ix.carOf[rentalID]
	return carID, ok
}

// Len is the number of indexed ranges across the fleet.
func (ix *IntervalIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.carOf)
}

// IntegrityViolations reports every overlapping pair currently indexed.
func (ix *IntervalIndex) IntegrityViolations() []Violation {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []Violation
	for carID, ranges := range ix.byCar {
		for i := 0; i < len(ranges); i++ {
			for j := i + 1; j < len(ranges) && ranges[j].Start.Before(ranges[i].End); j++ {
				out = append(out, Violation{CarID: carID, First: ranges[i], Second: ranges[j]})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CarID != out[j].CarID {
			return out[i].CarID < out[j].CarID
		}
		return less(out[i].First, out[j].First)
	})
	return out
}
