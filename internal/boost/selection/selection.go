// Package selection models the seller's in-progress choice of listings and
// promotion tier for one boosting session. The selection lives in memory
// only; once an order is created from it the durable record belongs to the
// pending-transaction store, not here.
package selection

import (
	"sync"

	"github.com/jcmexdev/listing-boost/internal/boost/catalog"
)

// Selection tracks which eligible products are chosen and which package
// tier is active. Total() is always derived from the current fields, so it
// can never go stale relative to the last Toggle/ChoosePackage call.
//
// A Selection with no products but a chosen package is valid: the
// single-listing "Boost Now" button prices exactly one implicit listing.
type Selection struct {
	mu       sync.Mutex
	eligible map[string]struct{}
	chosen   map[string]struct{}
	order    []string
	pkg      *catalog.Package
}

// New returns an empty selection scoped to the given eligible product IDs.
// Products outside the eligible set can never be toggled in.
func New(eligible []string) *Selection {
	set := make(map[string]struct{}, len(eligible))
	for _, id := range eligible {
		set[id] = struct{}{}
	}
	return &Selection{
		eligible: set,
		chosen:   make(map[string]struct{}),
	}
}

// Toggle flips membership of id in the selection. Toggling a product that
// is not eligible is a no-op.
func (s *Selection) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.eligible[id]; !ok {
		return
	}
	if _, ok := s.chosen[id]; ok {
		delete(s.chosen, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return
	}
	s.chosen[id] = struct{}{}
	s.order = append(s.order, id)
}

// ChoosePackage sets the active tier.
func (s *Selection) ChoosePackage(pkg catalog.Package) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := pkg
	s.pkg = &p
}

// Package returns the active tier, or nil if none was chosen yet.
func (s *Selection) Package() *catalog.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pkg == nil {
		return nil
	}
	p := *s.pkg
	return &p
}

// ProductIDs returns the chosen product IDs in toggle order.
func (s *Selection) ProductIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Total derives the session price: unit price times the number of chosen
// products, with an empty selection priced as one implicit listing.
// Zero if no package is chosen.
func (s *Selection) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pkg == nil {
		return 0
	}
	n := len(s.chosen)
	if n < 1 {
		n = 1
	}
	return s.pkg.UnitPrice * float64(n)
}

// Reset clears both the chosen products and the package. Called after a
// terminal outcome or an explicit cancel.
func (s *Selection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chosen = make(map[string]struct{})
	s.order = nil
	s.pkg = nil
}
