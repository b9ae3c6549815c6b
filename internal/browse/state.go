// Package browse implements the storefront's filter/URL/fetch
// synchronization core: a canonical filter state, a query-string codec, and
// a coordinator that keeps displayed results consistent with the latest
// settled state.
package browse

import (
	"github.com/tomasarrieta/shopwindow/internal/catalog"
)

// SortOrder enumerates the supported result orderings.
type SortOrder string

const (
	SortDefault     SortOrder = ""
	SortPriceAsc    SortOrder = "price_asc"
	SortPriceDesc   SortOrder = "price_desc"
	SortNewest      SortOrder = "newest"
	SortPopular     SortOrder = "popular"
	SortBestSelling SortOrder = "best_selling"
)

// ParseSortOrder maps a wire value to a SortOrder, falling back to the
// default order for anything unrecognized.
func ParseSortOrder(value string) SortOrder {
	switch SortOrder(value) {
	case SortPriceAsc, SortPriceDesc, SortNewest, SortPopular, SortBestSelling:
		return SortOrder(value)
	default:
		return SortDefault
	}
}

// Defaults are the resting values of the filter dimensions. They double as
// the omission rules for URL serialization: a field equal to its default is
// left out of the query string.
type Defaults struct {
	PerPage      int
	PriceCeiling int
	PriceStep    int
}

// Normalized fills zero fields with the storefront's stock values.
func (d Defaults) Normalized() Defaults {
	if d.PerPage <= 0 {
		d.PerPage = 12
	}
	if d.PriceCeiling <= 0 {
		d.PriceCeiling = 5000
	}
	if d.PriceStep <= 0 {
		d.PriceStep = 1
	}
	return d
}

// State builds the default FilterState.
func (d Defaults) State() FilterState {
	d = d.Normalized()
	return FilterState{
		Page:     1,
		PerPage:  d.PerPage,
		PriceMin: 0,
		PriceMax: d.PriceCeiling,
		OnSale:   false,
		SortBy:   SortDefault,
	}
}

// FilterState is an immutable snapshot of every active filter, sort and
// pagination parameter. Mutations return a new value; the Categories slice
// is never shared between snapshots.
type FilterState struct {
	Page       int
	PerPage    int
	Categories []string
	PriceMin   int
	PriceMax   int
	OnSale     bool
	SortBy     SortOrder
}

func (s FilterState) clone() FilterState {
	if len(s.Categories) > 0 {
		s.Categories = append([]string(nil), s.Categories...)
	}
	return s
}

// HasCategory reports membership; order in the slice carries no filter
// meaning, only the canonical serialization order.
func (s FilterState) HasCategory(slug string) bool {
	for _, existing := range s.Categories {
		if existing == slug {
			return true
		}
	}
	return false
}

// WithPage moves to page n. Out-of-range values are a no-op: below 1 always,
// above totalPages when totalPages is known (> 0).
func (s FilterState) WithPage(n, totalPages int) FilterState {
	if n < 1 {
		return s
	}
	if totalPages > 0 && n > totalPages {
		return s
	}
	next := s.clone()
	next.Page = n
	return next
}

// ToggleCategory adds or removes a category slug. Any filter-dimension
// change resets the page to 1: a page index computed under the old filter
// set is meaningless under the new one.
func (s FilterState) ToggleCategory(slug string) FilterState {
	if slug == "" {
		return s
	}
	next := s.clone()
	if next.HasCategory(slug) {
		kept := make([]string, 0, len(next.Categories)-1)
		for _, existing := range next.Categories {
			if existing != slug {
				kept = append(kept, existing)
			}
		}
		next.Categories = kept
	} else {
		next.Categories = append(next.Categories, slug)
	}
	next.Page = 1
	return next
}

// WithPriceRange applies the clamp rule: the pair is ordered, bounded to
// [0, ceiling], and min is lowered until min <= max - step so the two
// sliders never cross. Resets the page to 1.
func (s FilterState) WithPriceRange(min, max int, d Defaults) FilterState {
	d = d.Normalized()
	if min > max {
		min, max = max, min
	}
	if min < 0 {
		min = 0
	}
	if max > d.PriceCeiling {
		max = d.PriceCeiling
	}
	if max < d.PriceStep {
		max = d.PriceStep
	}
	if min > max-d.PriceStep {
		min = max - d.PriceStep
	}
	if min < 0 {
		min = 0
	}
	next := s.clone()
	next.PriceMin = min
	next.PriceMax = max
	next.Page = 1
	return next
}

// WithOnSale sets the on-sale flag and resets the page to 1.
func (s FilterState) WithOnSale(on bool) FilterState {
	next := s.clone()
	next.OnSale = on
	next.Page = 1
	return next
}

// WithSortBy sets the sort order and resets the page to 1.
func (s FilterState) WithSortBy(order SortOrder) FilterState {
	next := s.clone()
	next.SortBy = order
	next.Page = 1
	return next
}

// Equal compares two snapshots field by field, categories in order.
func (s FilterState) Equal(o FilterState) bool {
	if s.Page != o.Page || s.PerPage != o.PerPage ||
		s.PriceMin != o.PriceMin || s.PriceMax != o.PriceMax ||
		s.OnSale != o.OnSale || s.SortBy != o.SortBy ||
		len(s.Categories) != len(o.Categories) {
		return false
	}
	for i := range s.Categories {
		if s.Categories[i] != o.Categories[i] {
			return false
		}
	}
	return true
}

// ListParams translates the snapshot into catalog request parameters.
func (s FilterState) ListParams() catalog.ListParams {
	return catalog.ListParams{
		Page:       s.Page,
		PerPage:    s.PerPage,
		Categories: append([]string(nil), s.Categories...),
		PriceMin:   s.PriceMin,
		PriceMax:   s.PriceMax,
		OnSale:     s.OnSale,
		SortBy:     string(s.SortBy),
	}
}
