package browse

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	keyPage       = "page"
	keyPerPage    = "perPage"
	keyCategories = "categories"
	keyPriceMin   = "priceMin"
	keyPriceMax   = "priceMax"
	keyOnSale     = "onSale"
	keySortBy     = "sortBy"

	maxPerPage = 100
)

// History is where the coordinator publishes the canonical query string so
// that a search survives reloads and is shareable as a link. Replace
// semantics: slider drags and checkbox bursts must not pile up history
// entries, so back/forward steps over searches, not through them.
type History interface {
	Replace(query string)
}

// Codec serializes FilterState to a canonical query string and back.
// Fields equal to their defaults are omitted, so the default state encodes
// to the empty string and any decoded string re-encodes to itself.
type Codec struct {
	Defaults Defaults
}

// NewCodec normalizes the defaults once up front.
func NewCodec(defaults Defaults) Codec {
	return Codec{Defaults: defaults.Normalized()}
}

// Encode renders the canonical query string, without a leading "?". Key
// order is fixed so equal states always produce byte-equal strings.
func (c Codec) Encode(s FilterState) string {
	base := c.Defaults.State()
	var parts []string
	appendPart := func(key, value string) {
		parts = append(parts, key+"="+url.QueryEscape(value))
	}

	if s.Page != base.Page {
		appendPart(keyPage, strconv.Itoa(s.Page))
	}
	if s.PerPage != base.PerPage {
		appendPart(keyPerPage, strconv.Itoa(s.PerPage))
	}
	if len(s.Categories) > 0 {
		appendPart(keyCategories, strings.Join(s.Categories, ","))
	}
	if s.PriceMin != base.PriceMin {
		appendPart(keyPriceMin, strconv.Itoa(s.PriceMin))
	}
	if s.PriceMax != base.PriceMax {
		appendPart(keyPriceMax, strconv.Itoa(s.PriceMax))
	}
	if s.OnSale != base.OnSale {
		appendPart(keyOnSale, strconv.FormatBool(s.OnSale))
	}
	if s.SortBy != SortDefault {
		appendPart(keySortBy, string(s.SortBy))
	}
	return strings.Join(parts, "&")
}

// Decode parses a query string (leading "?" tolerated) into a FilterState.
// Missing, malformed or out-of-range values fall back to the field's
// default; unrecognized keys are ignored for forward compatibility. The
// result is always a reachable state: Decode(Encode(s)) == s and
// Encode(Decode(q)) is a fixed point for arbitrary q.
func (c Codec) Decode(query string) FilterState {
	defaults := c.Defaults.Normalized()
	state := defaults.State()

	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return state
	}

	if raw := values.Get(keyPerPage); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 {
			if n > maxPerPage {
				n = maxPerPage
			}
			state.PerPage = n
		}
	}

	if raw := values.Get(keyCategories); raw != "" {
		state.Categories = splitCategorySlugs(raw)
	}

	min, max := state.PriceMin, state.PriceMax
	if raw := values.Get(keyPriceMin); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			min = n
		}
	}
	if raw := values.Get(keyPriceMax); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			max = n
		}
	}
	if min != state.PriceMin || max != state.PriceMax {
		state = state.WithPriceRange(min, max, defaults)
	}

	if raw := values.Get(keyOnSale); raw != "" {
		if flag, err := strconv.ParseBool(raw); err == nil {
			state.OnSale = flag
		}
	}

	if raw := values.Get(keySortBy); raw != "" {
		state.SortBy = ParseSortOrder(raw)
	}

	// Page last: the filter mutations above reset it, and the inbound page
	// must survive them. Total pages are unknown at decode time, so only the
	// lower bound applies.
	if raw := values.Get(keyPage); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 {
			state.Page = n
		}
	}

	return state
}

func splitCategorySlugs(raw string) []string {
	seen := map[string]bool{}
	var slugs []string
	for _, part := range strings.Split(raw, ",") {
		slug := strings.TrimSpace(part)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		slugs = append(slugs, slug)
	}
	return slugs
}
