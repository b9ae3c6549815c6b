package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/tomasarrieta/shopwindow/api/responses"
	"github.com/tomasarrieta/shopwindow/api/validators"
	"github.com/tomasarrieta/shopwindow/internal/browse"
	"github.com/tomasarrieta/shopwindow/internal/catalog"
	pkgerrors "github.com/tomasarrieta/shopwindow/pkg/errors"
	"github.com/tomasarrieta/shopwindow/pkg/logger"
	"github.com/tomasarrieta/shopwindow/pkg/metrics"
)

const canonicalQueryHeader = "X-Canonical-Query"

// ProductLister is the catalog surface the browse endpoints proxy to.
type ProductLister interface {
	ListProducts(ctx context.Context, params catalog.ListParams) (*catalog.ProductPage, error)
}

// CategoryLister serves the (cached) category list.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

// BrowseProducts serves the listing page from query-string parameters. The
// query grammar is the same one the storefront keeps in its address bar;
// malformed values fall back to defaults rather than erroring, and the
// canonical serialization is echoed so clients can normalize their URL.
func BrowseProducts(lister ProductLister, codec browse.Codec, mets *metrics.BrowseMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog client unavailable"))
			return
		}

		state := codec.Decode(r.URL.RawQuery)
		w.Header().Set(canonicalQueryHeader, codec.Encode(state))

		serveListing(w, r, lister, state, mets, logg)
	}
}

// BrowseProductsSearch is the body-encoded variant of the listing endpoint,
// used by the admin dashboard's saved-filter views.
func BrowseProductsSearch(lister ProductLister, codec browse.Codec, mets *metrics.BrowseMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog client unavailable"))
			return
		}

		var payload browseSearchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state := payload.toFilterState(codec.Defaults)
		w.Header().Set(canonicalQueryHeader, codec.Encode(state))

		serveListing(w, r, lister, state, mets, logg)
	}
}

func serveListing(w http.ResponseWriter, r *http.Request, lister ProductLister, state browse.FilterState, mets *metrics.BrowseMetrics, logg *logger.Logger) {
	mets.IncIssued("products")
	start := time.Now()
	page, err := lister.ListProducts(r.Context(), state.ListParams())
	mets.ObserveDuration("products", time.Since(start))
	if err != nil {
		mets.IncFailed("products")
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	mets.IncApplied("products")

	responses.WriteSuccess(w, newListingDTO(page, state))
}

// BrowseCategories serves the category list, typically through the Redis
// read-through cache.
func BrowseCategories(lister CategoryLister, mets *metrics.BrowseMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog client unavailable"))
			return
		}

		mets.IncIssued("categories")
		start := time.Now()
		categories, err := lister.ListCategories(r.Context())
		mets.ObserveDuration("categories", time.Since(start))
		if err != nil {
			mets.IncFailed("categories")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mets.IncApplied("categories")

		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

type browseSearchRequest struct {
	Page       int      `json:"page" validate:"omitempty,min=1"`
	PerPage    int      `json:"perPage" validate:"omitempty,min=1,max=100"`
	Categories []string `json:"categories" validate:"omitempty,dive,required"`
	PriceMin   *int     `json:"priceMin" validate:"omitempty,min=0"`
	PriceMax   *int     `json:"priceMax" validate:"omitempty,min=0"`
	OnSale     *bool    `json:"onSale"`
	SortBy     string   `json:"sortBy" validate:"omitempty,oneof=price_asc price_desc newest popular best_selling"`
}

// toFilterState maps the body onto the same mutation path the query codec
// uses, so both encodings land on identical, clamped states.
func (p browseSearchRequest) toFilterState(defaults browse.Defaults) browse.FilterState {
	state := defaults.State()
	if p.PerPage > 0 {
		state.PerPage = p.PerPage
	}
	for _, slug := range p.Categories {
		if !state.HasCategory(slug) {
			state = state.ToggleCategory(slug)
		}
	}
	if p.PriceMin != nil || p.PriceMax != nil {
		min, max := state.PriceMin, state.PriceMax
		if p.PriceMin != nil {
			min = *p.PriceMin
		}
		if p.PriceMax != nil {
			max = *p.PriceMax
		}
		state = state.WithPriceRange(min, max, defaults)
	}
	if p.OnSale != nil {
		state.OnSale = *p.OnSale
	}
	if p.SortBy != "" {
		state.SortBy = browse.ParseSortOrder(p.SortBy)
	}
	if p.Page > 0 {
		state.Page = p.Page
	}
	return state
}

type listingDTO struct {
	Products      []catalog.Product `json:"products"`
	Page          int               `json:"page"`
	PerPage       int               `json:"perPage"`
	TotalProducts int               `json:"totalProducts"`
	TotalPages    int               `json:"totalPages"`
	Filters       filtersDTO        `json:"filters"`
}

type filtersDTO struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	Categories []string `json:"categories,omitempty"`
	PriceMin   int      `json:"priceMin"`
	PriceMax   int      `json:"priceMax"`
	OnSale     bool     `json:"onSale"`
	SortBy     string   `json:"sortBy,omitempty"`
}

func newListingDTO(page *catalog.ProductPage, state browse.FilterState) listingDTO {
	return listingDTO{
		Products:      page.Products,
		Page:          page.CurrentPage,
		PerPage:       page.PerPage,
		TotalProducts: page.TotalProducts,
		TotalPages:    page.TotalPages,
		Filters: filtersDTO{
			Page:       state.Page,
			PerPage:    state.PerPage,
			Categories: state.Categories,
			PriceMin:   state.PriceMin,
			PriceMax:   state.PriceMax,
			OnSale:     state.OnSale,
			SortBy:     string(state.SortBy),
		},
	}
}
