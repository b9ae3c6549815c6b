package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tomasarrieta/shopwindow/pkg/config"
	pkgerrors "github.com/tomasarrieta/shopwindow/pkg/errors"
	"github.com/tomasarrieta/shopwindow/pkg/logger"
)

// Client talks to the remote catalog API, which owns all product data,
// pricing and stock. This side only parses and validates.
type Client struct {
	baseURL  string
	http     *http.Client
	logg     *logger.Logger
	validate *validator.Validate
}

// NewClient builds a catalog client from config. The base URL must be absolute.
func NewClient(cfg config.CatalogConfig, logg *logger.Logger) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parsing catalog base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog base url must be absolute, got %q", cfg.BaseURL)
	}

	return &Client{
		baseURL:  strings.TrimRight(parsed.String(), "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		logg:     logg,
		validate: validator.New(),
	}, nil
}

// ListProducts fetches one page of products matching the given snapshot.
func (c *Client) ListProducts(ctx context.Context, params ListParams) (*ProductPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("perPage", strconv.Itoa(params.PerPage))
	if len(params.Categories) > 0 {
		query.Set("categories", strings.Join(params.Categories, ","))
	}
	query.Set("priceMin", strconv.Itoa(params.PriceMin))
	query.Set("priceMax", strconv.Itoa(params.PriceMax))
	query.Set("onSale", strconv.FormatBool(params.OnSale))
	if params.SortBy != "" {
		query.Set("sortBy", params.SortBy)
	}

	var payload listProductsResponse
	if err := c.get(ctx, "/products", query, &payload); err != nil {
		return nil, err
	}
	if !payload.Status {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, remoteMessage(payload.Message, "catalog rejected the listing request"))
	}

	page := &ProductPage{
		Products:      make([]Product, 0, len(payload.Products)),
		CurrentPage:   payload.CurrentPage,
		PerPage:       payload.PerPage,
		TotalProducts: payload.TotalProducts,
		TotalPages:    payload.TotalPages,
	}
	for i, row := range payload.Products {
		if err := c.validate.Struct(row); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteSchema, err, "product payload missing required fields").
				WithDetails(map[string]any{"index": i})
		}
		page.Products = append(page.Products, row.toProduct())
	}
	if page.TotalProducts < 0 || page.TotalPages < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeRemoteSchema, "catalog returned negative pagination totals")
	}
	return page, nil
}

// ListCategories fetches the full category list. No parameters; callers cache it.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var payload listCategoriesResponse
	if err := c.get(ctx, "/categories", nil, &payload); err != nil {
		return nil, err
	}
	if !payload.Status {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, remoteMessage(payload.Message, "catalog rejected the category request"))
	}

	categories := make([]Category, 0, len(payload.Categories))
	for i, row := range payload.Categories {
		if err := c.validate.Struct(row); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteSchema, err, "category payload missing required fields").
				WithDetails(map[string]any{"index": i})
		}
		categories = append(categories, Category{ID: row.ID, Slug: row.Slug, Name: row.Name})
	}
	return categories, nil
}

// Ping verifies the remote API answers; used by readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListCategories(ctx)
	return err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Some deployments return a JSON error envelope on non-2xx; surface
		// its message when present.
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return pkgerrors.New(pkgerrors.CodeDependency, remoteMessage(failure.Message, fmt.Sprintf("catalog returned status %d", resp.StatusCode))).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteSchema, err, "decoding catalog response")
	}
	return nil
}

func remoteMessage(message, fallback string) string {
	if trimmed := strings.TrimSpace(message); trimmed != "" {
		return trimmed
	}
	return fallback
}
