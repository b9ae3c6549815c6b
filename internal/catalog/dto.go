package catalog

import "github.com/shopspring/decimal"

// ListParams carries one settled filter snapshot to the listing endpoint.
type ListParams struct {
	Page       int
	PerPage    int
	Categories []string
	PriceMin   int
	PriceMax   int
	OnSale     bool
	SortBy     string
}

// Product is the typed shape the rest of the app consumes. Prices are
// decimals; the remote payload is never trusted as float math input.
type Product struct {
	ID        string
	Slug      string
	Name      string
	Price     decimal.Decimal
	SalePrice *decimal.Decimal
	OnSale    bool
	Image     string
}

// ProductPage is one page of listing results plus pagination metadata.
type ProductPage struct {
	Products      []Product
	CurrentPage   int
	PerPage       int
	TotalProducts int
	TotalPages    int
}

// Category is read-only reference data, fetched independently of filters.
type Category struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Wire payloads. The remote API is duck-typed; every field the app relies on
// is validated at this boundary before conversion.

type productPayload struct {
	ID        string           `json:"id" validate:"required"`
	Slug      string           `json:"product_slug" validate:"required"`
	Name      string           `json:"product_name" validate:"required"`
	Price     decimal.Decimal  `json:"price"`
	SalePrice *decimal.Decimal `json:"sale_price"`
	OnSale    bool             `json:"on_sale"`
	Image     string           `json:"image"`
}

func (p productPayload) toProduct() Product {
	return Product{
		ID:        p.ID,
		Slug:      p.Slug,
		Name:      p.Name,
		Price:     p.Price,
		SalePrice: p.SalePrice,
		OnSale:    p.OnSale,
		Image:     p.Image,
	}
}

type listProductsResponse struct {
	Status        bool             `json:"status"`
	Message       string           `json:"message"`
	Products      []productPayload `json:"products"`
	CurrentPage   int              `json:"currentPage"`
	PerPage       int              `json:"perPage"`
	TotalProducts int              `json:"totalProducts"`
	TotalPages    int              `json:"totalPages"`
}

type categoryPayload struct {
	ID   int64  `json:"id" validate:"required"`
	Slug string `json:"category_slug" validate:"required"`
	Name string `json:"category_name" validate:"required"`
}

type listCategoriesResponse struct {
	Status     bool              `json:"status"`
	Message    string            `json:"message"`
	Categories []categoryPayload `json:"categories"`
}
