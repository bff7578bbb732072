package store

import (
	"context"

	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
)

// DefaultProductPageLimit is the catalogue page size
const DefaultProductPageLimit = 20

// ProductAPI is the part of the storefront API the product store needs
type ProductAPI interface {
	ListProducts(ctx context.Context, q shopapi.PageQuery) (*shopapi.Page[shopapi.Product], error)
	GetProduct(ctx context.Context, id string) (*shopapi.Product, error)
}

// ProductStore holds one visitor's catalogue listing and the product being
// viewed.
type ProductStore struct {
	api   ProductAPI
	limit int

	list   pagedList[shopapi.Product]
	single entitySlot[shopapi.Product]
}

func NewProductStore(api ProductAPI, limit int) *ProductStore {
	if limit <= 0 {
		limit = DefaultProductPageLimit
	}
	return &ProductStore{
		api:    api,
		limit:  limit,
		list:   pagedList[shopapi.Product]{name: "products"},
		single: entitySlot[shopapi.Product]{name: "product"},
	}
}

// Fetch loads the first page (reset) or the next page of products.
func (s *ProductStore) Fetch(ctx context.Context, reset bool) error {
	return s.list.fetch(ctx, "", reset, func(ctx context.Context, _, cursor string) (*shopapi.Page[shopapi.Product], error) {
		return s.api.ListProducts(ctx, shopapi.PageQuery{Limit: s.limit, Cursor: cursor})
	})
}

// FetchByID replaces the single product slot.
func (s *ProductStore) FetchByID(ctx context.Context, id string) (*shopapi.Product, error) {
	return s.single.fetch(ctx, id, s.api.GetProduct)
}

// Products returns a copy of the loaded products
func (s *ProductStore) Products() []shopapi.Product {
	return s.list.snapshot()
}

// Product returns the last product fetched by id, or nil
func (s *ProductStore) Product() *shopapi.Product {
	p, _ := s.single.get()
	return p
}

// HasMore reports whether "load more" should be offered
func (s *ProductStore) HasMore() bool {
	return s.list.hasMore()
}

func (s *ProductStore) Loading() bool {
	return s.list.loading() || s.single.loading()
}

// Err returns the last list fetch failure, cleared by the next success
func (s *ProductStore) Err() error {
	return s.list.lastErr()
}

func (s *ProductStore) Limit() int {
	return s.limit
}
