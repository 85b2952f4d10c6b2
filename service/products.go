package service

import (
	"context"

	odoorpc "github.com/jgtolentino/clean-dashboard"
	"github.com/jgtolentino/clean-dashboard/proto"
)

const productModel = "product.product"

var productFields = []string{"name", "default_code", "list_price", "qty_available", "categ_id"}

// Products reads and writes the product catalog.
type Products struct {
	rpc RPC
}

// All returns a page of products ordered by name. A nil opts uses the
// client's default page size.
func (p *Products) All(ctx context.Context, opts *odoorpc.SearchOptions) ([]odoorpc.Record, error) {
	if opts == nil {
		opts = &odoorpc.SearchOptions{}
	}
	if opts.Sort == "" {
		opts.Sort = "name asc"
	}
	return p.rpc.SearchRead(ctx, productModel, nil, productFields, opts)
}

// ByID returns one product, or (nil, nil) when the id does not exist.
func (p *Products) ByID(ctx context.Context, id int64) (odoorpc.Record, error) {
	return byID(ctx, p.rpc, productModel, id, productFields)
}

// SearchByName matches the name or the internal reference against pattern,
// case-insensitively.
func (p *Products) SearchByName(ctx context.Context, pattern string) ([]odoorpc.Record, error) {
	domain := proto.Where("name", "ilike", pattern).Or("default_code", "ilike", pattern)
	return p.rpc.SearchRead(ctx, productModel, domain, productFields, nil)
}

func (p *Products) Create(ctx context.Context, values map[string]interface{}) (int64, error) {
	return p.rpc.Create(ctx, productModel, values)
}

func (p *Products) Update(ctx context.Context, id int64, values map[string]interface{}) (bool, error) {
	return p.rpc.Write(ctx, productModel, []int64{id}, values)
}
