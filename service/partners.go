package service

import (
	"context"

	odoorpc "github.com/jgtolentino/clean-dashboard"
	"github.com/jgtolentino/clean-dashboard/proto"
)

const partnerModel = "res.partner"

var partnerFields = []string{"name", "email", "phone", "city", "customer_rank"}

// Partners reads and writes customers and suppliers.
type Partners struct {
	rpc RPC
}

func (p *Partners) All(ctx context.Context, opts *odoorpc.SearchOptions) ([]odoorpc.Record, error) {
	if opts == nil {
		opts = &odoorpc.SearchOptions{}
	}
	if opts.Sort == "" {
		opts.Sort = "name asc"
	}
	return p.rpc.SearchRead(ctx, partnerModel, nil, partnerFields, opts)
}

// ByID returns one partner, or (nil, nil) when the id does not exist.
func (p *Partners) ByID(ctx context.Context, id int64) (odoorpc.Record, error) {
	return byID(ctx, p.rpc, partnerModel, id, partnerFields)
}

// SearchByName matches name or email against pattern, case-insensitively.
func (p *Partners) SearchByName(ctx context.Context, pattern string) ([]odoorpc.Record, error) {
	domain := proto.Where("name", "ilike", pattern).Or("email", "ilike", pattern)
	return p.rpc.SearchRead(ctx, partnerModel, domain, partnerFields, nil)
}

func (p *Partners) Create(ctx context.Context, values map[string]interface{}) (int64, error) {
	return p.rpc.Create(ctx, partnerModel, values)
}

func (p *Partners) Update(ctx context.Context, id int64, values map[string]interface{}) (bool, error) {
	return p.rpc.Write(ctx, partnerModel, []int64{id}, values)
}
