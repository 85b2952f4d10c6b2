package service

import (
	"context"

	odoorpc "github.com/jgtolentino/clean-dashboard"
	"github.com/jgtolentino/clean-dashboard/proto"
)

const quantModel = "stock.quant"

var quantFields = []string{"product_id", "location_id", "quantity", "reserved_quantity"}

// Inventory reads stock levels per product and location.
type Inventory struct {
	rpc RPC
}

func (i *Inventory) All(ctx context.Context, opts *odoorpc.SearchOptions) ([]odoorpc.Record, error) {
	return i.rpc.SearchRead(ctx, quantModel, nil, quantFields, opts)
}

// ByProduct returns every stock line for one product across locations.
func (i *Inventory) ByProduct(ctx context.Context, productID int64) ([]odoorpc.Record, error) {
	return i.rpc.SearchRead(ctx, quantModel, proto.Where("product_id", "=", productID), quantFields, nil)
}

// ByLocation returns every stock line held at one location.
func (i *Inventory) ByLocation(ctx context.Context, locationID int64) ([]odoorpc.Record, error) {
	return i.rpc.SearchRead(ctx, quantModel, proto.Where("location_id", "=", locationID), quantFields, nil)
}
