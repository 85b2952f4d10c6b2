// Package service is a thin domain vocabulary over the RPC client. Each
// group fixes the {model, field list, default order} tuple for one retail
// concept so call sites do not restate it. No caching, no validation, no
// derived computation lives here; every error from the client passes through
// unchanged.
package service

import (
	"context"
	"encoding/json"

	odoorpc "github.com/jgtolentino/clean-dashboard"
	"github.com/jgtolentino/clean-dashboard/proto"
)

// RPC is the subset of the client the facade needs. Narrowed so tests can
// substitute a fake.
type RPC interface {
	SearchRead(ctx context.Context, model string, domain proto.Domain, fields []string, opts *odoorpc.SearchOptions) ([]odoorpc.Record, error)
	Create(ctx context.Context, model string, values map[string]interface{}) (int64, error)
	Write(ctx context.Context, model string, ids []int64, values map[string]interface{}) (bool, error)
	Unlink(ctx context.Context, model string, ids []int64) (bool, error)
	CallMethod(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (json.RawMessage, error)
}

// Services bundles every operation group over one shared client, so the
// composition root constructs and injects a single value.
type Services struct {
	Products    *Products
	SalesOrders *SalesOrders
	Partners    *Partners
	Inventory   *Inventory
	Analytics   *Analytics
}

func New(rpc RPC) *Services {
	return &Services{
		Products:    &Products{rpc: rpc},
		SalesOrders: &SalesOrders{rpc: rpc},
		Partners:    &Partners{rpc: rpc},
		Inventory:   &Inventory{rpc: rpc},
		Analytics:   &Analytics{rpc: rpc},
	}
}

// byID fetches at most one record; a missing id yields (nil, nil).
func byID(ctx context.Context, rpc RPC, model string, id int64, fields []string) (odoorpc.Record, error) {
	records, err := rpc.SearchRead(ctx, model, proto.Where("id", "=", id), fields, &odoorpc.SearchOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}
