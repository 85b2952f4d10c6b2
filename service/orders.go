package service

import (
	"context"
	"time"

	odoorpc "github.com/jgtolentino/clean-dashboard"
	"github.com/jgtolentino/clean-dashboard/helper"
	"github.com/jgtolentino/clean-dashboard/proto"
)

const orderModel = "sale.order"

var orderFields = []string{"name", "partner_id", "date_order", "amount_total", "state"}

// SalesOrders reads and writes sales orders. Listings default to most
// recent first.
type SalesOrders struct {
	rpc RPC
}

func (s *SalesOrders) All(ctx context.Context, opts *odoorpc.SearchOptions) ([]odoorpc.Record, error) {
	if opts == nil {
		opts = &odoorpc.SearchOptions{}
	}
	if opts.Sort == "" {
		opts.Sort = "date_order desc"
	}
	return s.rpc.SearchRead(ctx, orderModel, nil, orderFields, opts)
}

// ByID returns one order, or (nil, nil) when the id does not exist.
func (s *SalesOrders) ByID(ctx context.Context, id int64) (odoorpc.Record, error) {
	return byID(ctx, s.rpc, orderModel, id, orderFields)
}

// ByDateRange returns orders whose order date falls in [from, to],
// most recent first.
func (s *SalesOrders) ByDateRange(ctx context.Context, from, to time.Time) ([]odoorpc.Record, error) {
	domain := proto.Where("date_order", ">=", from.Format(helper.DatetimeLayout)).
		And("date_order", "<=", to.Format(helper.DatetimeLayout))
	return s.rpc.SearchRead(ctx, orderModel, domain, orderFields, &odoorpc.SearchOptions{Sort: "date_order desc"})
}

func (s *SalesOrders) Create(ctx context.Context, values map[string]interface{}) (int64, error) {
	return s.rpc.Create(ctx, orderModel, values)
}

func (s *SalesOrders) Update(ctx context.Context, id int64, values map[string]interface{}) (bool, error) {
	return s.rpc.Write(ctx, orderModel, []int64{id}, values)
}

// Confirm runs the order's confirmation workflow transition server-side.
func (s *SalesOrders) Confirm(ctx context.Context, id int64) error {
	_, err := s.rpc.CallMethod(ctx, orderModel, "action_confirm", []interface{}{[]int64{id}}, nil)
	return err
}
