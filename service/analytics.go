package service

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/jgtolentino/clean-dashboard/helper"
	"github.com/jgtolentino/clean-dashboard/proto"
)

const salesReportModel = "sale.report"

// MonthlySales is one aggregated row of sales grouped by month.
type MonthlySales struct {
	Month  string
	Total  float64
	Orders int64
}

// ProductSales is one aggregated row of sales grouped by product.
type ProductSales struct {
	ProductID int64
	Product   string
	Quantity  float64
	Total     float64
}

// Analytics aggregates sales figures server-side via read_group. The rows
// come back already summed; this type only reshapes them into structs.
type Analytics struct {
	rpc RPC
}

// SalesTotalsByMonth returns per-month revenue and order counts, oldest
// month first.
func (a *Analytics) SalesTotalsByMonth(ctx context.Context) ([]MonthlySales, error) {
	rows, err := a.readGroup(ctx,
		nil,
		[]string{"price_total"},
		[]string{"date_order:month"},
		nil)
	if err != nil {
		return nil, err
	}

	out := make([]MonthlySales, 0, len(rows))
	for _, row := range rows {
		var m MonthlySales
		m.Month, _ = helper.String(row["date_order:month"])
		m.Total, _ = helper.Float64(row["price_total"])
		m.Orders, _ = helper.Int64(row["__count"])
		out = append(out, m)
	}
	return out, nil
}

// TopProducts returns the best-selling products by revenue, highest first.
func (a *Analytics) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	kwargs := map[string]interface{}{
		"orderby": "price_total desc",
	}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	rows, err := a.readGroup(ctx,
		nil,
		[]string{"price_total", "product_uom_qty"},
		[]string{"product_id"},
		kwargs)
	if err != nil {
		return nil, err
	}

	out := make([]ProductSales, 0, len(rows))
	for _, row := range rows {
		var p ProductSales
		p.ProductID, p.Product, _ = helper.Many2One(row["product_id"])
		p.Total, _ = helper.Float64(row["price_total"])
		p.Quantity, _ = helper.Float64(row["product_uom_qty"])
		out = append(out, p)
	}
	return out, nil
}

func (a *Analytics) readGroup(ctx context.Context, domain proto.Domain, fields, groupBy []string, kwargs map[string]interface{}) ([]map[string]interface{}, error) {
	if domain == nil {
		domain = proto.Domain{}
	}
	raw, err := a.rpc.CallMethod(ctx, salesReportModel, "read_group",
		[]interface{}{domain, fields, groupBy}, kwargs)
	if err != nil {
		return nil, err
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Wrap(err, "decode read_group rows")
	}
	return rows, nil
}
