package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	odoorpc "github.com/jgtolentino/clean-dashboard"
	"github.com/jgtolentino/clean-dashboard/proto"
)

// fakeRPC records the last call of each primitive and plays back canned
// responses, so the tests can assert the facade fixes the right
// {model, fields, domain, order} tuple and nothing else.
type fakeRPC struct {
	lastModel  string
	lastDomain proto.Domain
	lastFields []string
	lastOpts   *odoorpc.SearchOptions
	lastMethod string
	lastArgs   []interface{}
	lastKwargs map[string]interface{}
	lastIDs    []int64
	lastValues map[string]interface{}

	records []odoorpc.Record
	raw     json.RawMessage
	id      int64
	err     error
}

func (f *fakeRPC) SearchRead(_ context.Context, model string, domain proto.Domain, fields []string, opts *odoorpc.SearchOptions) ([]odoorpc.Record, error) {
	f.lastModel, f.lastDomain, f.lastFields, f.lastOpts = model, domain, fields, opts
	return f.records, f.err
}

func (f *fakeRPC) Create(_ context.Context, model string, values map[string]interface{}) (int64, error) {
	f.lastModel, f.lastValues = model, values
	return f.id, f.err
}

func (f *fakeRPC) Write(_ context.Context, model string, ids []int64, values map[string]interface{}) (bool, error) {
	f.lastModel, f.lastIDs, f.lastValues = model, ids, values
	return f.err == nil, f.err
}

func (f *fakeRPC) Unlink(_ context.Context, model string, ids []int64) (bool, error) {
	f.lastModel, f.lastIDs = model, ids
	return f.err == nil, f.err
}

func (f *fakeRPC) CallMethod(_ context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (json.RawMessage, error) {
	f.lastModel, f.lastMethod, f.lastArgs, f.lastKwargs = model, method, args, kwargs
	return f.raw, f.err
}

func TestProductsFixedTuple(t *testing.T) {
	fake := &fakeRPC{}
	svc := New(fake)

	_, err := svc.Products.All(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "product.product", fake.lastModel)
	assert.Equal(t, productFields, fake.lastFields)
	assert.Equal(t, "name asc", fake.lastOpts.Sort)
	assert.Nil(t, fake.lastDomain)

	_, err = svc.Products.SearchByName(context.Background(), "beans")
	require.NoError(t, err)
	raw, _ := json.Marshal(fake.lastDomain)
	assert.JSONEq(t, `["|",["name","ilike","beans"],["default_code","ilike","beans"]]`, string(raw))
}

func TestProductsByID(t *testing.T) {
	fake := &fakeRPC{records: []odoorpc.Record{{"id": float64(3), "name": "Grinder"}}}
	svc := New(fake)

	rec, err := svc.Products.ByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Grinder", rec["name"])
	assert.Equal(t, 1, fake.lastOpts.Limit)
	raw, _ := json.Marshal(fake.lastDomain)
	assert.JSONEq(t, `[["id","=",3]]`, string(raw))

	fake.records = nil
	rec, err = svc.Products.ByID(context.Background(), 99)
	require.NoError(t, err, "a missing id is not an error")
	assert.Nil(t, rec)
}

func TestSalesOrdersDefaultsAndRange(t *testing.T) {
	fake := &fakeRPC{}
	svc := New(fake)

	_, err := svc.SalesOrders.All(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "sale.order", fake.lastModel)
	assert.Equal(t, "date_order desc", fake.lastOpts.Sort)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	_, err = svc.SalesOrders.ByDateRange(context.Background(), from, to)
	require.NoError(t, err)
	raw, _ := json.Marshal(fake.lastDomain)
	assert.JSONEq(t,
		`[["date_order",">=","2026-08-01 00:00:00"],["date_order","<=","2026-08-31 23:59:59"]]`,
		string(raw))
}

func TestSalesOrdersConfirm(t *testing.T) {
	fake := &fakeRPC{raw: json.RawMessage(`true`)}
	svc := New(fake)

	require.NoError(t, svc.SalesOrders.Confirm(context.Background(), 12))
	assert.Equal(t, "sale.order", fake.lastModel)
	assert.Equal(t, "action_confirm", fake.lastMethod)
	assert.Equal(t, []interface{}{[]int64{12}}, fake.lastArgs)
}

func TestPartnersPassThrough(t *testing.T) {
	fake := &fakeRPC{id: 42}
	svc := New(fake)

	values := map[string]interface{}{"name": "Acme"}
	id, err := svc.Partners.Create(context.Background(), values)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	assert.Equal(t, "res.partner", fake.lastModel)
	assert.Equal(t, values, fake.lastValues, "the value bag passes through untouched")

	ok, err := svc.Partners.Update(context.Background(), 42, map[string]interface{}{"city": "Manila"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int64{42}, fake.lastIDs)
}

func TestInventoryFilters(t *testing.T) {
	fake := &fakeRPC{}
	svc := New(fake)

	_, err := svc.Inventory.ByProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "stock.quant", fake.lastModel)
	raw, _ := json.Marshal(fake.lastDomain)
	assert.JSONEq(t, `[["product_id","=",5]]`, string(raw))

	_, err = svc.Inventory.ByLocation(context.Background(), 8)
	require.NoError(t, err)
	raw, _ = json.Marshal(fake.lastDomain)
	assert.JSONEq(t, `[["location_id","=",8]]`, string(raw))
}

func TestAnalyticsReshapesReadGroup(t *testing.T) {
	fake := &fakeRPC{raw: json.RawMessage(
		`[{"date_order:month":"2026-07","price_total":1500.5,"__count":3},
		  {"date_order:month":"2026-08","price_total":900,"__count":2}]`)}
	svc := New(fake)

	rows, err := svc.Analytics.SalesTotalsByMonth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sale.report", fake.lastModel)
	assert.Equal(t, "read_group", fake.lastMethod)
	require.Len(t, rows, 2)
	assert.Equal(t, MonthlySales{Month: "2026-07", Total: 1500.5, Orders: 3}, rows[0])
	assert.Equal(t, MonthlySales{Month: "2026-08", Total: 900, Orders: 2}, rows[1])
}

func TestAnalyticsTopProducts(t *testing.T) {
	fake := &fakeRPC{raw: json.RawMessage(
		`[{"product_id":[1,"Espresso Beans"],"price_total":800,"product_uom_qty":64}]`)}
	svc := New(fake)

	rows, err := svc.Analytics.TopProducts(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "price_total desc", fake.lastKwargs["orderby"])
	assert.Equal(t, 5, fake.lastKwargs["limit"])
	require.Len(t, rows, 1)
	assert.Equal(t, ProductSales{ProductID: 1, Product: "Espresso Beans", Quantity: 64, Total: 800}, rows[0])
}

func TestFacadePropagatesErrorsUnchanged(t *testing.T) {
	wantErr := &proto.Error{Code: 400, Message: "Invalid"}
	fake := &fakeRPC{err: wantErr}
	svc := New(fake)

	_, err := svc.Products.All(context.Background(), nil)
	assert.Same(t, error(wantErr), err)

	_, err = svc.Partners.Create(context.Background(), nil)
	assert.Same(t, error(wantErr), err)

	err = svc.SalesOrders.Confirm(context.Background(), 1)
	assert.Same(t, error(wantErr), err)
}
