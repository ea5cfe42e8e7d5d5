package checkout

import (
	"context"
	"testing"

	"github.com/avelar/dropship-store/internal/cart"
	"github.com/avelar/dropship-store/internal/database"
	"github.com/avelar/dropship-store/internal/models"
	"github.com/avelar/dropship-store/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog map[int64]*models.Product

func (f fakeCatalog) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	product, ok := f[id]
	if !ok {
		return nil, database.ErrProductNotFound
	}
	return product, nil
}

// fakeWriter persists nothing; it records the single atomic request it
// was handed and plays back an order built from it.
type fakeWriter struct {
	created       []store.CreateOrderRequest
	statusUpdates []string
}

func (f *fakeWriter) CreateOrder(_ context.Context, req store.CreateOrderRequest) (*models.Order, error) {
	f.created = append(f.created, req)

	order := &models.Order{
		ID:              int64(len(f.created)),
		UserID:          req.UserID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ShippingCountry: req.ShippingCountry,
		Status:          models.OrderStatusPending,
		TotalAmount:     req.TotalAmount,
	}
	for i, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:         int64(i + 1),
			OrderID:    order.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}
	return order, nil
}

func (f *fakeWriter) UpdateOrderStatus(_ context.Context, id int64, status string) (*models.Order, error) {
	f.statusUpdates = append(f.statusUpdates, status)
	return &models.Order{ID: id, Status: status}, nil
}

func testProduct(id int64, price string) *models.Product {
	return &models.Product{
		ID:    id,
		Name:  "Product",
		Price: decimal.RequireFromString(price),
	}
}

func validInfo() CustomerInfo {
	return CustomerInfo{
		Name:         "Ada Lovelace",
		Email:        "Ada@Example.com",
		Phone:        "555-0100",
		AddressLine1: "1 Analytical Way",
		City:         "London",
		State:        "LDN",
		ZipCode:      "NW1",
	}
}

func TestCommitFreezesPricesAndTotals(t *testing.T) {
	catalog := fakeCatalog{5: testProduct(5, "10.00")}
	writer := &fakeWriter{}

	c := cart.New()
	c.Add("5", 3)

	order, err := Commit(context.Background(), c, catalog, writer, nil, validInfo())
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, int64(5), item.ProductID)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, item.TotalPrice.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("30.00")))
}

func TestCommitPriceFrozenAgainstLaterCatalogChange(t *testing.T) {
	catalog := fakeCatalog{5: testProduct(5, "10.00")}
	writer := &fakeWriter{}

	c := cart.New()
	c.Add("5", 1)

	order, err := Commit(context.Background(), c, catalog, writer, nil, validInfo())
	require.NoError(t, err)

	catalog[5] = testProduct(5, "99.99")

	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
	require.Len(t, writer.created, 1)
	assert.True(t, writer.created[0].Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
}

func TestCommitEmptyCart(t *testing.T) {
	writer := &fakeWriter{}

	_, err := Commit(context.Background(), cart.New(), fakeCatalog{}, writer, nil, validInfo())

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, writer.created)
}

func TestCommitCartOfOnlyDeletedProducts(t *testing.T) {
	writer := &fakeWriter{}

	c := cart.New()
	c.Add("9", 2)

	_, err := Commit(context.Background(), c, fakeCatalog{}, writer, nil, validInfo())

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, writer.created)
}

func TestCommitSkipsDeletedProductLines(t *testing.T) {
	catalog := fakeCatalog{2: testProduct(2, "199.99")}
	writer := &fakeWriter{}

	c := cart.New()
	c.Add("2", 1)
	c.Add("9", 1)

	order, err := Commit(context.Background(), c, catalog, writer, nil, validInfo())
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(2), order.Items[0].ProductID)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("199.99")))
}

func TestCommitValidation(t *testing.T) {
	catalog := fakeCatalog{5: testProduct(5, "10.00")}

	cases := map[string]struct {
		mutate func(*CustomerInfo)
		field  string
	}{
		"missing name":    {func(i *CustomerInfo) { i.Name = "" }, "customer_name"},
		"short name":      {func(i *CustomerInfo) { i.Name = "A" }, "customer_name"},
		"bad email":       {func(i *CustomerInfo) { i.Email = "not-an-email" }, "customer_email"},
		"missing phone":   {func(i *CustomerInfo) { i.Phone = " " }, "customer_phone"},
		"missing address": {func(i *CustomerInfo) { i.AddressLine1 = "" }, "shipping_address_line1"},
		"missing city":    {func(i *CustomerInfo) { i.City = "" }, "shipping_city"},
		"missing state":   {func(i *CustomerInfo) { i.State = "" }, "shipping_state"},
		"missing zip":     {func(i *CustomerInfo) { i.ZipCode = "" }, "shipping_zip_code"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			writer := &fakeWriter{}

			c := cart.New()
			c.Add("5", 1)

			info := validInfo()
			tc.mutate(&info)

			_, err := Commit(context.Background(), c, catalog, writer, nil, info)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
			assert.Empty(t, writer.created, "validation failure must not create an order")
		})
	}
}

func TestCommitNormalizesFields(t *testing.T) {
	catalog := fakeCatalog{5: testProduct(5, "10.00")}
	writer := &fakeWriter{}

	c := cart.New()
	c.Add("5", 1)

	order, err := Commit(context.Background(), c, catalog, writer, nil, validInfo())
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", order.CustomerEmail)
	assert.Equal(t, "US", order.ShippingCountry)
}

func TestCommitAttachesUser(t *testing.T) {
	catalog := fakeCatalog{5: testProduct(5, "10.00")}
	writer := &fakeWriter{}

	c := cart.New()
	c.Add("5", 1)

	userID := int64(12)
	order, err := Commit(context.Background(), c, catalog, writer, &userID, validInfo())
	require.NoError(t, err)

	require.NotNil(t, order.UserID)
	assert.Equal(t, int64(12), *order.UserID)
}

func TestCommitIsSingleWrite(t *testing.T) {
	catalog := fakeCatalog{
		1: testProduct(1, "1.00"),
		2: testProduct(2, "2.00"),
		3: testProduct(3, "3.00"),
	}
	writer := &fakeWriter{}

	c := cart.New()
	c.Add("1", 1)
	c.Add("2", 1)
	c.Add("3", 1)

	_, err := Commit(context.Background(), c, catalog, writer, nil, validInfo())
	require.NoError(t, err)

	// Everything crosses the persistence boundary in one request so the
	// store can commit it as one transaction.
	require.Len(t, writer.created, 1)
	assert.Len(t, writer.created[0].Items, 3)
}

func TestCancelFromPendingAndProcessing(t *testing.T) {
	for _, status := range []string{models.OrderStatusPending, models.OrderStatusProcessing} {
		writer := &fakeWriter{}
		order := &models.Order{ID: 1, Status: status}

		cancelled, err := Cancel(context.Background(), writer, order)
		require.NoError(t, err, "from %s", status)
		assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	}
}

func TestCancelRejectedFromLaterStatuses(t *testing.T) {
	for _, status := range []string{
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
	} {
		writer := &fakeWriter{}
		order := &models.Order{ID: 1, Status: status}

		_, err := Cancel(context.Background(), writer, order)
		assert.ErrorIs(t, err, models.ErrInvalidTransition, "from %s", status)
		assert.Empty(t, writer.statusUpdates, "no state change from %s", status)
	}
}
