package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herbveda/storefront/app/models"
	"github.com/herbveda/storefront/app/services"
	"github.com/herbveda/storefront/pkg/event"
)

func validOrderInput() services.CreateOrderInput {
	return services.CreateOrderInput{
		Items: []services.OrderItemInput{
			{ProductID: "p1", Name: "Ashwagandha", Price: "299", Quantity: 2},
		},
		Subtotal:       598,
		DeliveryCharge: 0,
		Total:          598,
		CustomerInfo: models.CustomerInfo{
			Name:    "Asha Patel",
			Email:   "asha@example.com",
			Phone:   "9876543210",
			Address: "12 Green Lane",
		},
	}
}

func newOrderFixture(t *testing.T) (*services.OrderService, *fakeUserStore, *fakeOrderStore, *models.User) {
	t.Helper()
	users := newFakeUserStore()
	orders := newFakeOrderStore()
	user := seedUser(t, users, "Asha", "asha@example.com", "correct-horse")
	return services.NewOrderService(users, orders), users, orders, user
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, user := newOrderFixture(t)

	noItems := validOrderInput()
	noItems.Items = nil
	_, err := svc.Create(ctx, user.ID.Hex(), noItems)
	assert.Equal(t, http.StatusBadRequest, svcErr(t, err).Status)

	noPhone := validOrderInput()
	noPhone.CustomerInfo.Phone = ""
	_, err = svc.Create(ctx, user.ID.Hex(), noPhone)
	assert.Equal(t, http.StatusBadRequest, svcErr(t, err).Status)

	_, err = svc.Create(ctx, "64b000000000000000000000", validOrderInput())
	assert.Equal(t, http.StatusNotFound, svcErr(t, err).Status)
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, _, user := newOrderFixture(t)
	defer event.Flush()

	var fired *models.Order
	event.Listen(services.OrderCreated, func(p any) { fired = p.(*models.Order) })

	order, err := svc.Create(ctx, user.ID.Hex(), validOrderInput())
	require.NoError(t, err)
	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, models.DefaultStatus, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "HV"))
	assert.True(t, strings.HasSuffix(order.OrderNumber, "0001"))

	require.NotNil(t, fired, "creation must announce the saved order")
	assert.Equal(t, order.OrderNumber, fired.OrderNumber)
}

func TestCreateOrderNormalizesItems(t *testing.T) {
	ctx := context.Background()
	svc, _, orders, user := newOrderFixture(t)
	defer event.Flush()

	in := validOrderInput()
	in.Items = []services.OrderItemInput{
		{ID: "alt-id", Title: "Brahmi Oil", Price: 149.5, Quantity: 1},
		{MongoID: "mongo-id", Quantity: 3},
		// A serialized ObjectID, as sent by clients replaying catalog documents.
		{MongoID: map[string]any{"$oid": "64b000000000000000000001"}, Name: "Triphala", Quantity: 1},
	}
	created, err := svc.Create(ctx, user.ID.Hex(), in)
	require.NoError(t, err)

	saved, err := orders.FindByIDForUser(ctx, created.ID.Hex(), user.ID)
	require.NoError(t, err)
	require.Len(t, saved.Items, 3)

	assert.Equal(t, "alt-id", saved.Items[0].ProductID)
	assert.Equal(t, "Brahmi Oil", saved.Items[0].Name)
	assert.Equal(t, "149.5", saved.Items[0].Price)

	assert.Equal(t, "mongo-id", saved.Items[1].ProductID)
	assert.Equal(t, "Unknown Product", saved.Items[1].Name)
	assert.Equal(t, "", saved.Items[1].Price)

	assert.Equal(t, "64b000000000000000000001", saved.Items[2].ProductID)

	// The object form must also survive the JSON decode of the request body.
	var item services.OrderItemInput
	raw := []byte(`{"_id":{"$oid":"64b000000000000000000002"},"quantity":2}`)
	require.NoError(t, json.Unmarshal(raw, &item))
}

func TestCreateOrderRetriesDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	svc, _, orders, user := newOrderFixture(t)
	defer event.Flush()
	orders.failNext = 2

	order, err := svc.Create(ctx, user.ID.Hex(), validOrderInput())
	require.NoError(t, err)
	assert.NotEmpty(t, order.OrderNumber)
}

func TestConcurrentCreatesGetUniqueNumbers(t *testing.T) {
	ctx := context.Background()
	svc, _, _, user := newOrderFixture(t)
	defer event.Flush()

	const n = 4
	var wg sync.WaitGroup
	results := make([]*models.Order, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Create(ctx, user.ID.Hex(), validOrderInput())
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.False(t, seen[results[i].OrderNumber], "duplicate number %s", results[i].OrderNumber)
		seen[results[i].OrderNumber] = true
	}
}

func TestGetOrderIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	svc, users, _, owner := newOrderFixture(t)
	defer event.Flush()
	other := seedUser(t, users, "Ravi", "ravi@example.com", "battery-staple")

	order, err := svc.Create(ctx, owner.ID.Hex(), validOrderInput())
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner.ID.Hex(), order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)

	// Someone else's order looks exactly like a missing one.
	_, err = svc.Get(ctx, other.ID.Hex(), order.ID.Hex())
	assert.Equal(t, http.StatusNotFound, svcErr(t, err).Status)

	_, err = svc.Get(ctx, "not-a-hex-id", order.ID.Hex())
	assert.Equal(t, http.StatusNotFound, svcErr(t, err).Status)
}

func TestListOrdersFiltersByProduct(t *testing.T) {
	ctx := context.Background()
	svc, _, _, user := newOrderFixture(t)
	defer event.Flush()

	first := validOrderInput()
	_, err := svc.Create(ctx, user.ID.Hex(), first)
	require.NoError(t, err)

	second := validOrderInput()
	second.Items[0].Name = "Brahmi Oil"
	_, err = svc.Create(ctx, user.ID.Hex(), second)
	require.NoError(t, err)

	all, err := svc.List(ctx, user.ID.Hex(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.List(ctx, user.ID.Hex(), "Brahmi Oil")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Brahmi Oil", filtered[0].Items[0].Name)
}

func TestSummaryAggregatesPerProduct(t *testing.T) {
	ctx := context.Background()
	svc, _, _, user := newOrderFixture(t)
	defer event.Flush()

	for i := 0; i < 2; i++ {
		in := validOrderInput() // Ashwagandha x2
		_, err := svc.Create(ctx, user.ID.Hex(), in)
		require.NoError(t, err)
	}
	in := validOrderInput()
	in.Items[0].Name = "Brahmi Oil"
	in.Items[0].Quantity = 1
	_, err := svc.Create(ctx, user.ID.Hex(), in)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, user.ID.Hex())
	require.NoError(t, err)
	require.Len(t, summary, 2)

	assert.Equal(t, "Ashwagandha", summary[0].ProductName)
	assert.Equal(t, 4, summary[0].TotalQuantity)
	assert.Equal(t, 2, summary[0].OrdersCount)
	assert.Equal(t, "Brahmi Oil", summary[1].ProductName)
	assert.Equal(t, 1, summary[1].TotalQuantity)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc, users, _, user := newOrderFixture(t)
	defer event.Flush()
	other := seedUser(t, users, "Ravi", "ravi@example.com", "battery-staple")

	order, err := svc.Create(ctx, user.ID.Hex(), validOrderInput())
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, user.ID.Hex(), order.ID.Hex(), models.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, updated.Status)

	_, err = svc.UpdateStatus(ctx, user.ID.Hex(), order.ID.Hex(), "teleported")
	assert.Equal(t, http.StatusBadRequest, svcErr(t, err).Status)

	_, err = svc.UpdateStatus(ctx, other.ID.Hex(), order.ID.Hex(), models.StatusCancelled)
	assert.Equal(t, http.StatusNotFound, svcErr(t, err).Status)
}
