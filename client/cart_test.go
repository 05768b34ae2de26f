package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readnow/bookshop-api/internal/models"
)

func testBook(id int64, title string, price float64) models.Book {
	return models.Book{ID: id, Title: title, Price: price}
}

func TestCart_AddMergesQuantities(t *testing.T) {
	var cart Cart
	cart.Add(testBook(1, "The Great Adventure", 19.99), 1)
	cart.Add(testBook(2, "The Lost Kingdom", 14.99), 1)
	cart.Add(testBook(1, "The Great Adventure", 19.99), 2)

	require.Equal(t, 2, cart.Len())
	items := cart.Items()
	assert.Equal(t, int64(1), items[0].Book.ID)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestCart_AddIgnoresNonPositiveQuantity(t *testing.T) {
	var cart Cart
	cart.Add(testBook(1, "The Great Adventure", 19.99), 0)
	assert.Equal(t, 0, cart.Len())
}

func TestCart_UpdateAndRemove(t *testing.T) {
	var cart Cart
	cart.Add(testBook(1, "The Great Adventure", 19.99), 2)
	cart.Add(testBook(2, "The Lost Kingdom", 14.99), 1)

	cart.Update(1, 5)
	assert.Equal(t, 5, cart.Items()[0].Quantity)

	// Dropping below one removes the line.
	cart.Update(2, 0)
	assert.Equal(t, 1, cart.Len())

	cart.Remove(1)
	assert.Equal(t, 0, cart.Len())
}

func TestCart_Total(t *testing.T) {
	var cart Cart
	cart.Add(testBook(1, "The Great Adventure", 19.99), 2)
	cart.Add(testBook(2, "The Lost Kingdom", 14.99), 1)

	assert.InDelta(t, 54.97, cart.Total(), 0.001)
}

func TestCart_ItemsReturnsCopy(t *testing.T) {
	var cart Cart
	cart.Add(testBook(1, "The Great Adventure", 19.99), 2)

	items := cart.Items()
	items[0].Quantity = 99
	assert.Equal(t, 2, cart.Items()[0].Quantity)
}

func TestCheckout_EmptyCart(t *testing.T) {
	var cart Cart
	_, err := cart.Checkout(New("http://unused"), models.ShippingAddress{}, "card")
	require.EqualError(t, err, "cart is empty")
}

func TestCheckout_PlacesOrderAndClears(t *testing.T) {
	var gotReq OrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"orderId":7,"orderNumber":"abc-123"}`))
	}))
	defer server.Close()

	var cart Cart
	cart.Add(testBook(1, "The Great Adventure", 19.99), 2)

	conf, err := cart.Checkout(New(server.URL), models.ShippingAddress{
		Street: "1 Main St", City: "Springfield", State: "IL", Zip: "62701", Country: "USA",
	}, "card")
	require.NoError(t, err)

	assert.Equal(t, int64(7), conf.OrderID)
	assert.InDelta(t, 39.98, gotReq.TotalAmount, 0.001)
	require.Len(t, gotReq.Items, 1)
	assert.Equal(t, 2, gotReq.Items[0].Quantity)

	// The cart empties only on success.
	assert.Equal(t, 0, cart.Len())
}

func TestCheckout_KeepsCartOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Insufficient stock for The Great Adventure. Available: 1"}`))
	}))
	defer server.Close()

	var cart Cart
	cart.Add(testBook(1, "The Great Adventure", 19.99), 2)

	_, err := cart.Checkout(New(server.URL), models.ShippingAddress{}, "card")
	require.Error(t, err)
	assert.Equal(t, 1, cart.Len())
}
