package handlers_test

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderPayload(total float64) map[string]interface{} {
	return map[string]interface{}{
		"items": []map[string]interface{}{
			{"book": 1, "quantity": 2},
		},
		"shippingAddress": map[string]interface{}{
			"street":  "1 Main St",
			"city":    "Springfield",
			"state":   "IL",
			"zip":     "62701",
			"country": "USA",
		},
		"paymentMethod": "card",
		"totalAmount":   total,
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	router, mock := newTestApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, price, stock FROM books WHERE id = ? FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"title", "price", "stock"}).
			AddRow("The Great Adventure", 19.99, 5))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(sqlmock.AnyArg(), int64(5), "1 Main St", "Springfield", "IL", "62701", "USA",
			"card", 39.98, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items (order_id, book_id, quantity, unit_price) VALUES (?, ?, ?, ?)")).
		WithArgs(int64(7), int64(1), 2, 19.99).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books SET stock = stock - ? WHERE id = ? AND stock >= ?")).
		WithArgs(2, int64(1), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec, body := doRequest(t, router, http.MethodPost, "/api/orders", orderPayload(39.98), 5)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "Order created successfully", body["message"])
	assert.Equal(t, float64(7), body["orderId"])
	assert.NotEmpty(t, body["orderNumber"])
}

func TestPlaceOrder_UnknownBook(t *testing.T) {
	router, mock := newTestApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, price, stock FROM books WHERE id = ? FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"title", "price", "stock"}))
	mock.ExpectRollback()

	rec, body := doRequest(t, router, http.MethodPost, "/api/orders", orderPayload(39.98), 5)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Book not found: 1", body["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	router, mock := newTestApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, price, stock FROM books WHERE id = ? FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"title", "price", "stock"}).
			AddRow("The Great Adventure", 19.99, 1))
	mock.ExpectRollback()

	rec, body := doRequest(t, router, http.MethodPost, "/api/orders", orderPayload(39.98), 5)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Insufficient stock for The Great Adventure. Available: 1", body["message"])
	// Nothing was written before the failure.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_TotalMismatch(t *testing.T) {
	router, mock := newTestApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, price, stock FROM books WHERE id = ? FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"title", "price", "stock"}).
			AddRow("The Great Adventure", 19.99, 5))
	mock.ExpectRollback()

	rec, body := doRequest(t, router, http.MethodPost, "/api/orders", orderPayload(1.00), 5)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Order total mismatch: expected 39.98", body["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_DecrementGuard(t *testing.T) {
	router, mock := newTestApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, price, stock FROM books WHERE id = ? FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"title", "price", "stock"}).
			AddRow("The Great Adventure", 19.99, 5))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books SET stock = stock - ? WHERE id = ? AND stock >= ?")).
		WithArgs(2, int64(1), 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	rec, body := doRequest(t, router, http.MethodPost, "/api/orders", orderPayload(39.98), 5)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Insufficient stock for book 1", body["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_BadPaymentMethod(t *testing.T) {
	router, _ := newTestApp(t)

	payload := orderPayload(39.98)
	payload["paymentMethod"] = "barter"

	rec, _ := doRequest(t, router, http.MethodPost, "/api/orders", payload, 5)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMyOrders(t *testing.T) {
	router, mock := newTestApp(t)

	orderRows := sqlmock.NewRows([]string{
		"id", "order_number", "user_id", "street", "city", "state", "zip", "country",
		"payment_method", "total_amount", "status", "created_at",
	}).AddRow(3, "11111111-2222-3333-4444-555555555555", 5,
		"1 Main St", "Springfield", "IL", "62701", "USA", "card", 39.98, "pending", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE user_id = ? ORDER BY created_at DESC")).
		WithArgs(int64(5)).
		WillReturnRows(orderRows)

	itemRows := sqlmock.NewRows([]string{
		"id", "order_id", "quantity", "unit_price", "id", "title", "author", "image",
	}).AddRow(9, 3, 2, 19.99, 1, "The Great Adventure", "Some Author", "https://example.com/cover.jpg")
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items oi")).
		WithArgs(int64(3)).
		WillReturnRows(itemRows)

	rec, _ := doRequest(t, router, http.MethodGet, "/api/orders/my-orders", nil, 5)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, rec.Body.String(), "11111111-2222-3333-4444-555555555555")
	assert.Contains(t, rec.Body.String(), "The Great Adventure")
}

func TestGetOrder_ScopedToOwner(t *testing.T) {
	router, mock := newTestApp(t)

	// Order 9 belongs to someone else; the owner filter makes it a 404.
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ? AND user_id = ?")).
		WithArgs("9", int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec, body := doRequest(t, router, http.MethodGet, "/api/orders/9", nil, 5)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", body["message"])
}
