package handlers

import (
	"database/sql"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/readnow/bookshop-api/internal/models"
)

//
// --- Order Handlers ---
//

type OrderItemInput struct {
	Book     int64 `json:"book" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,min=1"`
}

type PlaceOrderInput struct {
	Items           []OrderItemInput       `json:"items" binding:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required,oneof=card paypal cash-on-delivery"`
	TotalAmount     float64                `json:"totalAmount" binding:"required,gt=0"`
}

// Amounts within one cent of the server-side total are accepted; anything
// beyond that is treated as tampering.
const totalTolerance = 0.01

// PlaceOrder is the handler for POST /api/orders.
//
// The whole flow runs in one serializable transaction: every book row is
// locked with FOR UPDATE before its stock is checked, the order and its item
// snapshots are inserted, and each decrement carries a stock >= quantity
// guard. Two concurrent orders for the same book therefore serialize, and
// stock can never go negative. The caller's totalAmount is not trusted; the
// server recomputes it from the locked prices.
func (h *Handlers) PlaceOrder(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var input PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	tx, err := h.DB.BeginTx(c, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		h.internalError(c, "failed to start transaction", err)
		return
	}
	defer tx.Rollback() // Safety net

	// 1. --- Validate Items Against Locked Stock ---
	// First failure aborts before any mutation.
	type checkedItem struct {
		bookID    int64
		quantity  int
		unitPrice float64
	}

	var items []checkedItem
	var serverTotal float64

	for _, item := range input.Items {
		var title string
		var price float64
		var stock int

		err := tx.QueryRow("SELECT title, price, stock FROM books WHERE id = ? FOR UPDATE", item.Book).
			Scan(&title, &price, &stock)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Book not found: %d", item.Book)})
				return
			}
			h.internalError(c, "failed to fetch book for order", err)
			return
		}

		if stock < item.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": fmt.Sprintf("Insufficient stock for %s. Available: %d", title, stock),
			})
			return
		}

		serverTotal += price * float64(item.Quantity)
		items = append(items, checkedItem{bookID: item.Book, quantity: item.Quantity, unitPrice: price})
	}

	// 2. --- Verify the Caller's Total ---
	if math.Abs(serverTotal-input.TotalAmount) > totalTolerance {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": fmt.Sprintf("Order total mismatch: expected %.2f", serverTotal),
		})
		return
	}

	// 3. --- Insert Order ---
	orderNumber := uuid.NewString()
	result, err := tx.Exec(`
		INSERT INTO orders (order_number, user_id, street, city, state, zip, country, payment_method, total_amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?)`,
		orderNumber, userID,
		input.ShippingAddress.Street, input.ShippingAddress.City, input.ShippingAddress.State,
		input.ShippingAddress.Zip, input.ShippingAddress.Country,
		input.PaymentMethod, serverTotal, time.Now(),
	)
	if err != nil {
		h.internalError(c, "failed to insert order", err)
		return
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		h.internalError(c, "failed to get new order ID", err)
		return
	}

	// 4. --- Snapshot Items & Decrement Stock ---
	for _, item := range items {
		_, err := tx.Exec(
			"INSERT INTO order_items (order_id, book_id, quantity, unit_price) VALUES (?, ?, ?, ?)",
			orderID, item.bookID, item.quantity, item.unitPrice,
		)
		if err != nil {
			h.internalError(c, "failed to insert order item", err)
			return
		}

		// The guard is redundant under FOR UPDATE but keeps the floor at zero
		// even if the isolation level is ever relaxed.
		res, err := tx.Exec(
			"UPDATE books SET stock = stock - ? WHERE id = ? AND stock >= ?",
			item.quantity, item.bookID, item.quantity,
		)
		if err != nil {
			h.internalError(c, "failed to decrement stock", err)
			return
		}
		if rows, err := res.RowsAffected(); err == nil && rows == 0 {
			c.JSON(http.StatusConflict, gin.H{"message": fmt.Sprintf("Insufficient stock for book %d", item.bookID)})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		h.internalError(c, "failed to commit order transaction", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Order created successfully",
		"orderId":     orderID,
		"orderNumber": orderNumber,
	})
}

const orderColumns = "id, order_number, user_id, street, city, state, zip, country, payment_method, total_amount, status, created_at"

// scanOrder reads one orders row in orderColumns order.
func scanOrder(row interface{ Scan(...interface{}) error }, o *models.Order) error {
	return row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.Zip, &o.ShippingAddress.Country,
		&o.PaymentMethod, &o.TotalAmount, &o.Status, &o.CreatedAt,
	)
}

// fetchOrderItems expands an order's items with the live book reference
// (title, author, image).
func (h *Handlers) fetchOrderItems(orderID int64) ([]models.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.quantity, oi.unit_price, b.id, b.title, b.author, b.image
		FROM order_items oi
		JOIN books b ON oi.book_id = b.id
		WHERE oi.order_id = ?`

	rows, err := h.DB.Query(query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.Quantity, &item.Price,
			&item.Book.ID, &item.Book.Title, &item.Book.Author, &item.Book.Image,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetMyOrders is the handler for GET /api/orders/my-orders.
// Newest first; each item's book reference is expanded.
func (h *Handlers) GetMyOrders(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	rows, err := h.DB.Query(
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		h.internalError(c, "failed to query orders", err)
		return
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			h.internalError(c, "failed to scan order row", err)
			return
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "error iterating order rows", err)
		return
	}

	for i := range orders {
		items, err := h.fetchOrderItems(orders[i].ID)
		if err != nil {
			h.internalError(c, "failed to fetch order items", err)
			return
		}
		orders[i].Items = items
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder is the handler for GET /api/orders/:id.
// Owner-scoped: asking for someone else's order looks identical to asking for
// a missing one.
func (h *Handlers) GetOrder(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	orderID := c.Param("id")

	var o models.Order
	err := scanOrder(h.DB.QueryRow(
		"SELECT "+orderColumns+" FROM orders WHERE id = ? AND user_id = ?",
		orderID, userID,
	), &o)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		h.internalError(c, "failed to fetch order", err)
		return
	}

	items, err := h.fetchOrderItems(o.ID)
	if err != nil {
		h.internalError(c, "failed to fetch order items", err)
		return
	}
	o.Items = items

	c.JSON(http.StatusOK, o)
}
