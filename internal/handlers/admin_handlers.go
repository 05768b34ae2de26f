package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/readnow/bookshop-api/internal/models"
)

//
// --- Admin Handlers ---
//
// All routes here sit behind AuthMiddleware + AdminMiddleware. There is no
// ownership scoping: any admin may act on any record, and every mutation
// appends an audit_log row.
//

// logAdminAction appends to the audit trail. It accepts an Execer so it can
// join the caller's transaction when there is one.
func (h *Handlers) logAdminAction(db Execer, adminID int64, action, entity string, entityID int64) {
	_, err := db.Exec(
		"INSERT INTO audit_log (admin_id, action, entity, entity_id, created_at) VALUES (?, ?, ?, ?, ?)",
		adminID, action, entity, entityID, time.Now(),
	)
	if err != nil {
		// The audit write must not fail the admin's request.
		h.Logger.Error("failed to write audit log", "error", err, "action", action, "entity", entity)
	}
}

func adminID(c *gin.Context) int64 {
	userIDRaw, _ := c.Get("userID")
	return userIDRaw.(int64)
}

// RecentOrder is one entry of the stats dashboard's recent-orders list.
type RecentOrder struct {
	ID          int64     `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	TotalAmount float64   `json:"totalAmount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UserName    string    `json:"userName"`
	UserEmail   string    `json:"userEmail"`
}

// GetAdminStats is the handler for GET /api/admin/stats.
// Revenue excludes cancelled orders; the user count covers customers only.
func (h *Handlers) GetAdminStats(c *gin.Context) {
	var totalBooks, totalUsers, totalOrders int
	var totalRevenue float64

	if err := h.DB.QueryRow("SELECT COUNT(*) FROM books").Scan(&totalBooks); err != nil {
		h.internalError(c, "failed to count books", err)
		return
	}
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'customer'").Scan(&totalUsers); err != nil {
		h.internalError(c, "failed to count users", err)
		return
	}
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM orders").Scan(&totalOrders); err != nil {
		h.internalError(c, "failed to count orders", err)
		return
	}
	if err := h.DB.QueryRow("SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status <> 'cancelled'").Scan(&totalRevenue); err != nil {
		h.internalError(c, "failed to sum revenue", err)
		return
	}

	rows, err := h.DB.Query(`
		SELECT o.id, o.order_number, o.total_amount, o.status, o.created_at, u.name, u.email
		FROM orders o
		JOIN users u ON o.user_id = u.id
		ORDER BY o.created_at DESC
		LIMIT 10`)
	if err != nil {
		h.internalError(c, "failed to query recent orders", err)
		return
	}
	defer rows.Close()

	recentOrders := []RecentOrder{}
	for rows.Next() {
		var r RecentOrder
		if err := rows.Scan(&r.ID, &r.OrderNumber, &r.TotalAmount, &r.Status, &r.CreatedAt, &r.UserName, &r.UserEmail); err != nil {
			h.internalError(c, "failed to scan recent order", err)
			return
		}
		recentOrders = append(recentOrders, r)
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "error iterating recent orders", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalBooks":   totalBooks,
		"totalUsers":   totalUsers,
		"totalOrders":  totalOrders,
		"totalRevenue": totalRevenue,
		"recentOrders": recentOrders,
	})
}

//
// --- Book Management ---
//

// AdminListBooks is the handler for GET /api/admin/books.
func (h *Handlers) AdminListBooks(c *gin.Context) {
	rows, err := h.DB.Query("SELECT " + bookColumns + " FROM books ORDER BY created_at DESC")
	if err != nil {
		h.internalError(c, "failed to query books", err)
		return
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var b models.Book
		if err := scanBook(rows, &b); err != nil {
			h.internalError(c, "failed to scan book row", err)
			return
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "error iterating book rows", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": books})
}

type CreateBookInput struct {
	Title       string  `json:"title" binding:"required"`
	Author      string  `json:"author" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Category    string  `json:"category" binding:"required"`
	Stock       int     `json:"stock" binding:"gte=0"`
	Image       string  `json:"image"`
	Featured    bool    `json:"featured"`
}

// CreateBook is the handler for POST /api/admin/books.
func (h *Handlers) CreateBook(c *gin.Context) {
	var input CreateBookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	book := models.Book{
		Title:       input.Title,
		Author:      input.Author,
		Slug:        slug.Make(input.Title),
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Stock:       input.Stock,
		Image:       input.Image,
		Featured:    input.Featured,
		CreatedAt:   time.Now(),
	}

	result, err := h.DB.Exec(`
		INSERT INTO books (title, author, slug, description, price, category, stock, image, rating, num_reviews, featured, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		book.Title, book.Author, book.Slug, book.Description, book.Price,
		book.Category, book.Stock, book.Image, book.Featured, book.CreatedAt,
	)
	if err != nil {
		h.internalError(c, "failed to insert book", err)
		return
	}
	book.ID, err = result.LastInsertId()
	if err != nil {
		h.internalError(c, "failed to get new book ID", err)
		return
	}

	h.logAdminAction(h.DB, adminID(c), "create", "book", book.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Book created successfully",
		"book":    book,
	})
}

// UpdateBookInput uses pointers so only the supplied fields are touched.
type UpdateBookInput struct {
	Title       *string  `json:"title"`
	Author      *string  `json:"author"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	Category    *string  `json:"category"`
	Stock       *int     `json:"stock" binding:"omitempty,gte=0"`
	Image       *string  `json:"image"`
	Featured    *bool    `json:"featured"`
}

// UpdateBook is the handler for PUT /api/admin/books/:id.
func (h *Handlers) UpdateBook(c *gin.Context) {
	bookIDStr := c.Param("id")
	bookID, err := strconv.ParseInt(bookIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid book id"})
		return
	}

	var input UpdateBookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	// Dynamically build the SET clause from the supplied fields.
	querySet := ""
	var queryArgs []interface{}

	appendSet := func(col string, val interface{}) {
		if querySet != "" {
			querySet += ", "
		}
		querySet += col + " = ?"
		queryArgs = append(queryArgs, val)
	}

	if input.Title != nil {
		appendSet("title", *input.Title)
		appendSet("slug", slug.Make(*input.Title))
	}
	if input.Author != nil {
		appendSet("author", *input.Author)
	}
	if input.Description != nil {
		appendSet("description", *input.Description)
	}
	if input.Price != nil {
		appendSet("price", *input.Price)
	}
	if input.Category != nil {
		appendSet("category", *input.Category)
	}
	if input.Stock != nil {
		appendSet("stock", *input.Stock)
	}
	if input.Image != nil {
		appendSet("image", *input.Image)
	}
	if input.Featured != nil {
		appendSet("featured", *input.Featured)
	}

	if len(queryArgs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No fields to update"})
		return
	}

	queryArgs = append(queryArgs, bookID)
	result, err := h.DB.Exec(fmt.Sprintf("UPDATE books SET %s WHERE id = ?", querySet), queryArgs...)
	if err != nil {
		h.internalError(c, "failed to update book", err)
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		h.internalError(c, "failed to check affected rows", err)
		return
	}
	if rowsAffected == 0 {
		// Could also mean an identical update; verify existence explicitly.
		var exists int64
		if err := h.DB.QueryRow("SELECT id FROM books WHERE id = ?", bookID).Scan(&exists); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Book not found"})
			return
		}
	}

	var book models.Book
	if err := scanBook(h.DB.QueryRow("SELECT "+bookColumns+" FROM books WHERE id = ?", bookID), &book); err != nil {
		h.internalError(c, "failed to fetch updated book", err)
		return
	}

	h.logAdminAction(h.DB, adminID(c), "update", "book", bookID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Book updated successfully",
		"book":    book,
	})
}

// DeleteBook is the handler for DELETE /api/admin/books/:id.
// A book referenced by any order cannot be deleted, so order history stays
// resolvable; its reviews are removed in the same transaction.
func (h *Handlers) DeleteBook(c *gin.Context) {
	bookIDStr := c.Param("id")
	bookID, err := strconv.ParseInt(bookIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid book id"})
		return
	}

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		h.internalError(c, "failed to start transaction", err)
		return
	}
	defer tx.Rollback()

	var orderRefs int
	if err := tx.QueryRow("SELECT COUNT(*) FROM order_items WHERE book_id = ?", bookID).Scan(&orderRefs); err != nil {
		h.internalError(c, "failed to check order references", err)
		return
	}
	if orderRefs > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot delete a book with existing orders"})
		return
	}

	if _, err := tx.Exec("DELETE FROM reviews WHERE book_id = ?", bookID); err != nil {
		h.internalError(c, "failed to delete book reviews", err)
		return
	}

	result, err := tx.Exec("DELETE FROM books WHERE id = ?", bookID)
	if err != nil {
		h.internalError(c, "failed to delete book", err)
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		h.internalError(c, "failed to check affected rows", err)
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Book not found"})
		return
	}

	h.logAdminAction(tx, adminID(c), "delete", "book", bookID)

	if err := tx.Commit(); err != nil {
		h.internalError(c, "failed to commit delete transaction", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}

//
// --- User Management ---
//

// AdminListUsers is the handler for GET /api/admin/users.
func (h *Handlers) AdminListUsers(c *gin.Context) {
	rows, err := h.DB.Query("SELECT id, name, email, role, created_at FROM users ORDER BY created_at DESC")
	if err != nil {
		h.internalError(c, "failed to query users", err)
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			h.internalError(c, "failed to scan user row", err)
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "error iterating user rows", err)
		return
	}

	c.JSON(http.StatusOK, users)
}

type UpdateUserRoleInput struct {
	Role string `json:"role" binding:"required,oneof=customer admin"`
}

// UpdateUserRole is the handler for PUT /api/admin/users/:id/role.
func (h *Handlers) UpdateUserRole(c *gin.Context) {
	userIDStr := c.Param("id")
	targetID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	var input UpdateUserRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var user models.User
	err = h.DB.QueryRow("SELECT id, name, email, role, created_at FROM users WHERE id = ?", targetID).
		Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.internalError(c, "failed to fetch user", err)
		return
	}

	if _, err := h.DB.Exec("UPDATE users SET role = ? WHERE id = ?", input.Role, targetID); err != nil {
		h.internalError(c, "failed to update user role", err)
		return
	}
	user.Role = input.Role

	h.logAdminAction(h.DB, adminID(c), "update-role", "user", targetID)

	c.JSON(http.StatusOK, gin.H{
		"message": "User role updated successfully",
		"user":    user,
	})
}

//
// --- Order Management ---
//

// AdminOrder is an order row with the customer expanded for the back office.
type AdminOrder struct {
	models.Order
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

// AdminListOrders is the handler for GET /api/admin/orders.
func (h *Handlers) AdminListOrders(c *gin.Context) {
	rows, err := h.DB.Query(`
		SELECT o.id, o.order_number, o.user_id, o.street, o.city, o.state, o.zip, o.country,
		       o.payment_method, o.total_amount, o.status, o.created_at, u.name, u.email
		FROM orders o
		JOIN users u ON o.user_id = u.id
		ORDER BY o.created_at DESC`)
	if err != nil {
		h.internalError(c, "failed to query orders", err)
		return
	}
	defer rows.Close()

	orders := []AdminOrder{}
	for rows.Next() {
		var o AdminOrder
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.UserID,
			&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
			&o.ShippingAddress.Zip, &o.ShippingAddress.Country,
			&o.PaymentMethod, &o.TotalAmount, &o.Status, &o.CreatedAt,
			&o.UserName, &o.UserEmail,
		); err != nil {
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

type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
}

// UpdateOrderStatus is the handler for PUT /api/admin/orders/:id/status.
// Transitions are unconstrained: any status can follow any other.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	orderIDStr := c.Param("id")
	orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order id"})
		return
	}

	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var o models.Order
	err = scanOrder(h.DB.QueryRow("SELECT "+orderColumns+" FROM orders WHERE id = ?", orderID), &o)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		h.internalError(c, "failed to fetch order", err)
		return
	}

	if _, err := h.DB.Exec("UPDATE orders SET status = ? WHERE id = ?", input.Status, orderID); err != nil {
		h.internalError(c, "failed to update order status", err)
		return
	}
	o.Status = input.Status

	h.logAdminAction(h.DB, adminID(c), "update-status", "order", orderID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"order":   o,
	})
}
