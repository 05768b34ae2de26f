package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/readnow/bookshop-api/internal/models"
)

//
// --- Catalog Handlers (Public) ---
//

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

const bookColumns = "id, title, author, slug, description, price, category, stock, image, rating, num_reviews, featured, created_at"

// scanBook reads one books row in bookColumns order.
func scanBook(row interface{ Scan(...interface{}) error }, b *models.Book) error {
	return row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Slug, &b.Description, &b.Price,
		&b.Category, &b.Stock, &b.Image, &b.Rating, &b.NumReviews,
		&b.Featured, &b.CreatedAt,
	)
}

// ListBooks is the handler for GET /api/books.
// Filters: category (exact), search (substring over title/description),
// minPrice/maxPrice, featured=true. Sort: title (default, asc), price (asc),
// rating (desc), createdAt (desc). Pagination is 1-indexed.
func (h *Handlers) ListBooks(c *gin.Context) {
	// 1. --- Collect Filters ---
	var conds []sq.Sqlizer

	if category := c.Query("category"); category != "" {
		conds = append(conds, sq.Eq{"category": category})
	}
	if search := c.Query("search"); search != "" {
		term := "%" + search + "%"
		conds = append(conds, sq.Or{sq.Like{"title": term}, sq.Like{"description": term}})
	}
	if minPrice := c.Query("minPrice"); minPrice != "" {
		v, err := strconv.ParseFloat(minPrice, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid minPrice"})
			return
		}
		conds = append(conds, sq.GtOrEq{"price": v})
	}
	if maxPrice := c.Query("maxPrice"); maxPrice != "" {
		v, err := strconv.ParseFloat(maxPrice, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid maxPrice"})
			return
		}
		conds = append(conds, sq.LtOrEq{"price": v})
	}
	if c.Query("featured") == "true" {
		conds = append(conds, sq.Eq{"featured": true})
	}

	// 2. --- Sort (whitelisted keys only) ---
	var orderBy string
	switch c.Query("sortBy") {
	case "price":
		orderBy = "price ASC"
	case "rating":
		orderBy = "rating DESC"
	case "createdAt":
		orderBy = "created_at DESC"
	default:
		orderBy = "title ASC"
	}

	// 3. --- Pagination ---
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (page - 1) * limit

	// 4. --- Count Matching Rows ---
	countBuilder := sq.Select("COUNT(*)").From("books")
	for _, cond := range conds {
		countBuilder = countBuilder.Where(cond)
	}
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		h.internalError(c, "failed to build count query", err)
		return
	}

	var total int
	if err := h.DB.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
		h.internalError(c, "failed to count books", err)
		return
	}

	// 5. --- Fetch Page ---
	listBuilder := sq.Select(bookColumns).From("books")
	for _, cond := range conds {
		listBuilder = listBuilder.Where(cond)
	}
	listQuery, listArgs, err := listBuilder.
		OrderBy(orderBy).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		h.internalError(c, "failed to build list query", err)
		return
	}

	rows, err := h.DB.Query(listQuery, listArgs...)
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

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"pagination": models.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	})
}

// GetBook is the handler for GET /api/books/:id.
func (h *Handlers) GetBook(c *gin.Context) {
	bookID := c.Param("id")

	var b models.Book
	err := scanBook(h.DB.QueryRow("SELECT "+bookColumns+" FROM books WHERE id = ?", bookID), &b)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Book not found"})
			return
		}
		h.internalError(c, "failed to fetch book", err)
		return
	}

	c.JSON(http.StatusOK, b)
}

//
// --- Review Handlers ---
//

// ListBookReviews is the handler for GET /api/books/:id/reviews.
// Newest first, with the reviewer's name joined in.
func (h *Handlers) ListBookReviews(c *gin.Context) {
	bookID := c.Param("id")

	query := `
		SELECT r.id, r.user_id, r.book_id, r.rating, r.comment, r.created_at, u.name
		FROM reviews r
		JOIN users u ON r.user_id = u.id
		WHERE r.book_id = ?
		ORDER BY r.created_at DESC`

	rows, err := h.DB.Query(query, bookID)
	if err != nil {
		h.internalError(c, "failed to query reviews", err)
		return
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.BookID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UserName); err != nil {
			h.internalError(c, "failed to scan review row", err)
			return
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "error iterating review rows", err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}

type AddReviewInput struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required"`
}

// AddReview is the handler for POST /api/books/:id/reviews.
// The insert and the rating/num_reviews recompute run in one transaction, so
// the derived columns always match the review rows even under concurrent
// reviews of the same book.
func (h *Handlers) AddReview(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	bookID := c.Param("id")

	var input AddReviewInput
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

	// 1. --- The book must exist; lock it for the recompute ---
	var lockedID int64
	err = tx.QueryRow("SELECT id FROM books WHERE id = ? FOR UPDATE", bookID).Scan(&lockedID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Book not found"})
			return
		}
		h.internalError(c, "failed to fetch book for review", err)
		return
	}

	// 2. --- One review per (user, book) ---
	var existing int
	err = tx.QueryRow("SELECT COUNT(*) FROM reviews WHERE user_id = ? AND book_id = ?", userID, lockedID).Scan(&existing)
	if err != nil {
		h.internalError(c, "failed to check existing review", err)
		return
	}
	if existing > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "You have already reviewed this book"})
		return
	}

	// 3. --- Insert Review ---
	_, err = tx.Exec(
		"INSERT INTO reviews (user_id, book_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?)",
		userID, lockedID, input.Rating, input.Comment, time.Now(),
	)
	if err != nil {
		h.internalError(c, "failed to insert review", err)
		return
	}

	// 4. --- Recompute Derived Columns ---
	var avgRating float64
	var numReviews int
	err = tx.QueryRow("SELECT AVG(rating), COUNT(*) FROM reviews WHERE book_id = ?", lockedID).Scan(&avgRating, &numReviews)
	if err != nil {
		h.internalError(c, "failed to aggregate reviews", err)
		return
	}

	_, err = tx.Exec("UPDATE books SET rating = ?, num_reviews = ? WHERE id = ?", avgRating, numReviews, lockedID)
	if err != nil {
		h.internalError(c, "failed to update book rating", err)
		return
	}

	if err := tx.Commit(); err != nil {
		h.internalError(c, "failed to commit review transaction", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Review added successfully"})
}
