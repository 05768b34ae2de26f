// Package client is a typed Go client for the bookshop API. It covers the
// same request flows as the browser application: catalog browsing, reviews,
// cart checkout, profile and order history, and the admin back office.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/readnow/bookshop-api/internal/models"
)

// APIError is any non-2xx response, carrying the server's message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to one bookshop API server. The zero value is not usable;
// construct with New.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	token string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken sets the bearer credential used on authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// do sends one request and decodes the response into out (unless out is nil).
// Non-2xx responses become *APIError.
func (c *Client) do(method, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Message == "" {
			errBody.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

//
// --- Auth ---
//

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
}

// Register creates an account and stores the returned token on the client.
func (c *Client) Register(name, email, password string) (models.User, error) {
	var resp authResponse
	err := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	}, &resp)
	if err != nil {
		return models.User{}, err
	}
	c.token = resp.Token
	return resp.User, nil
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(email, password string) (models.User, error) {
	var resp authResponse
	err := c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &resp)
	if err != nil {
		return models.User{}, err
	}
	c.token = resp.Token
	return resp.User, nil
}

func (c *Client) Me() (models.User, error) {
	var resp struct {
		User models.User `json:"user"`
	}
	err := c.do(http.MethodGet, "/api/auth/me", nil, &resp)
	return resp.User, err
}

func (c *Client) UpdateProfile(name, email string) (models.User, error) {
	var resp struct {
		User models.User `json:"user"`
	}
	err := c.do(http.MethodPut, "/api/auth/profile", map[string]string{
		"name": name, "email": email,
	}, &resp)
	return resp.User, err
}

//
// --- Catalog ---
//

// ListBooksOptions mirrors the /api/books query parameters; zero values are
// omitted from the request.
type ListBooksOptions struct {
	Category string
	Search   string
	MinPrice float64
	MaxPrice float64
	SortBy   string // title, price, rating, createdAt
	Featured bool
	Page     int
	Limit    int
}

type BooksPage struct {
	Books      []models.Book     `json:"books"`
	Pagination models.Pagination `json:"pagination"`
}

func (c *Client) ListBooks(opts ListBooksOptions) (BooksPage, error) {
	params := url.Values{}
	if opts.Category != "" {
		params.Set("category", opts.Category)
	}
	if opts.Search != "" {
		params.Set("search", opts.Search)
	}
	if opts.MinPrice > 0 {
		params.Set("minPrice", strconv.FormatFloat(opts.MinPrice, 'f', -1, 64))
	}
	if opts.MaxPrice > 0 {
		params.Set("maxPrice", strconv.FormatFloat(opts.MaxPrice, 'f', -1, 64))
	}
	if opts.SortBy != "" {
		params.Set("sortBy", opts.SortBy)
	}
	if opts.Featured {
		params.Set("featured", "true")
	}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	path := "/api/books"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page BooksPage
	err := c.do(http.MethodGet, path, nil, &page)
	return page, err
}

func (c *Client) GetBook(id int64) (models.Book, error) {
	var book models.Book
	err := c.do(http.MethodGet, fmt.Sprintf("/api/books/%d", id), nil, &book)
	return book, err
}

func (c *Client) ListReviews(bookID int64) ([]models.Review, error) {
	var reviews []models.Review
	err := c.do(http.MethodGet, fmt.Sprintf("/api/books/%d/reviews", bookID), nil, &reviews)
	return reviews, err
}

func (c *Client) AddReview(bookID int64, rating int, comment string) error {
	return c.do(http.MethodPost, fmt.Sprintf("/api/books/%d/reviews", bookID), map[string]interface{}{
		"rating": rating, "comment": comment,
	}, nil)
}

//
// --- Orders ---
//

type OrderItemRequest struct {
	Book     int64 `json:"book"`
	Quantity int   `json:"quantity"`
}

type OrderRequest struct {
	Items           []OrderItemRequest     `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	TotalAmount     float64                `json:"totalAmount"`
}

type OrderConfirmation struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

func (c *Client) PlaceOrder(req OrderRequest) (OrderConfirmation, error) {
	var conf OrderConfirmation
	err := c.do(http.MethodPost, "/api/orders", req, &conf)
	return conf, err
}

func (c *Client) MyOrders() ([]models.Order, error) {
	var orders []models.Order
	err := c.do(http.MethodGet, "/api/orders/my-orders", nil, &orders)
	return orders, err
}

func (c *Client) GetOrder(id int64) (models.Order, error) {
	var order models.Order
	err := c.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", id), nil, &order)
	return order, err
}

//
// --- Admin ---
//

type AdminStats struct {
	TotalBooks   int     `json:"totalBooks"`
	TotalUsers   int     `json:"totalUsers"`
	TotalOrders  int     `json:"totalOrders"`
	TotalRevenue float64 `json:"totalRevenue"`
}

func (c *Client) AdminStats() (AdminStats, error) {
	var stats AdminStats
	err := c.do(http.MethodGet, "/api/admin/stats", nil, &stats)
	return stats, err
}

type BookInput struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image,omitempty"`
	Featured    bool    `json:"featured"`
}

func (c *Client) AdminListBooks() ([]models.Book, error) {
	var resp struct {
		Books []models.Book `json:"books"`
	}
	err := c.do(http.MethodGet, "/api/admin/books", nil, &resp)
	return resp.Books, err
}

func (c *Client) AdminCreateBook(input BookInput) (models.Book, error) {
	var resp struct {
		Book models.Book `json:"book"`
	}
	err := c.do(http.MethodPost, "/api/admin/books", input, &resp)
	return resp.Book, err
}

func (c *Client) AdminUpdateBook(id int64, fields map[string]interface{}) (models.Book, error) {
	var resp struct {
		Book models.Book `json:"book"`
	}
	err := c.do(http.MethodPut, fmt.Sprintf("/api/admin/books/%d", id), fields, &resp)
	return resp.Book, err
}

func (c *Client) AdminDeleteBook(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/admin/books/%d", id), nil, nil)
}

func (c *Client) AdminListUsers() ([]models.User, error) {
	var users []models.User
	err := c.do(http.MethodGet, "/api/admin/users", nil, &users)
	return users, err
}

func (c *Client) AdminUpdateUserRole(id int64, role string) error {
	return c.do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", id), map[string]string{"role": role}, nil)
}

func (c *Client) AdminListOrders() ([]models.Order, error) {
	var orders []models.Order
	err := c.do(http.MethodGet, "/api/admin/orders", nil, &orders)
	return orders, err
}

func (c *Client) AdminUpdateOrderStatus(id int64, status string) error {
	return c.do(http.MethodPut, fmt.Sprintf("/api/admin/orders/%d/status", id), map[string]string{"status": status}, nil)
}
