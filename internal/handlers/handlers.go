package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers holds all dependencies for the HTTP handlers.
type Handlers struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// Execer is the subset of *sql.DB and *sql.Tx used by helpers that write,
// so they can run in or out of a transaction.
type Execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// internalError logs the underlying failure with full detail and replies with
// a generic 500. Internal detail never reaches the caller.
func (h *Handlers) internalError(c *gin.Context, msg string, err error) {
	h.Logger.Error(msg, "error", err, "method", c.Request.Method, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong!"})
}
