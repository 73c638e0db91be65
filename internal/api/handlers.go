package api

import (
	"net/http"
	"strconv"

	"supply_go/internal/domain"

	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// OrderRequest is the body of POST /v1/orders.
type OrderRequest struct {
	Quantity uint32 `json:"quantity"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getSupply(c *gin.Context) {
	c.JSON(http.StatusOK, s.ledger.Status())
}

func (s *Server) resetSupply(c *gin.Context) {
	res, err := s.ledger.Reset(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getAccount(c *gin.Context) {
	view, err := s.ledger.AccountTotal(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// identity resolves the caller from the configured header.
// An absent header yields an anonymous caller; the order path rejects it.
func (s *Server) identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(s.identityHeader)
		if raw == "" {
			c.Set(callerKey, domain.AnonymousCaller())
			c.Next()
			return
		}
		account, err := domain.ParseAccountID(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(callerKey, domain.NewCaller(account))
		c.Next()
	}
}

func (s *Server) createOrder(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Code: CodeInvalidRequest, Message: err.Error()})
		return
	}

	caller, _ := c.MustGet(callerKey).(domain.Caller)
	receipt, err := s.ledger.Order(c.Request.Context(), caller, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (s *Server) listOrders(c *gin.Context) {
	var after uint64
	if raw := c.Query("after"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Code: CodeInvalidRequest, Message: "after must be a sequence number"})
			return
		}
		after = n
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	entries, err := s.orders.Orders(c.Request.Context(), after, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": entries})
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) listNotifications(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	items, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// queryLimit parses ?limit=, defaulting to defaultPageSize and capping at maxPageSize.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultPageSize, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Code: CodeInvalidRequest, Message: "limit must be a positive integer"})
		return 0, false
	}
	if n > maxPageSize {
		n = maxPageSize
	}
	return n, true
}
