package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributes annotates the request's New Relic transaction with the
// order id and any errors the handler recorded. It must run after nrgin.Middleware.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if orderID := c.Param("id"); orderID != "" {
			txn.AddAttribute("order_id", orderID)
		}
		if op := c.Param("op"); op != "" {
			txn.AddAttribute("operation", op)
		}

		c.Next()

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
