package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/lendora/internal/account/domain"
	orderdomain "github.com/smallbiznis/lendora/internal/order/domain"
	"github.com/smallbiznis/lendora/internal/period"
)

func (s *Server) getOrder(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		AbortWithError(c, orderdomain.ErrNotFound)
		return
	}
	order, err := s.orders.GetByChatID(c.Request.Context(), chatID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) listGroupOrders(c *gin.Context) {
	orders, err := s.orders.ListByGroupID(c.Request.Context(), c.Param("group_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) getTotals(c *gin.Context) {
	totals, err := s.ledger.Totals(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// getDailyRows returns the rows for ?period=YYYY-MM-DD, defaulting to the
// current accounting period.
func (s *Server) getDailyRows(c *gin.Context) {
	key := period.Key(c.Query("period"))
	if key == "" {
		key = s.periods.Current()
	}
	rows, err := s.ledger.DailyRows(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": key, "rows": rows})
}

func (s *Server) getGroupRows(c *gin.Context) {
	rows, err := s.ledger.GroupRows(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (s *Server) listAccounts(c *gin.Context) {
	if raw := c.Query("type"); raw != "" {
		accounts, err := s.accounts.ListByType(c.Request.Context(), accountdomain.Type(raw))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"accounts": accounts})
		return
	}
	accounts, err := s.accounts.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (s *Server) getAccount(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		AbortWithError(c, accountdomain.ErrNotFound)
		return
	}
	account, err := s.accounts.GetByID(c.Request.Context(), snowflake.ID(id))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *Server) listBroadcasts(c *gin.Context) {
	slots, err := s.broadcasts.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}
