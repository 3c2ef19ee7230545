package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
	"github.com/yeremiapane/table-order/views"
)

type WaiterController struct {
	Feed   FeedReader
	Orders *services.OrderService
}

func NewWaiterController(feed FeedReader, orders *services.OrderService) *WaiterController {
	return &WaiterController{Feed: feed, Orders: orders}
}

// GetOpenTables lists orders whose table is still seated.
func (wc *WaiterController) GetOpenTables(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Open tables", gin.H{
		"loading": wc.Feed.Loading(),
		"orders":  views.Waiter(wc.Feed.Snapshot()),
	})
}

func (wc *WaiterController) Close(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, _, err := wc.Orders.AdvanceTableStatus(c.Request.Context(), id, views.WaiterClose)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table closed", order)
}

func (wc *WaiterController) Served(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := wc.Orders.MarkServed(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order served", order)
}
