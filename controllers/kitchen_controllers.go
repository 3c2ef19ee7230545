package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
	"github.com/yeremiapane/table-order/views"
)

// FeedReader is the cached order collection the role views filter.
type FeedReader interface {
	Snapshot() []models.Order
	Loading() bool
}

type KitchenController struct {
	Feed   FeedReader
	Orders *services.OrderService
}

func NewKitchenController(feed FeedReader, orders *services.OrderService) *KitchenController {
	return &KitchenController{Feed: feed, Orders: orders}
}

func (kc *KitchenController) GetBoard(c *gin.Context) {
	board := views.Kitchen(kc.Feed.Snapshot())
	utils.RespondJSON(c, http.StatusOK, "Kitchen board", gin.H{
		"loading":   kc.Feed.Loading(),
		"pending":   board.Pending,
		"preparing": board.Preparing,
	})
}

// Move drops an order into a lane of the board.
func (kc *KitchenController) Move(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Lane views.Lane `json:"lane" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, changed, err := kc.Orders.AdvanceOrderStatus(c.Request.Context(), id, func(o models.Order) (models.OrderStatus, error) {
		return views.KitchenMove(o, body.Lane)
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !changed {
		utils.RespondJSON(c, http.StatusOK, "Order unchanged", order)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order moved", order)
}

func (kc *KitchenController) Complete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, _, err := kc.Orders.AdvanceOrderStatus(c.Request.Context(), id, views.KitchenComplete)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Printf("Order #%d for table %d completed", order.ID, order.TableNumber)
	utils.RespondJSON(c, http.StatusOK, "Order completed", order)
}
