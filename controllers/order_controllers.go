package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
	"github.com/yeremiapane/table-order/views"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// GetAllOrders -> every order with its items, newest first
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.Orders.FetchAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := oc.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// CreateOrder opens the table's tab. Prices come from the catalog.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body struct {
		TableNumber int                      `json:"table_number" binding:"required"`
		Items       []services.LineItemInput `json:"items"`
		Method      string                   `json:"method"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(c.Request.Context(), body.TableNumber, body.Items, body.Method)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

func (oc *OrderController) GetActiveOrder(c *gin.Context) {
	table, ok := paramTable(c)
	if !ok {
		return
	}
	order, err := oc.Orders.ActiveOrder(c.Request.Context(), table)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Open order", order)
}

// ModifyOrder appends items to the table's open order.
func (oc *OrderController) ModifyOrder(c *gin.Context) {
	table, ok := paramTable(c)
	if !ok {
		return
	}
	var body struct {
		Items []services.LineItemInput `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.ModifyOrder(c.Request.Context(), table, body.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateOrderStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

func (oc *OrderController) UpdateTableStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		StatusTable models.TableStatus `json:"status_table" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateTableStatus(c.Request.Context(), id, body.StatusTable)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table status updated", order)
}

func (oc *OrderController) CountOrders(c *gin.Context) {
	n, err := oc.Orders.CountOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order count", gin.H{"count": n})
}

func (oc *OrderController) ListenToUpdates(c *gin.Context) {
	stamps, err := oc.Orders.ListenToUpdates(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updates", stamps)
}

// Changes compares the caller's last seen count and update time with the
// current ones, for clients that poll instead of holding a websocket.
func (oc *OrderController) Changes(c *gin.Context) {
	var prev views.Baseline
	if s := c.Query("count"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("count must be an integer"))
			return
		}
		prev.Count = n
	}
	if s := c.Query("since"); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("since must be an RFC3339 timestamp"))
			return
		}
		prev.Latest = t
	}

	ctx := c.Request.Context()
	count, err := oc.Orders.CountOrders(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	stamps, err := oc.Orders.ListenToUpdates(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	cur := views.Baseline{Count: count}
	if len(stamps) > 0 {
		cur.Latest = stamps[0]
	}

	utils.RespondJSON(c, http.StatusOK, "Order changes", gin.H{
		"changes":  views.DetectChanges(prev, cur),
		"baseline": cur,
	})
}
