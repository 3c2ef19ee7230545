package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/cart"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

// CartController serves the diner's page for one table.
type CartController struct {
	Carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{Carts: carts}
}

type cartView struct {
	Lines []cart.Line `json:"lines"`
	Total string      `json:"total"`
}

func respondCart(c *gin.Context, message string, ct *cart.Cart) {
	utils.RespondJSON(c, http.StatusOK, message, cartView{Lines: ct.Lines, Total: ct.Total().String()})
}

func (cc *CartController) GetCart(c *gin.Context) {
	table, ok := paramTable(c)
	if !ok {
		return
	}
	ct, err := cc.Carts.Get(c.Request.Context(), table)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCart(c, "Cart", ct)
}

func (cc *CartController) AddItem(c *gin.Context) {
	table, ok := paramTable(c)
	if !ok {
		return
	}
	var body struct {
		MenuItemID uint `json:"menu_item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ct, err := cc.Carts.AddItem(c.Request.Context(), table, body.MenuItemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCart(c, "Item added", ct)
}

func (cc *CartController) ChangeQuantity(c *gin.Context) {
	table, ok := paramTable(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "menu_item_id")
	if !ok {
		return
	}
	var body struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ct, err := cc.Carts.ChangeQuantity(c.Request.Context(), table, id, body.Delta)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCart(c, "Quantity updated", ct)
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	table, ok := paramTable(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "menu_item_id")
	if !ok {
		return
	}

	ct, err := cc.Carts.RemoveItem(c.Request.Context(), table, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCart(c, "Item removed", ct)
}

// Submit creates the table's order, or amends it when the tab is open.
func (cc *CartController) Submit(c *gin.Context) {
	table, ok := paramTable(c)
	if !ok {
		return
	}
	var body struct {
		Method string `json:"method"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}

	order, created, err := cc.Carts.Submit(c.Request.Context(), table, body.Method)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if created {
		utils.RespondJSON(c, http.StatusCreated, "Order created", order)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}
