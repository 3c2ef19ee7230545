package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

type MenuController struct {
	Menu *services.MenuService
}

func NewMenuController(menu *services.MenuService) *MenuController {
	return &MenuController{Menu: menu}
}

// GetMenu returns the catalog grouped by category.
func (mc *MenuController) GetMenu(c *gin.Context) {
	grouped, err := mc.Menu.Grouped(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", grouped)
}

func (mc *MenuController) GetMenuByCategory(c *gin.Context) {
	items, err := mc.Menu.ByCategory(c.Request.Context(), models.Category(c.Param("category")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu items", items)
}
