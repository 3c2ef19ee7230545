package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

type PaymentController struct {
	Payments *services.PaymentService
	Menu     *services.MenuService
}

func NewPaymentController(payments *services.PaymentService, menu *services.MenuService) *PaymentController {
	return &PaymentController{Payments: payments, Menu: menu}
}

// CreatePreference prices the lines from the catalog and asks the provider
// for a checkout preference.
func (pc *PaymentController) CreatePreference(c *gin.Context) {
	var body struct {
		Items []services.LineItemInput `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	items := make([]services.PaymentItem, 0, len(body.Items))
	for _, in := range body.Items {
		if in.MenuItemID == 0 || in.Quantity <= 0 {
			continue
		}
		m, err := pc.Menu.GetMenuItem(ctx, in.MenuItemID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		items = append(items, services.PaymentItem{
			MenuItemID: m.ID,
			Name:       m.Name,
			Price:      m.Price,
			Quantity:   in.Quantity,
		})
	}

	pref, err := pc.Payments.CreatePreference(ctx, items)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			code = http.StatusBadGateway
		}
		utils.ErrorLogger.Printf("payment preference failed: %v", err)
		utils.RespondError(c, code, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Payment preference created", pref)
}
