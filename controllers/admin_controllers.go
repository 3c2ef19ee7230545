package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
	"github.com/yeremiapane/table-order/views"
)

type AdminController struct {
	Feed FeedReader
	Now  func() time.Time
}

func NewAdminController(feed FeedReader) *AdminController {
	return &AdminController{Feed: feed, Now: time.Now}
}

func (ac *AdminController) report(c *gin.Context) (views.AdminReport, bool) {
	w, err := views.ParseWindow(c.Query("window"))
	if err != nil {
		respondServiceError(c, err)
		return views.AdminReport{}, false
	}
	return views.Admin(ac.Feed.Snapshot(), w, ac.Now()), true
}

// GetReport -> completed orders and revenue for today, this week or this month
func (ac *AdminController) GetReport(c *gin.Context) {
	report, ok := ac.report(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Orders report", gin.H{
		"loading": ac.Feed.Loading(),
		"report":  report,
	})
}

func (ac *AdminController) GetReportPDF(c *gin.Context) {
	report, ok := ac.report(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := services.WriteReportPDF(&buf, report); err != nil {
		respondServiceError(c, err)
		return
	}
	filename := fmt.Sprintf("orders-%s-%s.pdf", report.Window, report.From.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
