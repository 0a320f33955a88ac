package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	v1 "spinwheel/app/http/controllers/api/v1"
	"spinwheel/app/services"
	"spinwheel/pkg/response"
)

type ReportController struct {
	report *services.ReportService
}

func NewReportController(c *services.Container) *ReportController {
	return &ReportController{report: c.Report}
}

// Show returns the token ledger and activity counts.
// GET /v1/admin/report
func (rc *ReportController) Show(c *gin.Context) {
	report, err := rc.report.Report(c.Request.Context())
	if err != nil {
		response.ServerError(c, err)
		return
	}
	response.Data(c, report)
}

// Payouts lists the token payouts of one wallet with their transfer state.
// GET /v1/admin/payouts/:wallet
func (rc *ReportController) Payouts(c *gin.Context) {
	payouts, err := rc.report.Payouts(c.Request.Context(), c.Param("wallet"), cast.ToInt(c.Query("limit")))
	if err != nil {
		v1.Fail(c, err, nil)
		return
	}
	response.Data(c, gin.H{"payouts": payouts})
}
