package wheel

import (
	"github.com/gin-gonic/gin"

	v1 "spinwheel/app/http/controllers/api/v1"
	"spinwheel/app/requests"
	"spinwheel/app/services"
	"spinwheel/pkg/response"
)

type PurchaseController struct {
	purchases *services.PurchaseService
}

func NewPurchaseController(c *services.Container) *PurchaseController {
	return &PurchaseController{purchases: c.Purchases}
}

// Packs lists the packs on sale and where to pay.
// GET /v1/wheel/packs
func (pc *PurchaseController) Packs(c *gin.Context) {
	response.Data(c, pc.purchases.Packs())
}

// Store claims a paid pack.
// POST /v1/wheel/purchases
func (pc *PurchaseController) Store(c *gin.Context) {
	req, err := requests.ValidatePurchase(c)
	if err != nil {
		v1.Invalid(c, err)
		return
	}

	result, err := pc.purchases.Confirm(c.Request.Context(), req.Wallet, req.TxHash, req.Spins)
	if err != nil {
		v1.Fail(c, err, nil)
		return
	}
	response.Created(c, result, "purchase credited")
}
