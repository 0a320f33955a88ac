package wheel

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	v1 "spinwheel/app/http/controllers/api/v1"
	"spinwheel/app/requests"
	"spinwheel/app/services"
	"spinwheel/pkg/response"
)

type WheelController struct {
	wheel *services.WheelService
	share *services.ShareTaskService
}

func NewWheelController(c *services.Container) *WheelController {
	return &WheelController{wheel: c.Wheel, share: c.Share}
}

// Connect registers a wallet.
// POST /v1/wheel/connect
func (wc *WheelController) Connect(c *gin.Context) {
	req, err := requests.ValidateConnect(c)
	if err != nil {
		v1.Invalid(c, err)
		return
	}

	result, err := wc.wheel.Connect(c.Request.Context(), req.Wallet, req.Referrer)
	if err != nil {
		v1.Fail(c, err, nil)
		return
	}
	response.Data(c, result)
}

// Status reports the spins available to a wallet.
// GET /v1/wheel/users/:wallet
func (wc *WheelController) Status(c *gin.Context) {
	status, err := wc.wheel.Status(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		v1.Fail(c, err, nil)
		return
	}
	response.Data(c, status)
}

// Spin plays one spin. When the prize transfer fails the body still carries
// the prize, with status 502.
// POST /v1/wheel/spin
func (wc *WheelController) Spin(c *gin.Context) {
	req, err := requests.ValidateWallet(c)
	if err != nil {
		v1.Invalid(c, err)
		return
	}

	result, err := wc.wheel.Spin(c.Request.Context(), req.Wallet)
	if err != nil {
		v1.Fail(c, err, result)
		return
	}
	response.Data(c, result)
}

// Prizes lists the item prizes of a wallet.
// GET /v1/wheel/users/:wallet/prizes?page=1&page_size=10
func (wc *WheelController) Prizes(c *gin.Context) {
	page := cast.ToInt(c.DefaultQuery("page", "1"))
	pageSize := cast.ToInt(c.DefaultQuery("page_size", "10"))

	result, err := wc.wheel.Prizes(c.Request.Context(), c.Param("wallet"), page, pageSize)
	if err != nil {
		v1.Fail(c, err, nil)
		return
	}
	response.Data(c, result)
}

// PrizeTable shows the wheel with each prize's odds.
// GET /v1/wheel/prizes
func (wc *WheelController) PrizeTable(c *gin.Context) {
	table := wc.wheel.PrizeTable()

	type entry struct {
		Label  string  `json:"label"`
		Kind   string  `json:"kind"`
		Amount int64   `json:"amount,omitempty"`
		Chance float64 `json:"chance_percent"`
	}
	entries := make([]entry, 0, len(table.Entries))
	for _, p := range table.Entries {
		entries = append(entries, entry{
			Label:  p.Label,
			Kind:   string(p.Kind),
			Amount: p.Amount,
			Chance: table.Probability(p.Label),
		})
	}
	response.Data(c, entries)
}

// ShareTask grants the weekly sharing bonus.
// POST /v1/wheel/share-task
func (wc *WheelController) ShareTask(c *gin.Context) {
	req, err := requests.ValidateWallet(c)
	if err != nil {
		v1.Invalid(c, err)
		return
	}

	result, err := wc.share.Claim(c.Request.Context(), req.Wallet)
	if err != nil {
		var (
			data interface{}
			cd   *services.CooldownError
		)
		if errors.As(err, &cd) {
			data = gin.H{"retry_in_seconds": int64(cd.Remaining.Seconds())}
		}
		v1.Fail(c, err, data)
		return
	}
	response.Data(c, result)
}
