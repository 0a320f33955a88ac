package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/go-resty/resty/v2"

	"spinwheel/pkg/logger"
)

// GasOracle prices legacy transactions. With a gas station URL it uses the
// station's standard max fee; otherwise, or when the station fails, it takes
// the node's suggestion scaled by percent.
type GasOracle struct {
	client  *resty.Client
	url     string
	percent int64
}

// gasStationResponse follows the Polygon gas station v2 format, fees in gwei.
type gasStationResponse struct {
	Standard struct {
		MaxFee float64 `json:"maxFee"`
	} `json:"standard"`
}

// NewGasOracle returns an oracle; percent 0 means 120.
func NewGasOracle(url string, percent int64) *GasOracle {
	if percent <= 0 {
		percent = 120
	}
	return &GasOracle{
		client: resty.New().
			SetTimeout(5 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond),
		url:     url,
		percent: percent,
	}
}

// GasPrice returns the price in wei to use for the next transaction.
func (o *GasOracle) GasPrice(ctx context.Context, backend Backend) (*big.Int, error) {
	if o.url != "" {
		price, err := o.fromStation(ctx)
		if err == nil {
			return price, nil
		}
		logger.WarnString("Chain", "GasStation", err.Error())
	}

	base, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	price := new(big.Int).Mul(base, big.NewInt(o.percent))
	return price.Div(price, big.NewInt(100)), nil
}

func (o *GasOracle) fromStation(ctx context.Context) (*big.Int, error) {
	var body gasStationResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(o.url)
	if err != nil {
		return nil, fmt.Errorf("gas station request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gas station status %d", resp.StatusCode())
	}
	if body.Standard.MaxFee <= 0 {
		return nil, fmt.Errorf("gas station returned no fee")
	}

	gwei := new(big.Float).SetFloat64(body.Standard.MaxFee)
	wei, _ := new(big.Float).Mul(gwei, big.NewFloat(1e9)).Int(nil)
	return wei, nil
}
