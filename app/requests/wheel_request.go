package requests

import (
	"github.com/gin-gonic/gin"
	"github.com/thedevsaddam/govalidator"
)

const (
	walletRule = "regex:^0x[0-9a-fA-F]{40}$"
	txHashRule = "regex:^(0x|0X)?[0-9a-fA-F]{64}$"
)

// WalletRequest identifies the player.
type WalletRequest struct {
	Wallet string `json:"wallet_address"`
}

// ConnectRequest registers a wallet, optionally with the inviting wallet.
type ConnectRequest struct {
	Wallet   string `json:"wallet_address"`
	Referrer string `json:"referrer"`
}

// PurchaseRequest claims a pack paid by TxHash. Spins 0 lets the amount
// paid pick the pack.
type PurchaseRequest struct {
	Wallet string `json:"wallet_address"`
	TxHash string `json:"tx_hash"`
	Spins  int    `json:"spins"`
}

var walletMessages = []string{
	"required:wallet_address is required",
	"regex:wallet_address must be a 0x-prefixed 20-byte hex address",
}

func ValidateWallet(c *gin.Context) (WalletRequest, error) {
	return ValidateRequest[WalletRequest](c,
		govalidator.MapData{"wallet_address": []string{"required", walletRule}},
		govalidator.MapData{"wallet_address": walletMessages},
	)
}

func ValidateConnect(c *gin.Context) (ConnectRequest, error) {
	rules := govalidator.MapData{
		"wallet_address": []string{"required", walletRule},
		"referrer":       []string{walletRule},
	}
	messages := govalidator.MapData{
		"wallet_address": walletMessages,
		"referrer":       []string{"regex:referrer must be a 0x-prefixed 20-byte hex address"},
	}
	return ValidateRequest[ConnectRequest](c, rules, messages)
}

func ValidatePurchase(c *gin.Context) (PurchaseRequest, error) {
	rules := govalidator.MapData{
		"wallet_address": []string{"required", walletRule},
		"tx_hash":        []string{"required", txHashRule},
		"spins":          []string{"numeric_between:0,1000"},
	}
	messages := govalidator.MapData{
		"wallet_address": walletMessages,
		"tx_hash": []string{
			"required:tx_hash is required",
			"regex:tx_hash must be a 32-byte hex hash",
		},
		"spins": []string{"numeric_between:spins must be between 0 and 1000"},
	}
	return ValidateRequest[PurchaseRequest](c, rules, messages)
}
