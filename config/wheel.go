package config

import "spinwheel/pkg/config"

func init() {
	config.Add("wheel", func() map[string]interface{} {
		return map[string]interface{}{
			// "label:kind:amount:weight,..."; empty uses the built-in table
			"prizes": config.Env("WHEEL_PRIZES", ""),
			// "spins:cost,..."; empty uses 1:50,3:125,10:300
			"packs": config.Env("WHEEL_PACKS", ""),

			"referral_bonus":      config.Env("REFERRAL_BONUS", 2),
			"share_bonus":         config.Env("SHARE_BONUS", 1),
			"share_cooldown_days": config.Env("SHARE_COOLDOWN_DAYS", 7),
			"max_payout_attempts": config.Env("MAX_PAYOUT_ATTEMPTS", 5),

			// a payout claimed longer ago is released on restart
			"payout_claim_minutes": config.Env("PAYOUT_CLAIM_MINUTES", 10),
		}
	})
}
