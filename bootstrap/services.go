package bootstrap

import (
	"time"

	"spinwheel/app/services"
	"spinwheel/pkg/app"
	"spinwheel/pkg/chain"
	"spinwheel/pkg/config"
	"spinwheel/pkg/database"
	"spinwheel/pkg/lock"
	"spinwheel/pkg/logger"
	"spinwheel/pkg/queue"
	"spinwheel/pkg/redis"
	"spinwheel/pkg/wheel"
)

// SetupServices wires the services. retrier may be nil when there is no
// payout queue.
func SetupServices(client *chain.Client, retrier *queue.QueueService) *services.Container {
	prizes := wheel.DefaultPrizeTable()
	if raw := config.GetString("wheel.prizes"); raw != "" {
		t, err := wheel.ParsePrizeTable(raw)
		if err != nil {
			panic(err)
		}
		prizes = t
	}

	packs := wheel.DefaultPackTable()
	if raw := config.GetString("wheel.packs"); raw != "" {
		t, err := wheel.ParsePackTable(raw)
		if err != nil {
			panic(err)
		}
		packs = t
	}

	deps := services.Deps{
		DB:                 database.DB,
		Locker:             setupLocker(),
		Clock:              wheel.SystemClock{Loc: app.Location()},
		Rand:               wheel.NewLockedRand(time.Now().UnixNano()),
		Prizes:             prizes,
		Packs:              packs,
		Sender:             client,
		Verifier:           client,
		DistributionWallet: client.Wallet(),
		TokenAddress:       client.Token(),
		ReferralBonus:      config.GetInt("wheel.referral_bonus"),
		ShareBonus:         config.GetInt("wheel.share_bonus"),
		ShareCooldown:      time.Duration(config.GetInt("wheel.share_cooldown_days")) * 24 * time.Hour,
		MaxPayoutAttempt:   config.GetInt("wheel.max_payout_attempts"),
		PayoutClaimTTL:     time.Duration(config.GetInt("wheel.payout_claim_minutes")) * time.Minute,
	}
	if retrier != nil {
		deps.Retrier = retrier
		deps.Queue = retrier
	}

	logger.InfoString("Services", "Setup", "wheel ready, timezone "+app.Location().String())
	return services.NewContainer(deps)
}

func setupLocker() lock.Locker {
	if config.GetString("app.lock_driver") == "redis" && redis.Redis != nil {
		return lock.NewRedis(redis.Redis.Client, config.GetString("redis.prefix"), 30*time.Second)
	}
	return lock.NewLocal()
}
