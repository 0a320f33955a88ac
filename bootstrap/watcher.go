package bootstrap

import (
	"context"
	"time"

	"spinwheel/app/services"
	"spinwheel/pkg/chain"
	"spinwheel/pkg/config"
)

// StartWatcher polls the chain for pack payments until ctx is done. The
// returned channel closes when it has stopped.
func StartWatcher(ctx context.Context, svc *services.Container, client *chain.Client) <-chan struct{} {
	done := make(chan struct{})
	if !config.GetBool("chain.watch_enabled") {
		close(done)
		return done
	}

	w := services.NewDepositWatcher(svc.Deps, client, services.WatcherConfig{
		Interval:      time.Duration(config.GetInt("chain.watch_interval")) * time.Second,
		BatchSize:     uint64(config.GetInt64("chain.batch_blocks")),
		Confirmations: uint64(config.GetInt64("chain.confirmations")),
	})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	return done
}
