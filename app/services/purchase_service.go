package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"spinwheel/app/models/purchase"
	"spinwheel/app/models/user"
	"spinwheel/app/repositories"
	"spinwheel/pkg/chain"
	"spinwheel/pkg/logger"
	"spinwheel/pkg/metrics"
	"spinwheel/pkg/wheel"
)

// PurchaseService turns on-chain payments into extra spins, at most once per
// transaction hash.
type PurchaseService struct {
	deps      Deps
	users     *repositories.UserRepository
	purchases *repositories.PurchaseRepository
}

func NewPurchaseService(d Deps) *PurchaseService {
	d = d.withDefaults()
	return &PurchaseService{
		deps:      d,
		users:     repositories.NewUserRepository(d.DB),
		purchases: repositories.NewPurchaseRepository(d.DB),
	}
}

// Quote tells a player what to pay for a pack and where.
type Quote struct {
	wheel.Pack
	PayTo string `json:"pay_to"`
	Token string `json:"token"`
}

// PurchaseResult is a credited purchase.
type PurchaseResult struct {
	TxHash     string `json:"tx_hash"`
	Spins      int    `json:"spins"`
	Cost       int64  `json:"cost"`
	ExtraSpins int    `json:"extra_spins"`
}

// Packs lists the packs on sale.
func (s *PurchaseService) Packs() []Quote {
	quotes := make([]Quote, 0, len(s.deps.Packs.Packs))
	for _, p := range s.deps.Packs.Packs {
		quotes = append(quotes, Quote{Pack: p, PayTo: s.deps.DistributionWallet, Token: s.deps.TokenAddress})
	}
	return quotes
}

// Quote returns the pack of the given size.
func (s *PurchaseService) Quote(spins int) (*Quote, error) {
	p, err := s.deps.Packs.BySpins(spins)
	if err != nil {
		return nil, err
	}
	return &Quote{Pack: p, PayTo: s.deps.DistributionWallet, Token: s.deps.TokenAddress}, nil
}

// Confirm verifies that txHash pays for a pack and credits wallet. spins
// selects the pack; 0 picks the pack matching the amount paid.
func (s *PurchaseService) Confirm(ctx context.Context, wallet, txHash string, spins int) (*PurchaseResult, error) {
	result, err := s.confirm(ctx, wallet, txHash, spins)
	metrics.RecordPurchase(string(purchase.SourceManual), purchaseOutcome(err))
	return result, err
}

func (s *PurchaseService) confirm(ctx context.Context, wallet, txHash string, spins int) (*PurchaseResult, error) {
	wallet = user.NormalizeWallet(wallet)
	if wallet == "" {
		return nil, ErrInvalidWallet
	}
	hash := purchase.NormalizeTxHash(txHash)
	if hash == "" {
		return nil, ErrInvalidTxHash
	}
	if s.deps.Verifier == nil {
		return nil, errors.New("no transaction verifier configured")
	}

	// cheap rejection of replays before touching the chain
	used, err := s.purchases.Exists(ctx, hash)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrDuplicateTransaction
	}

	var pack wheel.Pack
	if spins > 0 {
		if pack, err = s.deps.Packs.BySpins(spins); err != nil {
			return nil, err
		}
	} else {
		t, err := s.deps.Verifier.Inspect(ctx, hash)
		if err != nil {
			return nil, verificationError(err)
		}
		if pack, err = s.packForTransfer(t); err != nil {
			return nil, err
		}
	}

	if _, err := s.deps.Verifier.Verify(ctx, wallet, hash, pack.Cost); err != nil {
		return nil, verificationError(err)
	}

	return s.credit(ctx, wallet, hash, pack, purchase.SourceManual)
}

// CreditObserved credits a payment seen by the deposit watcher. The sender
// must be a connected player and the amount must match a pack exactly.
func (s *PurchaseService) CreditObserved(ctx context.Context, t chain.Transfer) (*PurchaseResult, error) {
	result, err := s.creditObserved(ctx, t)
	metrics.RecordPurchase(string(purchase.SourceWatcher), purchaseOutcome(err))
	return result, err
}

func (s *PurchaseService) creditObserved(ctx context.Context, t chain.Transfer) (*PurchaseResult, error) {
	hash := purchase.NormalizeTxHash(t.TxHash)
	if hash == "" {
		return nil, ErrInvalidTxHash
	}
	u, err := s.users.GetByWallet(ctx, t.From.Hex())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	pack, err := s.packForTransfer(&t)
	if err != nil {
		return nil, err
	}
	return s.credit(ctx, u.WalletAddress, hash, pack, purchase.SourceWatcher)
}

func (s *PurchaseService) packForTransfer(t *chain.Transfer) (wheel.Pack, error) {
	if !t.Exact {
		return wheel.Pack{}, fmt.Errorf("%w: paid a fractional amount", ErrUnknownPack)
	}
	return s.deps.Packs.ByCost(t.Amount)
}

// credit consumes hash, adds the spins and books the cost in one transaction.
func (s *PurchaseService) credit(ctx context.Context, wallet, hash string, pack wheel.Pack, source purchase.Source) (*PurchaseResult, error) {
	unlock, err := s.deps.Locker.Lock(ctx, wallet)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &PurchaseResult{TxHash: hash, Spins: pack.Spins, Cost: pack.Cost}
	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchases := repositories.NewPurchaseRepository(tx)
		users := repositories.NewUserRepository(tx)

		u, _, err := users.FirstOrCreate(ctx, wallet)
		if err != nil {
			return err
		}

		err = purchases.Create(ctx, &purchase.ConsumedTransaction{
			TxHash:        hash,
			UserID:        u.ID,
			WalletAddress: wallet,
			Spins:         pack.Spins,
			Cost:          pack.Cost,
			Source:        source,
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateTransaction
		}
		if err != nil {
			return err
		}

		if err := users.AddExtraSpins(ctx, u.ID, pack.Spins); err != nil {
			return err
		}
		if err := repositories.NewCounterRepository(tx).AddIn(ctx, pack.Cost); err != nil {
			return err
		}
		result.ExtraSpins = u.ExtraSpins + pack.Spins
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTokensIn(pack.Cost)
	logger.InfoString("Purchase", string(source), fmt.Sprintf("%s bought %d spins for %d, tx %s", wallet, pack.Spins, pack.Cost, hash))
	return result, nil
}

func verificationError(err error) error {
	if errors.Is(err, chain.ErrInvalidTransfer) {
		return fmt.Errorf("%w: %v", ErrTransactionVerificationFailed, err)
	}
	return err
}

func purchaseOutcome(err error) string {
	switch {
	case err == nil:
		return "credited"
	case errors.Is(err, ErrDuplicateTransaction):
		return "duplicate"
	case errors.Is(err, ErrTransactionVerificationFailed), errors.Is(err, ErrUnknownPack),
		errors.Is(err, ErrInvalidTxHash), errors.Is(err, ErrInvalidWallet), errors.Is(err, ErrUserNotFound):
		return "invalid"
	default:
		return "error"
	}
}
