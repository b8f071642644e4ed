package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/riftarena/arena-system/models"
	"github.com/riftarena/arena-system/repositories"
)

// BalanceUpdates maps user id to the balance after a ledger operation,
// so callers can publish balance events once their transaction commits.
type BalanceUpdates map[string]int

// WagerLedger is the only component that mutates point balances. Every
// balance change lands together with its escrow/transaction rows in the
// caller's transaction, or not at all.
type WagerLedger interface {
	// Reserve holds amount from the user's balance against a game.
	// Returns the balance after the hold.
	Reserve(ctx context.Context, exec repositories.SQLExecutor, gameID, userID string, amount int) (int, error)

	// Settle pools every reserved escrow of the game and splits it
	// across the winners (integer division, remainder to the lowest
	// user id). Settling a game twice fails with ErrAlreadyProcessed
	// and touches nothing.
	Settle(ctx context.Context, exec repositories.SQLExecutor, gameID string, winnerIDs []string) (BalanceUpdates, error)

	// Release refunds every reserved escrow of a game that never got
	// settled.
	Release(ctx context.Context, exec repositories.SQLExecutor, gameID string) (BalanceUpdates, error)

	// Purchase debits the user for a store redemption inside the
	// caller's transaction.
	Purchase(ctx context.Context, exec repositories.SQLExecutor, userID string, amount int, description string) (int, error)

	// AdjustBalance applies a signed admin correction in its own
	// transaction and publishes the balance event itself.
	AdjustBalance(ctx context.Context, userID string, delta int, description string) (int, error)

	History(ctx context.Context, userID string) ([]models.Transaction, error)
}

type wagerLedger struct {
	txRunner        repositories.TxRunner
	userRepo        repositories.UserRepository
	escrowRepo      repositories.EscrowRepository
	transactionRepo repositories.TransactionRepository
	publisher       EventPublisher
	userLocks       *EntityLocks
}

func NewWagerLedger(
	txRunner repositories.TxRunner,
	userRepo repositories.UserRepository,
	escrowRepo repositories.EscrowRepository,
	transactionRepo repositories.TransactionRepository,
	publisher EventPublisher,
) WagerLedger {
	return &wagerLedger{
		txRunner:        txRunner,
		userRepo:        userRepo,
		escrowRepo:      escrowRepo,
		transactionRepo: transactionRepo,
		publisher:       publisher,
		userLocks:       NewEntityLocks(),
	}
}

func (l *wagerLedger) Reserve(ctx context.Context, exec repositories.SQLExecutor, gameID, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: wager amount must be positive", ErrValidation)
	}

	unlock := l.userLocks.Lock(userID)
	defer unlock()

	user, err := l.userRepo.GetByIDForUpdate(ctx, exec, userID)
	if err != nil {
		return 0, l.mapUserErr(err)
	}
	if user.Points < amount {
		return 0, fmt.Errorf("%w: balance %d, wager %d", ErrInsufficientFunds, user.Points, amount)
	}

	newBalance := user.Points - amount
	if err := l.userRepo.UpdatePoints(ctx, exec, userID, newBalance); err != nil {
		return 0, err
	}

	escrow := &models.WagerEscrow{
		ID:     uuid.NewString(),
		GameID: gameID,
		UserID: userID,
		Amount: amount,
		Status: models.EscrowReserved,
	}
	if err := l.escrowRepo.Create(ctx, exec, escrow); err != nil {
		return 0, err
	}

	if err := l.logTransaction(ctx, exec, userID, -amount, models.TransactionWagerReserve,
		fmt.Sprintf("wager reserved for game %s", gameID)); err != nil {
		return 0, err
	}

	return newBalance, nil
}

func (l *wagerLedger) Settle(ctx context.Context, exec repositories.SQLExecutor, gameID string, winnerIDs []string) (BalanceUpdates, error) {
	if len(winnerIDs) == 0 {
		return nil, fmt.Errorf("%w: settlement requires at least one winner", ErrValidation)
	}

	escrows, err := l.escrowRepo.ListByGame(ctx, exec, gameID)
	if err != nil {
		return nil, err
	}
	if len(escrows) == 0 {
		return nil, ErrNoEscrows
	}

	pool := 0
	for _, e := range escrows {
		switch e.Status {
		case models.EscrowSettled:
			return nil, fmt.Errorf("%w: game %s was already settled", ErrAlreadyProcessed, gameID)
		case models.EscrowRefunded:
			return nil, ErrEscrowConflict
		}
		pool += e.Amount
	}

	unlock := l.userLocks.LockAll(winnerIDs)
	defer unlock()

	share := pool / len(winnerIDs)
	remainder := pool % len(winnerIDs)

	// LockAll sorted a copy; sort here too so the remainder lands on
	// the lowest user id deterministically.
	winners := sortedCopy(winnerIDs)

	updates := BalanceUpdates{}
	for i, userID := range winners {
		credit := share
		if i == 0 {
			credit += remainder
		}

		user, err := l.userRepo.GetByIDForUpdate(ctx, exec, userID)
		if err != nil {
			return nil, l.mapUserErr(err)
		}
		newBalance := user.Points + credit
		if err := l.userRepo.UpdatePoints(ctx, exec, userID, newBalance); err != nil {
			return nil, err
		}
		if err := l.logTransaction(ctx, exec, userID, credit, models.TransactionWagerWin,
			fmt.Sprintf("won game %s", gameID)); err != nil {
			return nil, err
		}
		updates[userID] = newBalance
	}

	affected, err := l.escrowRepo.UpdateStatusByGame(ctx, exec, gameID, models.EscrowReserved, models.EscrowSettled)
	if err != nil {
		return nil, err
	}
	if affected != int64(len(escrows)) {
		return nil, fmt.Errorf("settled %d of %d escrows for game %s", affected, len(escrows), gameID)
	}

	return updates, nil
}

func (l *wagerLedger) Release(ctx context.Context, exec repositories.SQLExecutor, gameID string) (BalanceUpdates, error) {
	escrows, err := l.escrowRepo.ListByGame(ctx, exec, gameID)
	if err != nil {
		return nil, err
	}
	if len(escrows) == 0 {
		// A game nobody joined has nothing to refund.
		return BalanceUpdates{}, nil
	}

	userIDs := make([]string, 0, len(escrows))
	for _, e := range escrows {
		if e.Status != models.EscrowReserved {
			return nil, ErrEscrowConflict
		}
		userIDs = append(userIDs, e.UserID)
	}

	unlock := l.userLocks.LockAll(userIDs)
	defer unlock()

	updates := BalanceUpdates{}
	for _, e := range escrows {
		user, err := l.userRepo.GetByIDForUpdate(ctx, exec, e.UserID)
		if err != nil {
			return nil, l.mapUserErr(err)
		}
		newBalance := user.Points + e.Amount
		if err := l.userRepo.UpdatePoints(ctx, exec, e.UserID, newBalance); err != nil {
			return nil, err
		}
		if err := l.logTransaction(ctx, exec, e.UserID, e.Amount, models.TransactionWagerRefund,
			fmt.Sprintf("wager refunded for game %s", gameID)); err != nil {
			return nil, err
		}
		updates[e.UserID] = newBalance
	}

	affected, err := l.escrowRepo.UpdateStatusByGame(ctx, exec, gameID, models.EscrowReserved, models.EscrowRefunded)
	if err != nil {
		return nil, err
	}
	if affected != int64(len(escrows)) {
		return nil, fmt.Errorf("refunded %d of %d escrows for game %s", affected, len(escrows), gameID)
	}

	return updates, nil
}

func (l *wagerLedger) Purchase(ctx context.Context, exec repositories.SQLExecutor, userID string, amount int, description string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: purchase amount must be positive", ErrValidation)
	}

	unlock := l.userLocks.Lock(userID)
	defer unlock()

	user, err := l.userRepo.GetByIDForUpdate(ctx, exec, userID)
	if err != nil {
		return 0, l.mapUserErr(err)
	}
	if user.Points < amount {
		return 0, fmt.Errorf("%w: balance %d, cost %d", ErrInsufficientFunds, user.Points, amount)
	}

	newBalance := user.Points - amount
	if err := l.userRepo.UpdatePoints(ctx, exec, userID, newBalance); err != nil {
		return 0, err
	}
	if err := l.logTransaction(ctx, exec, userID, -amount, models.TransactionPurchase, description); err != nil {
		return 0, err
	}

	return newBalance, nil
}

func (l *wagerLedger) AdjustBalance(ctx context.Context, userID string, delta int, description string) (int, error) {
	unlock := l.userLocks.Lock(userID)
	defer unlock()

	var newBalance int
	err := l.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		user, err := l.userRepo.GetByIDForUpdate(ctx, exec, userID)
		if err != nil {
			return l.mapUserErr(err)
		}
		newBalance = user.Points + delta
		if newBalance < 0 {
			return fmt.Errorf("%w: adjustment would make balance negative", ErrValidation)
		}
		if err := l.userRepo.UpdatePoints(ctx, exec, userID, newBalance); err != nil {
			return err
		}
		return l.logTransaction(ctx, exec, userID, delta, models.TransactionAdminAdjust, description)
	})
	if err != nil {
		return 0, err
	}

	l.publisher.BalanceChanged(userID, newBalance)
	return newBalance, nil
}

func (l *wagerLedger) History(ctx context.Context, userID string) ([]models.Transaction, error) {
	return l.transactionRepo.ListByUser(ctx, userID)
}

func (l *wagerLedger) logTransaction(ctx context.Context, exec repositories.SQLExecutor, userID string, amount int, txType models.TransactionType, description string) error {
	return l.transactionRepo.Create(ctx, exec, &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: &description,
	})
}

func (l *wagerLedger) mapUserErr(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("%w: user", ErrNotFound)
	}
	return err
}

func sortedCopy(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}
