package services

import (
	"context"
	"errors"
	"testing"

	"github.com/riftarena/arena-system/models"
)

func newTestLedger() (WagerLedger, *fakeUserRepo, *fakeEscrowRepo, *fakeTransactionRepo, *fakePublisher) {
	users := newFakeUserRepo()
	escrows := newFakeEscrowRepo()
	transactions := newFakeTransactionRepo()
	publisher := newFakePublisher()
	ledger := NewWagerLedger(fakeTxRunner{}, users, escrows, transactions, publisher)
	return ledger, users, escrows, transactions, publisher
}

func TestReserveInsufficientFunds(t *testing.T) {
	ledger, users, escrows, _, _ := newTestLedger()
	users.add("alice", 30)

	_, err := ledger.Reserve(context.Background(), nil, "game-1", "alice", 50)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if got := users.points("alice"); got != 30 {
		t.Errorf("balance changed on failed reserve: got %d, want 30", got)
	}
	list, _ := escrows.ListByGame(context.Background(), nil, "game-1")
	if len(list) != 0 {
		t.Errorf("escrow created on failed reserve: %d", len(list))
	}
}

func TestReserveDebitsAndRecords(t *testing.T) {
	ledger, users, escrows, transactions, _ := newTestLedger()
	users.add("alice", 100)

	newBalance, err := ledger.Reserve(context.Background(), nil, "game-1", "alice", 40)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if newBalance != 60 {
		t.Errorf("new balance = %d, want 60", newBalance)
	}

	list, _ := escrows.ListByGame(context.Background(), nil, "game-1")
	if len(list) != 1 || list[0].Status != models.EscrowReserved || list[0].Amount != 40 {
		t.Errorf("unexpected escrows: %+v", list)
	}

	history, _ := transactions.ListByUser(context.Background(), "alice")
	if len(history) != 1 || history[0].Type != models.TransactionWagerReserve || history[0].Amount != -40 {
		t.Errorf("unexpected transactions: %+v", history)
	}
}

func TestReserveRejectsNonPositiveAmount(t *testing.T) {
	ledger, users, _, _, _ := newTestLedger()
	users.add("alice", 100)

	for _, amount := range []int{0, -10} {
		if _, err := ledger.Reserve(context.Background(), nil, "game-1", "alice", amount); !errors.Is(err, ErrValidation) {
			t.Errorf("amount %d: expected ErrValidation, got %v", amount, err)
		}
	}
}

func TestSettleSplitsPoolAcrossWinners(t *testing.T) {
	ledger, users, escrows, _, _ := newTestLedger()

	// Ten players at 20 each. The winning five split 200 into 40 each,
	// a net gain of 20 per winner.
	ctx := context.Background()
	var winners []string
	for _, id := range []string{"u01", "u02", "u03", "u04", "u05", "u06", "u07", "u08", "u09", "u10"} {
		users.add(id, 100)
		if _, err := ledger.Reserve(ctx, nil, "game-1", id, 20); err != nil {
			t.Fatalf("Reserve %s: %v", id, err)
		}
	}
	winners = []string{"u01", "u03", "u05", "u07", "u09"}

	updates, err := ledger.Settle(ctx, nil, "game-1", winners)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	for _, id := range winners {
		if got := users.points(id); got != 120 {
			t.Errorf("winner %s balance = %d, want 120", id, got)
		}
		if updates[id] != 120 {
			t.Errorf("updates[%s] = %d, want 120", id, updates[id])
		}
	}
	for _, id := range []string{"u02", "u04", "u06", "u08", "u10"} {
		if got := users.points(id); got != 80 {
			t.Errorf("loser %s balance = %d, want 80", id, got)
		}
	}

	list, _ := escrows.ListByGame(ctx, nil, "game-1")
	for _, e := range list {
		if e.Status != models.EscrowSettled {
			t.Errorf("escrow %s status = %s, want settled", e.ID, e.Status)
		}
	}
}

func TestSettleRemainderGoesToLowestUserID(t *testing.T) {
	ledger, users, _, _, _ := newTestLedger()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		users.add(id, 100)
		if _, err := ledger.Reserve(ctx, nil, "game-1", id, 25); err != nil {
			t.Fatalf("Reserve %s: %v", id, err)
		}
	}

	// Pool 100 over 3 winners: 33 each, remainder 1 to "b", the lowest
	// winner id regardless of argument order.
	if _, err := ledger.Settle(ctx, nil, "game-1", []string{"d", "c", "b"}); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if got := users.points("b"); got != 75+34 {
		t.Errorf("b balance = %d, want %d", got, 75+34)
	}
	for _, id := range []string{"c", "d"} {
		if got := users.points(id); got != 75+33 {
			t.Errorf("%s balance = %d, want %d", id, got, 75+33)
		}
	}
}

func TestSettleIsNotRepeatable(t *testing.T) {
	ledger, users, _, _, _ := newTestLedger()
	ctx := context.Background()

	users.add("alice", 100)
	users.add("bob", 100)
	for _, id := range []string{"alice", "bob"} {
		if _, err := ledger.Reserve(ctx, nil, "game-1", id, 50); err != nil {
			t.Fatalf("Reserve %s: %v", id, err)
		}
	}

	if _, err := ledger.Settle(ctx, nil, "game-1", []string{"alice"}); err != nil {
		t.Fatalf("first Settle: %v", err)
	}
	if got := users.points("alice"); got != 150 {
		t.Fatalf("alice balance after settle = %d, want 150", got)
	}

	_, err := ledger.Settle(ctx, nil, "game-1", []string{"alice"})
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second Settle: expected ErrAlreadyProcessed, got %v", err)
	}
	if got := users.points("alice"); got != 150 {
		t.Errorf("alice balance changed on repeated settle: %d", got)
	}
}

func TestSettleWithNoEscrows(t *testing.T) {
	ledger, _, _, _, _ := newTestLedger()
	_, err := ledger.Settle(context.Background(), nil, "missing", []string{"alice"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReleaseRefundsEveryReservation(t *testing.T) {
	ledger, users, escrows, transactions, _ := newTestLedger()
	ctx := context.Background()

	users.add("alice", 100)
	users.add("bob", 80)
	for _, id := range []string{"alice", "bob"} {
		if _, err := ledger.Reserve(ctx, nil, "game-1", id, 30); err != nil {
			t.Fatalf("Reserve %s: %v", id, err)
		}
	}

	updates, err := ledger.Release(ctx, nil, "game-1")
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if updates["alice"] != 100 || updates["bob"] != 80 {
		t.Errorf("unexpected updates: %v", updates)
	}

	list, _ := escrows.ListByGame(ctx, nil, "game-1")
	for _, e := range list {
		if e.Status != models.EscrowRefunded {
			t.Errorf("escrow %s status = %s, want refunded", e.ID, e.Status)
		}
	}

	history, _ := transactions.ListByUser(ctx, "alice")
	if len(history) != 2 || history[1].Type != models.TransactionWagerRefund {
		t.Errorf("unexpected alice history: %+v", history)
	}
}

func TestReleaseWithoutEscrowsIsNoop(t *testing.T) {
	ledger, _, _, _, _ := newTestLedger()
	updates, err := ledger.Release(context.Background(), nil, "empty-game")
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("expected no updates, got %v", updates)
	}
}

func TestReleaseAfterSettleConflicts(t *testing.T) {
	ledger, users, _, _, _ := newTestLedger()
	ctx := context.Background()

	users.add("alice", 100)
	if _, err := ledger.Reserve(ctx, nil, "game-1", "alice", 10); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, err := ledger.Settle(ctx, nil, "game-1", []string{"alice"}); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if _, err := ledger.Release(ctx, nil, "game-1"); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
}

func TestAdjustBalanceRejectsNegativeResult(t *testing.T) {
	ledger, users, _, _, publisher := newTestLedger()
	users.add("alice", 10)

	if _, err := ledger.AdjustBalance(context.Background(), "alice", -20, "penalty"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if got := users.points("alice"); got != 10 {
		t.Errorf("balance changed on rejected adjustment: %d", got)
	}
	if publisher.count(EventBalanceChanged) != 0 {
		t.Error("event published for rejected adjustment")
	}
}

func TestAdjustBalancePublishes(t *testing.T) {
	ledger, users, _, transactions, publisher := newTestLedger()
	users.add("alice", 10)

	newBalance, err := ledger.AdjustBalance(context.Background(), "alice", 90, "grant")
	if err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}
	if newBalance != 100 {
		t.Errorf("new balance = %d, want 100", newBalance)
	}
	if publisher.count(EventBalanceChanged) != 1 {
		t.Error("expected one balance event")
	}

	history, _ := transactions.ListByUser(context.Background(), "alice")
	if len(history) != 1 || history[0].Type != models.TransactionAdminAdjust {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestPurchaseRequiresFunds(t *testing.T) {
	ledger, users, _, _, _ := newTestLedger()
	users.add("alice", 5)

	if _, err := ledger.Purchase(context.Background(), nil, "alice", 10, "skin"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := users.points("alice"); got != 5 {
		t.Errorf("balance changed on failed purchase: %d", got)
	}
}
