package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/riftarena/arena-system/models"
	"github.com/riftarena/arena-system/repositories"
)

type CreateStoreItemInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	ItemType    string `json:"item_type"`
}

// StoreService spends points on catalog items. The debit and the
// redemption row land in the same transaction through the ledger.
type StoreService interface {
	ListItems(ctx context.Context) ([]models.StoreItem, error)
	CreateItem(ctx context.Context, actor Actor, input CreateStoreItemInput) (*models.StoreItem, error)
	Redeem(ctx context.Context, actor Actor, itemID string) (*models.Redemption, int, error)
	ListRedemptions(ctx context.Context, actor Actor) ([]models.Redemption, error)
}

type storeService struct {
	txRunner  repositories.TxRunner
	storeRepo repositories.StoreRepository
	ledger    WagerLedger
	publisher EventPublisher
}

func NewStoreService(
	txRunner repositories.TxRunner,
	storeRepo repositories.StoreRepository,
	ledger WagerLedger,
	publisher EventPublisher,
) StoreService {
	return &storeService{
		txRunner:  txRunner,
		storeRepo: storeRepo,
		ledger:    ledger,
		publisher: publisher,
	}
}

func (s *storeService) ListItems(ctx context.Context) ([]models.StoreItem, error) {
	return s.storeRepo.ListItems(ctx)
}

func (s *storeService) CreateItem(ctx context.Context, actor Actor, input CreateStoreItemInput) (*models.StoreItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrValidation)
	}
	if input.Cost <= 0 {
		return nil, fmt.Errorf("%w: item cost must be positive", ErrValidation)
	}

	item := &models.StoreItem{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Cost:        input.Cost,
		ItemType:    input.ItemType,
	}
	if err := s.storeRepo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *storeService) Redeem(ctx context.Context, actor Actor, itemID string) (*models.Redemption, int, error) {
	var (
		redemption *models.Redemption
		newBalance int
	)
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		item, err := s.storeRepo.GetItem(ctx, exec, itemID)
		if err != nil {
			if errors.Is(err, repositories.ErrStoreItemNotFound) {
				return fmt.Errorf("%w: store item", ErrNotFound)
			}
			return err
		}

		newBalance, err = s.ledger.Purchase(ctx, exec, actor.ID, item.Cost,
			fmt.Sprintf("redeemed %s", item.Name))
		if err != nil {
			return err
		}

		redemption = &models.Redemption{
			ID:     uuid.NewString(),
			UserID: actor.ID,
			ItemID: itemID,
		}
		return s.storeRepo.CreateRedemption(ctx, exec, redemption)
	})
	if err != nil {
		return nil, 0, err
	}

	s.publisher.BalanceChanged(actor.ID, newBalance)
	return redemption, newBalance, nil
}

func (s *storeService) ListRedemptions(ctx context.Context, actor Actor) ([]models.Redemption, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.storeRepo.ListRedemptions(ctx)
}
