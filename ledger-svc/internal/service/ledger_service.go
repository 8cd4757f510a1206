package service

import (
	"context"
	"time"

	"lunchbox/ledger-svc/internal/domain"
)

type LedgerService struct {
	Store StoreInterface
}

func NewLedgerService(store StoreInterface) *LedgerService {
	return &LedgerService{Store: store}
}

func (s *LedgerService) Daily(ctx context.Context, date string) (domain.DailyLedger, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return domain.DailyLedger{}, domain.ErrInvalidDate
	}
	return s.Store.Daily(ctx, date)
}
