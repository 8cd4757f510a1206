package service

import (
	"context"

	"lunchbox/ledger-svc/internal/domain"
	"lunchbox/ledger-svc/internal/storage"

	"github.com/segmentio/kafka-go"
)

type StoreInterface interface {
	RecordPayment(ctx context.Context, msg domain.PaymentMessage) (bool, error)
	RecordSettlement(ctx context.Context, msg domain.PaymentMessage) (bool, error)
	Daily(ctx context.Context, date string) (domain.DailyLedger, error)
}

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type ConsumerInterface interface {
	Start(ctx context.Context)
	Process(ctx context.Context, msg domain.PaymentMessage) error
}

type LedgerInterface interface {
	Daily(ctx context.Context, date string) (domain.DailyLedger, error)
}

var (
	_ StoreInterface    = (*storage.Store)(nil)
	_ MessageReader     = (*kafka.Reader)(nil)
	_ ConsumerInterface = (*Consumer)(nil)
	_ LedgerInterface   = (*LedgerService)(nil)
)
