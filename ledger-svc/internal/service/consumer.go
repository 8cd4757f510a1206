package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"lunchbox/ledger-svc/internal/domain"

	"github.com/segmentio/kafka-go"
)

const defaultRetryDelay = time.Second

type Consumer struct {
	Reader     MessageReader
	Store      StoreInterface
	RetryDelay time.Duration
}

func NewConsumer(reader MessageReader, store StoreInterface) *Consumer {
	return &Consumer{
		Reader:     reader,
		Store:      store,
		RetryDelay: defaultRetryDelay,
	}
}

// Start reads the payments topic until ctx is cancelled. An offset is
// committed only after its message is recorded or found unusable.
func (c *Consumer) Start(ctx context.Context) {
	log.Println("Starting Ledger Service consumer...")
	for {
		message, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Ledger consumer stopped")
				return
			}
			log.Printf("Error reading message: %v", err)
			if c.wait(ctx) != nil {
				log.Println("Ledger consumer stopped")
				return
			}
			continue
		}

		if err := c.handle(ctx, message); err != nil {
			log.Printf("Ledger consumer stopped before offset %d was recorded", message.Offset)
			return
		}
		if err := c.Reader.CommitMessages(ctx, message); err != nil {
			log.Printf("Error committing offset %d: %v", message.Offset, err)
		}
	}
}

// handle records one message, retrying store failures until they succeed or
// ctx ends.
func (c *Consumer) handle(ctx context.Context, message kafka.Message) error {
	var msg domain.PaymentMessage
	if err := json.Unmarshal(message.Value, &msg); err != nil {
		log.Printf("Error unmarshaling message at offset %d: %v", message.Offset, err)
		return nil
	}

	for {
		err := c.Process(ctx, msg)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrInvalidMessage) {
			log.Printf("Skipping invalid message at offset %d: %v", message.Offset, err)
			return nil
		}
		log.Printf("Error processing %s for %s, retrying: %v", msg.Type, msg.OrderCode, err)
		if err := c.wait(ctx); err != nil {
			return err
		}
	}
}

func (c *Consumer) wait(ctx context.Context) error {
	delay := c.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Consumer) Process(ctx context.Context, msg domain.PaymentMessage) error {
	if msg.Type != domain.EventPaymentCompleted && msg.Type != domain.EventOrdersSettled {
		return nil
	}
	if msg.OrderCode == "" || msg.Date == "" {
		return domain.ErrInvalidMessage
	}

	var (
		recorded bool
		err      error
	)
	switch msg.Type {
	case domain.EventPaymentCompleted:
		recorded, err = c.Store.RecordPayment(ctx, msg)
	case domain.EventOrdersSettled:
		recorded, err = c.Store.RecordSettlement(ctx, msg)
	}
	if err != nil {
		return err
	}
	if !recorded {
		log.Printf("Skipping duplicate %s: code=%s", msg.Type, msg.OrderCode)
		return nil
	}
	log.Printf("Recorded %s: code=%s date=%s amount=%d", msg.Type, msg.OrderCode, msg.Date, msg.Amount)
	return nil
}
