package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"lunchbox/ledger-svc/internal/domain"

	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 10

// Store projects payment events into per-day Redis hashes. Each order code
// is counted at most once per event type, so redelivered messages are no-ops.
type Store struct {
	rdb       *redis.Client
	retention time.Duration
}

func NewStore(rdb *redis.Client, retention time.Duration) *Store {
	return &Store{rdb: rdb, retention: retention}
}

func dailyKey(date string) string {
	return fmt.Sprintf("ledger:daily:%s", date)
}

func restaurantsKey(date string) string {
	return fmt.Sprintf("ledger:daily:%s:restaurants", date)
}

func usersKey(date string) string {
	return fmt.Sprintf("ledger:daily:%s:users", date)
}

func seenKey(date, eventType string) string {
	return fmt.Sprintf("ledger:daily:%s:seen:%s", date, eventType)
}

// RecordPayment adds a completed payment to its day. It reports false when
// the order code was already counted.
func (s *Store) RecordPayment(ctx context.Context, msg domain.PaymentMessage) (bool, error) {
	return s.recordOnce(ctx, msg, func(pipe redis.Pipeliner) {
		day := dailyKey(msg.Date)
		pipe.HIncrBy(ctx, day, "sessions", 1)
		pipe.HIncrBy(ctx, day, "amount", msg.Amount)
		pipe.HIncrBy(ctx, day, "line_count", int64(len(msg.OrderIDs)))
		for restaurantID, amount := range msg.Breakdown {
			pipe.HIncrBy(ctx, restaurantsKey(msg.Date), restaurantID, amount)
		}
		pipe.HIncrBy(ctx, usersKey(msg.Date), msg.UserID, msg.Amount)
		s.expire(ctx, pipe, day, restaurantsKey(msg.Date), usersKey(msg.Date))
	})
}

// RecordSettlement counts a session whose order lines are all marked paid.
func (s *Store) RecordSettlement(ctx context.Context, msg domain.PaymentMessage) (bool, error) {
	return s.recordOnce(ctx, msg, func(pipe redis.Pipeliner) {
		pipe.HIncrBy(ctx, dailyKey(msg.Date), "settled_sessions", 1)
		s.expire(ctx, pipe, dailyKey(msg.Date))
	})
}

func (s *Store) recordOnce(ctx context.Context, msg domain.PaymentMessage, apply func(redis.Pipeliner)) (bool, error) {
	seen := seenKey(msg.Date, msg.Type)
	recorded := false

	record := func(tx *redis.Tx) error {
		recorded = false
		member, err := tx.SIsMember(ctx, seen, msg.OrderCode).Result()
		if err != nil {
			return err
		}
		if member {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SAdd(ctx, seen, msg.OrderCode)
			s.expire(ctx, pipe, seen)
			apply(pipe)
			return nil
		})
		if err == nil {
			recorded = true
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, record, seen)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return recorded, err
	}
	return false, fmt.Errorf("record %s %s: %w", msg.Type, msg.OrderCode, redis.TxFailedErr)
}

func (s *Store) expire(ctx context.Context, pipe redis.Pipeliner, keys ...string) {
	if s.retention <= 0 {
		return
	}
	for _, key := range keys {
		pipe.Expire(ctx, key, s.retention)
	}
}

func (s *Store) Daily(ctx context.Context, date string) (domain.DailyLedger, error) {
	ledger := domain.DailyLedger{
		Date:         date,
		ByRestaurant: make(map[string]int64),
		ByUser:       make(map[string]int64),
	}

	var (
		totals      *redis.MapStringStringCmd
		restaurants *redis.MapStringStringCmd
		users       *redis.MapStringStringCmd
	)
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		totals = pipe.HGetAll(ctx, dailyKey(date))
		restaurants = pipe.HGetAll(ctx, restaurantsKey(date))
		users = pipe.HGetAll(ctx, usersKey(date))
		return nil
	})
	if err != nil {
		return domain.DailyLedger{}, err
	}

	for field, value := range totals.Val() {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return domain.DailyLedger{}, fmt.Errorf("ledger %s field %s: %w", date, field, err)
		}
		switch field {
		case "sessions":
			ledger.Sessions = n
		case "settled_sessions":
			ledger.SettledSessions = n
		case "amount":
			ledger.Amount = n
		case "line_count":
			ledger.LineCount = n
		}
	}
	if err := parseInto(ledger.ByRestaurant, restaurants.Val()); err != nil {
		return domain.DailyLedger{}, err
	}
	if err := parseInto(ledger.ByUser, users.Val()); err != nil {
		return domain.DailyLedger{}, err
	}
	return ledger, nil
}

func parseInto(dst map[string]int64, src map[string]string) error {
	for key, value := range src {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("ledger entry %s: %w", key, err)
		}
		dst[key] = n
	}
	return nil
}
