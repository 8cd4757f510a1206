package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"lunchbox/order-svc/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	pendingSetKey   = "payment:pending"
	unsettledSetKey = "payment:unsettled"
	maxTxRetries    = 10
)

// RedisSessionRepository stores payment sessions as JSON documents and keeps
// three indexes next to them: the per (user, day) claim, the pending and
// unsettled sets, and a lock per order line covered by a pending or
// not yet settled session.
type RedisSessionRepository struct {
	Client    *redis.Client
	Retention time.Duration
}

func NewRedisSessionRepository(client *redis.Client, retention time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{Client: client, Retention: retention}
}

func sessionKey(orderCode string) string {
	return "payment:session:" + orderCode
}

func scopeKey(key domain.SessionKey) string {
	return "payment:scope:" + key.UserID + ":" + key.Date
}

func lockKey(orderID string) string {
	return "payment:lock:" + orderID
}

func (r *RedisSessionRepository) Create(ctx context.Context, session *domain.PaymentSession) error {
	sKey, cKey := sessionKey(session.OrderCode), scopeKey(session.Key())
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	create := func(tx *redis.Tx) error {
		holder, err := tx.Get(ctx, cKey).Result()
		if err == nil {
			return &domain.ConflictError{OrderCode: holder}
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}
		exists, err := tx.Exists(ctx, sKey).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return &domain.ConflictError{}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sKey, payload, 0)
			if session.Status == domain.SessionPending {
				pipe.Set(ctx, cKey, session.OrderCode, 0)
				pipe.SAdd(ctx, pendingSetKey, session.OrderCode)
				for _, id := range session.CoveredOrderIDs {
					pipe.Set(ctx, lockKey(id), session.OrderCode, 0)
				}
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.Client.Watch(ctx, create, cKey, sKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("create payment session %s: %w", session.OrderCode, redis.TxFailedErr)
}

func (r *RedisSessionRepository) Get(ctx context.Context, orderCode string) (*domain.PaymentSession, error) {
	raw, err := r.Client.Get(ctx, sessionKey(orderCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("payment session %s: %w", orderCode, domain.ErrNotFound)
		}
		return nil, err
	}
	var session domain.PaymentSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode payment session %s: %w", orderCode, err)
	}
	return &session, nil
}

// Update applies fn to the stored session and writes the result back only if
// nobody else changed it in between; otherwise fn runs again on fresh data.
func (r *RedisSessionRepository) Update(ctx context.Context, orderCode string, fn func(*domain.PaymentSession) error) (*domain.PaymentSession, error) {
	sKey := sessionKey(orderCode)
	var updated *domain.PaymentSession

	update := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, sKey).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("payment session %s: %w", orderCode, domain.ErrNotFound)
			}
			return err
		}
		var session domain.PaymentSession
		if err := json.Unmarshal(raw, &session); err != nil {
			return fmt.Errorf("decode payment session %s: %w", orderCode, err)
		}
		before, wasSettled, wasOwed := session.Status, session.Settled(), session.NeedsSettlement()
		if err := fn(&session); err != nil {
			return err
		}
		payload, err := json.Marshal(&session)
		if err != nil {
			return err
		}

		cKey := scopeKey(session.Key())
		if err := tx.Watch(ctx, cKey).Err(); err != nil {
			return err
		}
		holder, err := tx.Get(ctx, cKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sKey, payload, r.ttl(&session))
			if session.Status == domain.SessionPending {
				pipe.SAdd(ctx, pendingSetKey, orderCode)
			} else {
				pipe.SRem(ctx, pendingSetKey, orderCode)
				if holder == orderCode {
					pipe.Del(ctx, cKey)
				}
				r.releaseLocks(ctx, pipe, &session, before, wasSettled, wasOwed)
			}
			if session.NeedsSettlement() {
				pipe.SAdd(ctx, unsettledSetKey, orderCode)
			} else {
				pipe.SRem(ctx, unsettledSetKey, orderCode)
			}
			return nil
		})
		if err == nil {
			updated = &session
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.Client.Watch(ctx, update, sKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return updated, err
	}
	return nil, fmt.Errorf("update payment session %s: %w", orderCode, redis.TxFailedErr)
}

// releaseLocks frees the covered lines once nothing more will be written to
// them. A completed session holds its locks until every line is marked paid;
// when settlement gives up the locks age out with the session instead.
func (r *RedisSessionRepository) releaseLocks(ctx context.Context, pipe redis.Pipeliner, session *domain.PaymentSession, before domain.SessionStatus, wasSettled, wasOwed bool) {
	switch {
	case session.Status != domain.SessionCompleted:
		if before != domain.SessionPending {
			return
		}
		for _, id := range session.CoveredOrderIDs {
			pipe.Del(ctx, lockKey(id))
		}
	case session.Settled():
		if wasSettled {
			return
		}
		for _, id := range session.CoveredOrderIDs {
			pipe.Del(ctx, lockKey(id))
		}
	case wasOwed && !session.NeedsSettlement() && r.Retention > 0:
		for _, id := range session.CoveredOrderIDs {
			pipe.Expire(ctx, lockKey(id), r.Retention)
		}
	}
}

// ttl keeps sessions that still need work forever and lets finished ones age out.
func (r *RedisSessionRepository) ttl(session *domain.PaymentSession) time.Duration {
	if session.Status == domain.SessionPending || session.NeedsSettlement() {
		return 0
	}
	return r.Retention
}

// ReleaseScope drops the claim on key if orderCode still holds it.
func (r *RedisSessionRepository) ReleaseScope(ctx context.Context, key domain.SessionKey, orderCode string) error {
	cKey := scopeKey(key)
	release := func(tx *redis.Tx) error {
		holder, err := tx.Get(ctx, cKey).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if holder != orderCode {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, cKey)
			pipe.SRem(ctx, pendingSetKey, orderCode)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.Client.Watch(ctx, release, cKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("release scope %s: %w", cKey, redis.TxFailedErr)
}

func (r *RedisSessionRepository) ListPending(ctx context.Context) ([]string, error) {
	return r.members(ctx, pendingSetKey)
}

func (r *RedisSessionRepository) ListUnsettled(ctx context.Context) ([]string, error) {
	return r.members(ctx, unsettledSetKey)
}

func (r *RedisSessionRepository) members(ctx context.Context, key string) ([]string, error) {
	codes, err := r.Client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(codes)
	return codes, nil
}

func (r *RedisSessionRepository) LockedOrders(ctx context.Context, ids []string) (map[string]string, error) {
	locked := make(map[string]string)
	if len(ids) == 0 {
		return locked, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = lockKey(id)
	}
	values, err := r.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, value := range values {
		if code, ok := value.(string); ok {
			locked[ids[i]] = code
		}
	}
	return locked, nil
}
