package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCodeNotFound    = errors.New("no login code pending for this phone")
	ErrCodeMismatch    = errors.New("login code does not match")
	ErrTooManyAttempts = errors.New("too many failed attempts, request a new code")
	ErrResendTooSoon   = errors.New("a code was sent recently, wait before retrying")
)

const maxVerifyAttempts = 5

// CodeStore keeps one-time login codes in Redis with a TTL and an
// attempt counter so a code cannot be brute forced.
type CodeStore struct {
	client      *redis.Client
	ttl         time.Duration
	resendAfter time.Duration
}

func NewCodeStore(client *redis.Client, ttl, resendAfter time.Duration) *CodeStore {
	return &CodeStore{
		client:      client,
		ttl:         ttl,
		resendAfter: resendAfter,
	}
}

func codeKey(phone string) string     { return "otp:code:" + phone }
func attemptsKey(phone string) string { return "otp:attempts:" + phone }
func throttleKey(phone string) string { return "otp:throttle:" + phone }

// Put stores a fresh code for the phone, replacing any previous one.
// It fails with ErrResendTooSoon inside the resend window.
func (s *CodeStore) Put(ctx context.Context, phone, code string) error {
	ok, err := s.client.SetNX(ctx, throttleKey(phone), "1", s.resendAfter).Result()
	if err != nil {
		return fmt.Errorf("set otp throttle: %w", err)
	}
	if !ok {
		return ErrResendTooSoon
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, codeKey(phone), code, s.ttl)
	pipe.Del(ctx, attemptsKey(phone))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store otp code: %w", err)
	}
	return nil
}

// Verify checks the submitted code. On success the code is consumed.
func (s *CodeStore) Verify(ctx context.Context, phone, code string) error {
	stored, err := s.client.Get(ctx, codeKey(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeNotFound
	}
	if err != nil {
		return fmt.Errorf("load otp code: %w", err)
	}

	if stored != code {
		attempts, err := s.client.Incr(ctx, attemptsKey(phone)).Result()
		if err != nil {
			return fmt.Errorf("count otp attempt: %w", err)
		}
		s.client.Expire(ctx, attemptsKey(phone), s.ttl)
		if attempts >= maxVerifyAttempts {
			s.client.Del(ctx, codeKey(phone), attemptsKey(phone))
			return ErrTooManyAttempts
		}
		return ErrCodeMismatch
	}

	s.client.Del(ctx, codeKey(phone), attemptsKey(phone), throttleKey(phone))
	return nil
}
