package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"ecauth/internal/domain/model"
	"ecauth/internal/repository"

	"github.com/labstack/gommon/log"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// (email, purpose)ごとのワンタイムコード
type CodeStore struct {
	codes    repository.VerificationCodeRepository
	throttle ResendThrottle
	clock    Clock
	ttl      time.Duration
	window   time.Duration
}

// throttleはnil可
func NewCodeStore(codes repository.VerificationCodeRepository, throttle ResendThrottle, clock Clock, ttl, window time.Duration) *CodeStore {
	return &CodeStore{codes: codes, throttle: throttle, clock: clock, ttl: ttl, window: window}
}

func (s *CodeStore) TTL() time.Duration {
	return s.ttl
}

// 古いコードを無効にして新しいコードを発行する
func (s *CodeStore) Issue(ctx context.Context, email string, purpose model.CodePurpose) (string, error) {
	code, now, err := s.newCode()
	if err != nil {
		return "", err
	}

	if err := s.codes.Replace(ctx, s.record(email, code, purpose, now)); err != nil {
		// 同じ(email, purpose)の同時発行に負けた
		if errors.Is(err, repository.ErrCodeRecentlyIssued) {
			return "", ErrTooManyRequests
		}
		return "", err
	}

	if s.throttle != nil {
		if err := s.throttle.Mark(ctx, email, purpose, s.window); err != nil {
			log.Warnj(log.JSON{"msg": "resend throttle mark failed", "error": err.Error()})
		}
	}
	return code, nil
}

// 再送用。窓の中に発行済みならErrTooManyRequests。
// 判定と差し替えはDB側の1トランザクションで行う
func (s *CodeStore) IssueThrottled(ctx context.Context, email string, purpose model.CodePurpose) (string, error) {
	if s.throttle != nil {
		ok, err := s.throttle.Acquire(ctx, email, purpose, s.window)
		switch {
		case err != nil:
			// Redisが落ちていてもDBの判定があるので続ける
			log.Warnj(log.JSON{"msg": "resend throttle unavailable", "error": err.Error()})
		case !ok:
			return "", ErrTooManyRequests
		}
	}

	code, now, err := s.newCode()
	if err != nil {
		return "", err
	}

	err = s.codes.ReplaceUnlessRecent(ctx, s.record(email, code, purpose, now), now.Add(-s.window))
	if err != nil {
		if errors.Is(err, repository.ErrCodeRecentlyIssued) {
			return "", ErrTooManyRequests
		}
		if s.throttle != nil {
			_ = s.throttle.Release(ctx, email, purpose)
		}
		return "", err
	}
	return code, nil
}

// 期限内で一致するコードがあるか。消すのは呼び出し側
func (s *CodeStore) Consume(ctx context.Context, email, code string, purpose model.CodePurpose) (bool, error) {
	_, err := s.codes.FindValid(ctx, email, code, purpose, s.clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrVerificationCodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *CodeStore) Invalidate(ctx context.Context, email string, purpose model.CodePurpose) error {
	return s.codes.DeleteByEmailAndPurpose(ctx, email, purpose)
}

func (s *CodeStore) WasIssuedRecently(ctx context.Context, email string, purpose model.CodePurpose, within time.Duration) (bool, error) {
	return s.codes.ExistsCreatedSince(ctx, email, purpose, s.clock.Now().Add(-within))
}

// 期限切れコードの掃除
func (s *CodeStore) PurgeExpired(ctx context.Context) (int64, error) {
	return s.codes.DeleteExpired(ctx, s.clock.Now())
}

func (s *CodeStore) newCode() (string, time.Time, error) {
	code, err := randomCode()
	if err != nil {
		return "", time.Time{}, err
	}
	return code, s.clock.Now(), nil
}

func (s *CodeStore) record(email, code string, purpose model.CodePurpose, now time.Time) *model.VerificationCode {
	return &model.VerificationCode{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
}

// [100000, 999999] の一様乱数
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
