package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookstore-orders/internal/domain/promo"
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionStore(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, 7, "jti-1", "a@b.io", time.Hour))
	sess, err := store.GetSession(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "jti-1", sess["jti"])
	assert.Equal(t, time.Hour, mr.TTL("session:7"))

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, 7, "jti-1", 10*time.Minute))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = store.GetSession(ctx, 7)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	mr.FastForward(11 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestDeliveryGuard(t *testing.T) {
	mr, client := newTestClient(t)
	guard := NewDeliveryGuard(client, time.Minute)
	ctx := context.Background()

	first, err := guard.Claim(ctx, "data", "sig")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := guard.Claim(ctx, "data", "sig")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := guard.Claim(ctx, "data", "other-sig")
	require.NoError(t, err)
	assert.True(t, other)

	require.NoError(t, guard.Release(ctx, "data", "sig"))
	retry, err := guard.Claim(ctx, "data", "sig")
	require.NoError(t, err)
	assert.True(t, retry)

	mr.FastForward(2 * time.Minute)
	expired, err := guard.Claim(ctx, "data", "other-sig")
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestLocker(t *testing.T) {
	mr, client := newTestClient(t)
	locker := NewLocker(client)
	ctx := context.Background()

	unlock, ok, err := locker.TryLock(ctx, "reaper", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "reaper", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// 锁已过期并被他人持有时,旧的unlock不能删掉别人的锁
	mr.FastForward(2 * time.Minute)
	_, ok, err = locker.TryLock(ctx, "reaper", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("lock:reaper"))
}

type fakePromoRepo struct {
	promo.Repository
	codes map[uint]*promo.PromoCode
	finds int
}

func (f *fakePromoRepo) FindByID(_ context.Context, id uint) (*promo.PromoCode, error) {
	p, ok := f.codes[id]
	if !ok {
		return nil, promo.ErrPromoCodeNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePromoRepo) FindActiveByCode(_ context.Context, code string) (*promo.PromoCode, error) {
	f.finds++
	for _, p := range f.codes {
		if p.Code == code && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, promo.ErrPromoCodeNotFound
}

func (f *fakePromoRepo) Update(_ context.Context, p *promo.PromoCode) error {
	cp := *p
	f.codes[p.ID] = &cp
	return nil
}

func (f *fakePromoRepo) Delete(_ context.Context, id uint) error {
	delete(f.codes, id)
	return nil
}

func TestCachedPromoRepository(t *testing.T) {
	_, client := newTestClient(t)
	inner := &fakePromoRepo{codes: map[uint]*promo.PromoCode{
		1: {ID: 1, Code: "SPRING", DiscountPercent: 10, MaxDiscount: decimal.NewNullDecimal(decimal.NewFromInt(50)), IsActive: true},
	}}
	repo := NewCachedPromoRepository(inner, client, time.Minute)
	ctx := context.Background()

	p, err := repo.FindActiveByCode(ctx, "SPRING")
	require.NoError(t, err)
	assert.Equal(t, 10, p.DiscountPercent)

	p, err = repo.FindActiveByCode(ctx, "SPRING")
	require.NoError(t, err)
	assert.True(t, p.MaxDiscount.Valid)
	assert.True(t, p.MaxDiscount.Decimal.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 1, inner.finds)

	// 停用后缓存失效
	p.IsActive = false
	require.NoError(t, repo.Update(ctx, p))
	_, err = repo.FindActiveByCode(ctx, "SPRING")
	assert.ErrorIs(t, err, promo.ErrPromoCodeNotFound)
	assert.Equal(t, 2, inner.finds)

	_, err = repo.FindActiveByCode(ctx, "MISSING")
	assert.ErrorIs(t, err, promo.ErrPromoCodeNotFound)
}

func TestCachedPromoRepository_DisabledWithoutTTL(t *testing.T) {
	_, client := newTestClient(t)
	inner := &fakePromoRepo{codes: map[uint]*promo.PromoCode{}}
	assert.Same(t, promo.Repository(inner), NewCachedPromoRepository(inner, client, 0))
}
