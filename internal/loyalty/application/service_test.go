package application

import (
	"context"
	"testing"

	"github.com/omnisales/omnisales/internal/loyalty/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLoyaltyRepo struct {
	accounts map[string]*domain.LoyaltyAccount
	offers   []*domain.Offer
}

func newMemLoyaltyRepo(accounts ...*domain.LoyaltyAccount) *memLoyaltyRepo {
	r := &memLoyaltyRepo{accounts: make(map[string]*domain.LoyaltyAccount)}
	for _, a := range accounts {
		r.accounts[a.UserID] = a
	}
	return r
}

func (r *memLoyaltyRepo) GetByUserID(ctx context.Context, userID string) (*domain.LoyaltyAccount, error) {
	a, ok := r.accounts[userID]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (r *memLoyaltyRepo) Save(ctx context.Context, account *domain.LoyaltyAccount) error {
	r.accounts[account.UserID] = account
	return nil
}

func (r *memLoyaltyRepo) DeductPoints(ctx context.Context, userID string, points int) (bool, error) {
	a, ok := r.accounts[userID]
	if !ok || a.Points < points {
		return false, nil
	}
	a.Points -= points
	return true, nil
}

func (r *memLoyaltyRepo) ListActiveOffers(ctx context.Context, tier string, limit int) ([]*domain.Offer, error) {
	if len(r.offers) > limit {
		return r.offers[:limit], nil
	}
	return r.offers, nil
}

func TestGetPointsAbsentAccount(t *testing.T) {
	svc := NewLoyaltyService(newMemLoyaltyRepo(), nil)

	info, err := svc.GetPoints(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestRedeemSuccess(t *testing.T) {
	repo := newMemLoyaltyRepo(&domain.LoyaltyAccount{UserID: "u1", Points: 1200, Tier: "silver"})
	svc := NewLoyaltyService(repo, nil)

	result, err := svc.Redeem(context.Background(), "u1", 500)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 500, result.PointsRedeemed)
	assert.InDelta(t, 5.0, result.DiscountAmount, 0.001)
	assert.Equal(t, 700, result.RemainingPoints)
	assert.Equal(t, 700, repo.accounts["u1"].Points)
}

func TestRedeemInsufficientPoints(t *testing.T) {
	repo := newMemLoyaltyRepo(&domain.LoyaltyAccount{UserID: "u1", Points: 100, Tier: "bronze"})
	svc := NewLoyaltyService(repo, nil)

	result, err := svc.Redeem(context.Background(), "u1", 500)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Insufficient points", result.Error)
	assert.Equal(t, 100, repo.accounts["u1"].Points)
}

func TestRedeemInvalidAmount(t *testing.T) {
	svc := NewLoyaltyService(newMemLoyaltyRepo(), nil)

	result, err := svc.Redeem(context.Background(), "u1", 0)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid points amount", result.Error)
}

func TestRedeemUnknownUser(t *testing.T) {
	svc := NewLoyaltyService(newMemLoyaltyRepo(), nil)

	result, err := svc.Redeem(context.Background(), "nobody", 100)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "User not found", result.Error)
}

func TestCheckOffersAbsentAccountReturnsEmpty(t *testing.T) {
	svc := NewLoyaltyService(newMemLoyaltyRepo(), nil)

	offers, err := svc.CheckOffers(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestCheckOffersCapped(t *testing.T) {
	repo := newMemLoyaltyRepo(&domain.LoyaltyAccount{UserID: "u1", Points: 10, Tier: "gold"})
	for i := 0; i < 8; i++ {
		repo.offers = append(repo.offers, &domain.Offer{OfferID: "O", Title: "Deal", Active: true})
	}
	svc := NewLoyaltyService(repo, nil)

	offers, err := svc.CheckOffers(context.Background(), "u1")

	require.NoError(t, err)
	assert.Len(t, offers, 5)
}
