package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
	"github.com/plotline-gh/marketplace/backend-go/internal/events"
)

func newListingService(f *fixture) *listingService {
	svc := NewListingService(f.listings, f.users, f.publisher, discardLogger()).(*listingService)
	svc.now = clock
	return svc
}

func plotInput(title string) ListingInput {
	return ListingInput{
		Title:   title,
		Region:  "Ashanti",
		AreaSqm: 900,
		Price:   billing.FromCedis(40000),
	}
}

func TestListingService_CreateListing_FreeLimit(t *testing.T) {
	f := newFixture(t)
	svc := newListingService(f)
	seller := f.user(t, "seller@example.com", config.CategorySeller, config.PlanFree)
	ctx := context.Background()

	for _, title := range []string{"Plot A", "Plot B"} {
		listing, err := svc.CreateListing(ctx, seller.ID, plotInput(title))
		require.NoError(t, err)
		assert.Equal(t, models.ListingActive, listing.Status)
		assert.NotNil(t, listing.Tags)
	}

	_, err := svc.CreateListing(ctx, seller.ID, plotInput("Plot C"))
	require.Error(t, err)

	var quotaErr *config.QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, string(config.LimitActiveListings), quotaErr.Resource)
	assert.Equal(t, string(billing.ReasonLimitReached), quotaErr.Reason)
	assert.Equal(t, int64(2), quotaErr.Limit)
	assert.Equal(t, int64(2), quotaErr.Current)

	denials := f.publisher.OfType(events.QuotaLimitReached)
	require.Len(t, denials, 1)
	assert.Equal(t, seller.ID, denials[0].UserID)
}

func TestListingService_CreateListing_EnterpriseUnlimited(t *testing.T) {
	f := newFixture(t)
	svc := newListingService(f)
	seller := f.user(t, "big@example.com", config.CategorySeller, config.PlanEnterprise)

	for i := 0; i < 60; i++ {
		_, err := svc.CreateListing(context.Background(), seller.ID, plotInput("Estate plot"))
		require.NoError(t, err)
	}
}

func TestListingService_CreateListing_LapsedPlanFallsBackToFree(t *testing.T) {
	f := newFixture(t)
	svc := newListingService(f)
	seller := f.user(t, "lapsed@example.com", config.CategorySeller, config.PlanPro)

	past := fixedNow.Add(-time.Hour)
	require.NoError(t, f.users.UpdateSubscription(seller.ID, config.PlanPro, config.SubscriptionActive, &past))

	for i := 0; i < 2; i++ {
		_, err := svc.CreateListing(context.Background(), seller.ID, plotInput("Plot"))
		require.NoError(t, err)
	}
	_, err := svc.CreateListing(context.Background(), seller.ID, plotInput("Plot"))

	var quotaErr *config.QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, int64(2), quotaErr.Limit)
}

func TestListingService_CreateListing_Rejections(t *testing.T) {
	f := newFixture(t)
	svc := newListingService(f)
	buyer := f.user(t, "buyer@example.com", config.CategoryBuyer, config.PlanFree)
	seller := f.user(t, "seller@example.com", config.CategorySeller, config.PlanFree)

	_, err := svc.CreateListing(context.Background(), buyer.ID, plotInput("Plot"))
	assert.ErrorIs(t, err, ErrWrongCategory)

	input := plotInput("Free plot")
	input.Price = 0
	_, err = svc.CreateListing(context.Background(), seller.ID, input)
	assert.ErrorIs(t, err, billing.ErrInvalidAmount)
}

func TestListingService_ArchiveFreesSlot(t *testing.T) {
	f := newFixture(t)
	svc := newListingService(f)
	seller := f.user(t, "seller@example.com", config.CategorySeller, config.PlanFree)
	other := f.user(t, "other@example.com", config.CategorySeller, config.PlanFree)
	ctx := context.Background()

	first, err := svc.CreateListing(ctx, seller.ID, plotInput("Plot A"))
	require.NoError(t, err)
	_, err = svc.CreateListing(ctx, seller.ID, plotInput("Plot B"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ArchiveListing(other.ID, first.ID), ErrNotOwner)
	require.NoError(t, svc.ArchiveListing(seller.ID, first.ID))
	assert.ErrorIs(t, svc.ArchiveListing(seller.ID, first.ID), ErrListingNotActive)

	_, err = svc.CreateListing(ctx, seller.ID, plotInput("Plot C"))
	assert.NoError(t, err)

	active := models.ListingActive
	listings, err := svc.ListMyListings(seller.ID, &active)
	require.NoError(t, err)
	assert.Len(t, listings, 2)
}

func TestListingService_FeatureListing(t *testing.T) {
	f := newFixture(t)
	svc := newListingService(f)
	ctx := context.Background()

	starter := f.user(t, "starter@example.com", config.CategorySeller, config.PlanStarter)
	listing, err := svc.CreateListing(ctx, starter.ID, plotInput("Plot"))
	require.NoError(t, err)

	_, err = svc.FeatureListing(ctx, starter.ID, listing.ID)
	var quotaErr *config.QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, string(billing.ReasonFeatureNotInPlan), quotaErr.Reason)
	assert.Equal(t, string(config.FeatureFeaturedListings), quotaErr.Resource)

	pro := f.user(t, "pro@example.com", config.CategorySeller, config.PlanPro)
	listing, err = svc.CreateListing(ctx, pro.ID, plotInput("Plot"))
	require.NoError(t, err)

	featured, err := svc.FeatureListing(ctx, pro.ID, listing.ID)
	require.NoError(t, err)
	assert.True(t, featured.IsFeatured)
	require.NotNil(t, featured.FeaturedAt)
	assert.True(t, featured.FeaturedAt.Equal(fixedNow))
}
