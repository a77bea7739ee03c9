package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
)

func TestGetSellerTransactionFeeRate(t *testing.T) {
	tests := []struct {
		plan config.PlanID
		want Rate
	}{
		{config.PlanFree, 500},
		{config.PlanStarter, 350},
		{config.PlanPro, 250},
		{config.PlanEnterprise, 150},
	}

	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			rate, err := GetSellerTransactionFeeRate(tt.plan)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rate)
		})
	}

	_, err := GetSellerTransactionFeeRate(config.PlanPremium)
	assert.ErrorIs(t, err, config.ErrUnknownPlan)
}

func TestFeeRates_CheaperTiersPayMore(t *testing.T) {
	free, _ := GetSellerTransactionFeeRate(config.PlanFree)
	starter, _ := GetSellerTransactionFeeRate(config.PlanStarter)
	pro, _ := GetSellerTransactionFeeRate(config.PlanPro)
	enterprise, _ := GetSellerTransactionFeeRate(config.PlanEnterprise)

	assert.Greater(t, free, pro)
	assert.Greater(t, starter, enterprise)

	freeCommission, _ := GetProfessionalCommissionRate(config.PlanFree)
	proCommission, _ := GetProfessionalCommissionRate(config.PlanPro)
	assert.Greater(t, freeCommission, proCommission)
}

func TestGetProfessionalCommissionRate(t *testing.T) {
	rate, err := GetProfessionalCommissionRate(config.PlanStarter)
	require.NoError(t, err)
	assert.Equal(t, Rate(1000), rate)

	_, err = GetProfessionalCommissionRate(config.PlanEnterprise)
	assert.ErrorIs(t, err, config.ErrUnknownPlan)
}

func TestLimitResolvers(t *testing.T) {
	listing, err := GetSellerListingLimit(config.PlanStarter)
	require.NoError(t, err)
	assert.Equal(t, config.Limit(10), listing)

	listing, err = GetSellerListingLimit(config.PlanEnterprise)
	require.NoError(t, err)
	assert.True(t, listing.IsUnlimited())

	clients, err := GetAgentClientLimit(config.PlanFree)
	require.NoError(t, err)
	assert.Equal(t, config.Limit(5), clients)

	leads, err := GetProfessionalLeadLimit(config.PlanPro)
	require.NoError(t, err)
	assert.True(t, leads.IsUnlimited())

	_, err = GetAgentClientLimit(config.PlanStarter)
	assert.ErrorIs(t, err, config.ErrUnknownPlan)
}

func TestResolvers_NeverFailForCatalogPlans(t *testing.T) {
	for _, category := range config.Categories() {
		plans, err := config.GetPlansForCategory(category)
		require.NoError(t, err)

		for _, p := range plans {
			for _, kind := range []config.LimitKind{
				config.LimitActiveListings, config.LimitActiveClients, config.LimitOpenLeads,
				config.LimitDailyMessages, config.LimitSavedListings,
			} {
				_, err := ResolveLimit(category, p.ID, kind)
				assert.NoError(t, err)
			}
			_, err := PlanHasFeature(category, p.ID, config.FeatureAnalytics)
			assert.NoError(t, err)

			switch category {
			case config.CategorySeller:
				_, err = GetSellerTransactionFeeRate(p.ID)
				assert.NoError(t, err)
				_, err = GetSellerListingLimit(p.ID)
				assert.NoError(t, err)
			case config.CategoryAgent:
				_, err = GetAgentClientLimit(p.ID)
				assert.NoError(t, err)
			case config.CategoryProfessional:
				_, err = GetProfessionalCommissionRate(p.ID)
				assert.NoError(t, err)
				_, err = GetProfessionalLeadLimit(p.ID)
				assert.NoError(t, err)
			}
		}
	}
}

func TestPlanHasFeature_IsPure(t *testing.T) {
	first, err := PlanHasFeature(config.CategorySeller, config.PlanPro, config.FeatureFeaturedListings)
	require.NoError(t, err)

	// Interleave unrelated lookups; the answer must not change
	_, _ = PlanHasFeature(config.CategoryBuyer, config.PlanPremium, config.FeatureEarlyAccess)
	_, _ = PlanHasFeature(config.CategorySeller, config.PlanFree, config.FeatureFeaturedListings)

	for i := 0; i < 100; i++ {
		again, err := PlanHasFeature(config.CategorySeller, config.PlanPro, config.FeatureFeaturedListings)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.True(t, first)

	_, err = PlanHasFeature("LANDLORD", config.PlanPro, config.FeatureAnalytics)
	assert.ErrorIs(t, err, config.ErrInvalidCategory)
}

func TestRequiresPaidSubscription(t *testing.T) {
	tests := []struct {
		category config.Category
		action   Action
		want     bool
	}{
		{config.CategoryBuyer, ActionSendMessage, false},
		{config.CategoryBuyer, ActionEarlyListingAccess, true},
		{config.CategoryBuyer, ActionAccessMarketReports, true},
		{config.CategorySeller, ActionFeatureListing, true},
		{config.CategorySeller, ActionViewAnalytics, true},
		{config.CategoryAgent, ActionSendMessage, false},
		{config.CategoryProfessional, ActionReceiveRoutedLeads, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.category)+"/"+string(tt.action), func(t *testing.T) {
			got, err := RequiresPaidSubscription(tt.category, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := RequiresPaidSubscription(config.CategorySeller, "TELEPORT")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = RequiresPaidSubscription("LANDLORD", ActionSendMessage)
	assert.ErrorIs(t, err, config.ErrInvalidCategory)
}

func TestIsConfigurationError(t *testing.T) {
	_, planErr := GetSellerTransactionFeeRate("GOLD")
	_, actionErr := FeatureForAction("TELEPORT")

	assert.True(t, IsConfigurationError(planErr))
	assert.True(t, IsConfigurationError(actionErr))
	assert.False(t, IsConfigurationError(ErrInvalidAmount))
	assert.False(t, IsConfigurationError(nil))
}

func TestResolvers_Idempotent(t *testing.T) {
	a, errA := CalculateTransactionFee(FromCedis(777), config.PlanStarter)
	b, errB := CalculateTransactionFee(FromCedis(777), config.PlanStarter)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)

	l1, _ := GetSellerListingLimit(config.PlanPro)
	l2, _ := GetSellerListingLimit(config.PlanPro)
	assert.Equal(t, l1, l2)
}
