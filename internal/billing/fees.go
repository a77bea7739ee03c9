package billing

import (
	"errors"
	"fmt"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
)

// FeeBreakdown splits a gross amount into the platform's cut and the payout.
// Fee + Net always equals Amount.
type FeeBreakdown struct {
	Amount Amount        `json:"amount_ghs"`
	Fee    Amount        `json:"fee_ghs"`
	Net    Amount        `json:"net_ghs"`
	Rate   Rate          `json:"rate_bps"`
	PlanID config.PlanID `json:"plan_id"`
}

// CalculateTransactionFee computes the platform fee on a sale for the seller's plan
func CalculateTransactionFee(amount Amount, sellerPlanID config.PlanID) (FeeBreakdown, error) {
	if err := validateAmount(amount); err != nil {
		return FeeBreakdown{}, err
	}
	rate, err := GetSellerTransactionFeeRate(sellerPlanID)
	if err != nil {
		return FeeBreakdown{}, err
	}
	return split(amount, rate, sellerPlanID), nil
}

// CalculateProfessionalCommission computes the platform commission on a
// professional's service fee
func CalculateProfessionalCommission(amount Amount, planID config.PlanID) (FeeBreakdown, error) {
	if err := validateAmount(amount); err != nil {
		return FeeBreakdown{}, err
	}
	rate, err := GetProfessionalCommissionRate(planID)
	if err != nil {
		return FeeBreakdown{}, err
	}
	return split(amount, rate, planID), nil
}

func validateAmount(amount Amount) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if amount > maxAmount {
		return fmt.Errorf("%w: %s is too large", ErrInvalidAmount, amount)
	}
	return nil
}

func split(amount Amount, rate Rate, planID config.PlanID) FeeBreakdown {
	fee := rate.Apply(amount)
	return FeeBreakdown{
		Amount: amount,
		Fee:    fee,
		Net:    amount - fee,
		Rate:   rate,
		PlanID: planID,
	}
}

var ErrInvalidAmount = errors.New("amount must be greater than zero")
