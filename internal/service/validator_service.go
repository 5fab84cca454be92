package service

import (
	"context"

	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/voucher"
)

// VoucherSender issues one voucher send call. Satisfied by
// *voucher.Client; mocked in tests.
type VoucherSender interface {
	Send(ctx context.Context, phone string, platform models.Platform, campaignID, marketingChannel string) voucher.Outcome
}

// ValidationState is the verdict of a campaign dry run
type ValidationState string

const (
	ValidationValid   ValidationState = "valid"
	ValidationInvalid ValidationState = "invalid"
	ValidationExpired ValidationState = "expired"
)

// Verdict is the result of validating a campaign
type Verdict struct {
	State  ValidationState
	Reason string
}

// Valid reports whether the campaign is redeemable
func (v Verdict) Valid() bool {
	return v.State == ValidationValid
}

// NetworkReason is the distinct reason reported when validation could
// not reach the voucher service. Callers may choose to retry the
// validation later rather than condemn the campaign.
const NetworkReason = "Failed to validate campaign"

// CampaignValidator dry-runs a campaign against the voucher service
// using a reserved sentinel phone number, so live subscribers never see
// failed sends for a campaign that was already dead at submission time.
type CampaignValidator struct {
	sender        VoucherSender
	sentinelPhone string
}

// NewCampaignValidator creates a campaign validator
func NewCampaignValidator(sender VoucherSender, sentinelPhone string) *CampaignValidator {
	return &CampaignValidator{
		sender:        sender,
		sentinelPhone: sentinelPhone,
	}
}

// Validate checks whether a campaign is currently redeemable.
//
// A phone-specific rejection of the sentinel number still proves the
// campaign is live. Ambiguous errors are treated as campaign problems:
// validation gates whether real subscribers get contacted at all, so it
// is deliberately pessimistic.
func (v *CampaignValidator) Validate(ctx context.Context, campaignID, marketingChannel string) Verdict {
	outcome := v.sender.Send(ctx, v.sentinelPhone, models.PlatformAndroid, campaignID, marketingChannel)

	switch outcome.Kind {
	case voucher.Accepted, voucher.PhoneInvalid:
		return Verdict{State: ValidationValid}
	case voucher.CampaignInvalid:
		return Verdict{State: ValidationInvalid, Reason: outcome.Message}
	case voucher.CampaignExpired:
		return Verdict{State: ValidationExpired, Reason: outcome.Message}
	case voucher.NetworkFailure:
		return Verdict{State: ValidationInvalid, Reason: NetworkReason}
	default:
		return Verdict{State: ValidationInvalid, Reason: outcome.Message}
	}
}
