package processors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/vatreview/src/models"
)

// Standing guidance included with every non-empty draft. The wording follows
// the Revenue qualifying-disclosure process.
var disclosureGuidance = []string{
	"Submit via ROS or MyEnquiries before Revenue issues a notification of audit.",
	"Include all VAT liabilities for the scoped periods in a single disclosure.",
	"A prompted qualifying disclosure qualifies for reduced penalties and avoids publication and prosecution.",
}

// DisclosureDrafter assembles a qualifying-disclosure draft from a run's
// discrepancies. It never invents content: an empty discrepancy list yields an
// explicit nothing-to-disclose result.
type DisclosureDrafter struct {
	dailyInterestRate decimal.Decimal
}

// NewDisclosureDrafter creates a drafter accruing statutory interest at the
// given daily rate.
func NewDisclosureDrafter(dailyInterestRate decimal.Decimal) *DisclosureDrafter {
	return &DisclosureDrafter{dailyInterestRate: dailyInterestRate}
}

// Draft builds the disclosure document. The reference time anchors interest
// accrual and the generation timestamp so the output is reproducible.
func (d *DisclosureDrafter) Draft(discrepancies []models.Discrepancy, ref time.Time) models.DisclosureDraft {
	if len(discrepancies) == 0 {
		return models.DisclosureDraft{
			NothingToDisclose: true,
			GeneratedAt:       ref,
		}
	}

	draft := models.DisclosureDraft{
		GeneratedAt: ref,
		Guidance:    disclosureGuidance,
	}

	seenPeriods := make(map[string]bool)
	for _, disc := range discrepancies {
		if !seenPeriods[disc.PeriodKey] {
			seenPeriods[disc.PeriodKey] = true
			draft.PeriodKeys = append(draft.PeriodKeys, disc.PeriodKey)
		}
		draft.Sections = append(draft.Sections, models.DisclosureSection{
			Kind:                disc.Kind,
			PeriodKey:           disc.PeriodKey,
			Description:         disc.Description,
			SuggestedCorrection: suggestedCorrection(disc),
		})
	}

	draft.Estimate = d.estimateLiability(discrepancies, ref)
	return draft
}

// estimateLiability totals the under-declared net VAT and accrues interest
// daily from the end of the oldest affected period. Liability is measured on
// the net_vat mismatches only, so sales and purchase deltas feeding the same
// net position are not double counted.
func (d *DisclosureDrafter) estimateLiability(discrepancies []models.Discrepancy, ref time.Time) *models.LiabilityEstimate {
	liability := decimal.Zero
	var oldest time.Time
	for _, disc := range discrepancies {
		if disc.Kind != models.DiscrepancyTotalMismatch || disc.Field != "net_vat" {
			continue
		}
		if disc.Delta.Sign() <= 0 {
			continue // over-declared periods reduce nothing here; refunds go through a separate claim
		}
		liability = liability.Add(disc.Delta)
		if oldest.IsZero() || disc.Date.Before(oldest) {
			oldest = disc.Date
		}
	}
	if liability.IsZero() {
		return nil
	}

	days := 0
	if !oldest.IsZero() && ref.After(oldest) {
		days = int(ref.Sub(oldest).Hours() / 24)
	}
	interest := liability.Mul(d.dailyInterestRate).Mul(decimal.NewFromInt(int64(days))).Round(2)

	return &models.LiabilityEstimate{
		Liability:   liability,
		Interest:    interest,
		DaysAccrued: days,
		Total:       liability.Add(interest),
	}
}

func suggestedCorrection(disc models.Discrepancy) string {
	switch disc.Kind {
	case models.DiscrepancyUnpaidPurchase:
		return "Verify whether input VAT was reclaimed on this unpaid invoice; if so, adjust the T2 figure or settle the invoice before the period closes."
	case models.DiscrepancyBadDebtRisk:
		return "Review bad debt relief: VAT reclaimed on consideration unpaid for over six months must be repaid until the debt is settled."
	case models.DiscrepancyTotalMismatch:
		return fmt.Sprintf("Amend the %s figure for period %s and file a corrected return with the difference of %s.",
			disc.Field, disc.PeriodKey, disc.Delta.StringFixed(2))
	case models.DiscrepancyMissingReturn:
		return fmt.Sprintf("File the outstanding VAT return for period %s before submitting the disclosure.", disc.PeriodKey)
	default:
		return "Review the flagged records and document the correction applied."
	}
}
