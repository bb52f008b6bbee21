package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

// moneyPlaces is the scale every monetary value is rounded to. Rounding is
// half-up at each line so the invoice aggregates never drift by more than a
// cent from the stored lines.
const moneyPlaces = 2

var percentHundred = decimal.NewFromInt(100)

// CalculateCoverage computes the insurer/patient split for the given line
// items under the patient's insurance plan. A nil or inactive plan means
// full self-pay: every line's patient share equals its base price. A service
// without a coverage rule is covered at 0%.
//
// Pure function: persisting the snapshot onto the invoice is the caller's job.
func CalculateCoverage(plan *models.InsurancePlan, rules []models.CoverageRule, items []models.InvoiceLineItem) models.InsuranceCalculation {
	percentByService := make(map[uint]decimal.Decimal)
	if plan != nil && plan.IsActive {
		for _, rule := range rules {
			if rule.InsurancePlanID == plan.ID {
				percentByService[rule.ServiceItemID] = rule.CoveragePercent
			}
		}
	}

	calc := models.InsuranceCalculation{
		CalculatedAt: time.Now(),
		Lines:        make([]models.CoverageLine, 0, len(items)),
	}
	if plan != nil {
		calc.InsurancePlanID = plan.ID
		calc.InsurerName = plan.InsurerName
	}

	for _, item := range items {
		base := item.LineTotal.Round(moneyPlaces)
		percent := clampPercent(percentByService[item.ServiceItemID])
		covered := base.Mul(percent).Div(percentHundred).Round(moneyPlaces)
		// Patient share is derived by subtraction so the two halves always
		// sum back to the base price exactly.
		pays := base.Sub(covered)

		calc.Lines = append(calc.Lines, models.CoverageLine{
			ServiceItemID:   item.ServiceItemID,
			Description:     item.Description,
			BasePrice:       base,
			CoveragePercent: percent,
			InsurerCovered:  covered,
			PatientPays:     pays,
		})

		calc.TotalBase = calc.TotalBase.Add(base)
		calc.TotalCovered = calc.TotalCovered.Add(covered)
		calc.TotalPatientPays = calc.TotalPatientPays.Add(pays)
	}

	return calc
}

// clampPercent bounds a coverage percentage to [0, 100]
func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(percentHundred) {
		return percentHundred
	}
	return p
}
