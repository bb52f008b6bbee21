package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func activePlan() *models.InsurancePlan {
	return &models.InsurancePlan{
		ID:          1,
		InsurerName: "Sehat Sentosa",
		PlanName:    "Gold",
		IsActive:    true,
	}
}

func lineItem(serviceID uint, total string) models.InvoiceLineItem {
	return models.InvoiceLineItem{
		ServiceItemID: serviceID,
		Description:   "Consultation",
		Quantity:      1,
		UnitPrice:     d(total),
		LineTotal:     d(total),
	}
}

func TestCalculateCoverageSplitsLine(t *testing.T) {
	plan := activePlan()
	rules := []models.CoverageRule{
		{InsurancePlanID: 1, ServiceItemID: 10, CoveragePercent: d("50")},
	}
	items := []models.InvoiceLineItem{lineItem(10, "1000.00")}

	calc := CalculateCoverage(plan, rules, items)

	require.Len(t, calc.Lines, 1)
	assert.True(t, calc.Lines[0].InsurerCovered.Equal(d("500.00")), "covered = %s", calc.Lines[0].InsurerCovered)
	assert.True(t, calc.Lines[0].PatientPays.Equal(d("500.00")), "pays = %s", calc.Lines[0].PatientPays)
	assert.True(t, calc.TotalBase.Equal(d("1000.00")))
	assert.True(t, calc.TotalCovered.Equal(d("500.00")))
	assert.True(t, calc.TotalPatientPays.Equal(d("500.00")))
	assert.Equal(t, "Sehat Sentosa", calc.InsurerName)
}

func TestCalculateCoverageNilPlanIsSelfPay(t *testing.T) {
	items := []models.InvoiceLineItem{lineItem(10, "250.00"), lineItem(11, "80.00")}

	calc := CalculateCoverage(nil, nil, items)

	assert.True(t, calc.TotalCovered.IsZero())
	assert.True(t, calc.TotalPatientPays.Equal(d("330.00")))
	for _, line := range calc.Lines {
		assert.True(t, line.InsurerCovered.IsZero())
		assert.True(t, line.PatientPays.Equal(line.BasePrice))
	}
}

func TestCalculateCoverageInactivePlanIsSelfPay(t *testing.T) {
	plan := activePlan()
	plan.IsActive = false
	rules := []models.CoverageRule{
		{InsurancePlanID: 1, ServiceItemID: 10, CoveragePercent: d("80")},
	}

	calc := CalculateCoverage(plan, rules, []models.InvoiceLineItem{lineItem(10, "100.00")})

	assert.True(t, calc.TotalCovered.IsZero())
	assert.True(t, calc.TotalPatientPays.Equal(d("100.00")))
}

func TestCalculateCoverageUnruledServiceNotCovered(t *testing.T) {
	plan := activePlan()
	rules := []models.CoverageRule{
		{InsurancePlanID: 1, ServiceItemID: 10, CoveragePercent: d("100")},
	}
	items := []models.InvoiceLineItem{
		lineItem(10, "300.00"), // fully covered
		lineItem(99, "120.00"), // no rule
	}

	calc := CalculateCoverage(plan, rules, items)

	assert.True(t, calc.Lines[0].PatientPays.IsZero())
	assert.True(t, calc.Lines[1].PatientPays.Equal(d("120.00")))
	assert.True(t, calc.TotalPatientPays.Equal(d("120.00")))
}

func TestCalculateCoverageIgnoresOtherPlansRules(t *testing.T) {
	plan := activePlan()
	rules := []models.CoverageRule{
		{InsurancePlanID: 2, ServiceItemID: 10, CoveragePercent: d("90")},
	}

	calc := CalculateCoverage(plan, rules, []models.InvoiceLineItem{lineItem(10, "100.00")})

	assert.True(t, calc.TotalCovered.IsZero())
}

func TestCalculateCoverageClampsPercent(t *testing.T) {
	plan := activePlan()
	rules := []models.CoverageRule{
		{InsurancePlanID: 1, ServiceItemID: 10, CoveragePercent: d("150")},
		{InsurancePlanID: 1, ServiceItemID: 11, CoveragePercent: d("-20")},
	}
	items := []models.InvoiceLineItem{lineItem(10, "100.00"), lineItem(11, "100.00")}

	calc := CalculateCoverage(plan, rules, items)

	assert.True(t, calc.Lines[0].InsurerCovered.Equal(d("100.00")))
	assert.True(t, calc.Lines[1].InsurerCovered.IsZero())
}

func TestCalculateCoverageHalvesAlwaysSumToBase(t *testing.T) {
	plan := activePlan()
	rules := []models.CoverageRule{
		{InsurancePlanID: 1, ServiceItemID: 10, CoveragePercent: d("33.33")},
		{InsurancePlanID: 1, ServiceItemID: 11, CoveragePercent: d("66.67")},
	}
	items := []models.InvoiceLineItem{lineItem(10, "99.99"), lineItem(11, "0.01")}

	calc := CalculateCoverage(plan, rules, items)

	for _, line := range calc.Lines {
		sum := line.InsurerCovered.Add(line.PatientPays)
		assert.True(t, sum.Equal(line.BasePrice), "line %d: %s + %s != %s",
			line.ServiceItemID, line.InsurerCovered, line.PatientPays, line.BasePrice)
	}
	assert.True(t, calc.TotalCovered.Add(calc.TotalPatientPays).Equal(calc.TotalBase))
}

func TestCalculateCoverageZeroQuantityLine(t *testing.T) {
	plan := activePlan()
	rules := []models.CoverageRule{
		{InsurancePlanID: 1, ServiceItemID: 10, CoveragePercent: d("50")},
	}
	item := models.InvoiceLineItem{ServiceItemID: 10, Quantity: 0, UnitPrice: d("100.00"), LineTotal: d("0.00")}

	calc := CalculateCoverage(plan, rules, []models.InvoiceLineItem{item})

	assert.True(t, calc.TotalBase.IsZero())
	assert.True(t, calc.TotalPatientPays.IsZero())
}
