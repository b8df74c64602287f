package wrapped

import (
	"math"
	"time"
)

// PlanSavings estimates what the meal plan cost against what it delivered.
// All figures derive from published plan constants and the normalized
// transaction list; nothing here talks to the platform.
type PlanSavings struct {
	// RequiredPlan is the mandatory-style plan the patron appears to hold:
	// standard if it saw any net spend, else flex, else unclassified.
	RequiredPlan        PlanCategory `json:"requiredPlan"`
	RequiredPlanCost    float64      `json:"requiredPlanCost"`
	SpentOnRequiredPlan float64      `json:"spentOnRequiredPlan"`
	// SavedIfNotRequired is cost minus net spend, floored at zero: what the
	// patron would keep if the university did not mandate the plan.
	SavedIfNotRequired float64 `json:"savedIfNotRequired"`
	// StandardOverSpend is net standard-plan spend beyond the plan cost.
	StandardOverSpend float64 `json:"standardOverSpend"`

	FlexSpendPool float64 `json:"flexSpendPool"`
	FlexRemaining float64 `json:"flexRemaining"`
	// SavedIfSpendAllFlex is the gap between the flex price and its spend
	// pool: lost money even when the whole pool gets used.
	SavedIfSpendAllFlex float64 `json:"savedIfSpendAllFlex"`

	NeighborhoodSpent float64 `json:"neighborhoodSpent"`
	// NeighborhoodCashEquivalent is the estimated pre-discount cash total:
	// each positive amount divided by (1 - discount rate), except at the
	// discount-exempt location where the amount already is the cash price.
	NeighborhoodCashEquivalent  float64 `json:"neighborhoodCashEquivalent"`
	NeighborhoodDiscountSavings float64 `json:"neighborhoodDiscountSavings"`

	FlyerExpressSpent    float64 `json:"flyerExpressSpent"`
	OnlyUsedFlyerExpress bool    `json:"onlyUsedFlyerExpress"`
}

type categoryTotals struct {
	spent   float64
	refunds float64
}

func (t categoryTotals) net() float64 {
	return math.Max(0, t.spent-t.refunds)
}

// ComputePlanSavings classifies every record and applies the published plan
// figures.
func ComputePlanSavings(txs []Transaction) PlanSavings {
	totals := map[PlanCategory]*categoryTotals{
		PlanStandard:     {},
		PlanFlex:         {},
		PlanNeighborhood: {},
		PlanFlyerExpress: {},
	}
	var neighborhoodCash float64

	for _, t := range txs {
		category := ClassifyPlan(t.AccountName)
		ct, ok := totals[category]
		if !ok {
			continue
		}
		switch {
		case t.Amount > 0:
			ct.spent += t.Amount
		case t.Amount < 0:
			ct.refunds += math.Abs(t.Amount)
		}

		if category == PlanNeighborhood && t.Amount > 0 {
			if isDiscountExempt(t.LocationName) {
				neighborhoodCash += t.Amount
			} else {
				neighborhoodCash += t.Amount / (1 - NeighborhoodDiscountRate)
			}
		}
	}

	netStandard := totals[PlanStandard].net()
	netFlex := totals[PlanFlex].net()
	netNeighborhood := totals[PlanNeighborhood].net()
	netFlyer := totals[PlanFlyerExpress].net()

	s := PlanSavings{
		RequiredPlan:        PlanUnclassified,
		FlexSpendPool:       FlexSpendPool,
		SavedIfSpendAllFlex: math.Max(0, FlexPlanCost-FlexSpendPool),

		NeighborhoodSpent:          netNeighborhood,
		NeighborhoodCashEquivalent: math.Max(0, neighborhoodCash),

		FlyerExpressSpent:    netFlyer,
		OnlyUsedFlyerExpress: netFlyer > 0 && netStandard == 0 && netFlex == 0 && netNeighborhood == 0,
	}
	s.NeighborhoodDiscountSavings = math.Max(0, s.NeighborhoodCashEquivalent-netNeighborhood)

	switch {
	case netStandard > 0:
		s.RequiredPlan = PlanStandard
		s.RequiredPlanCost = StandardPlanCost
		s.SpentOnRequiredPlan = netStandard
		s.StandardOverSpend = math.Max(0, netStandard-StandardPlanCost)
	case netFlex > 0:
		s.RequiredPlan = PlanFlex
		s.RequiredPlanCost = FlexPlanCost
		s.SpentOnRequiredPlan = netFlex
		s.FlexRemaining = math.Max(0, FlexSpendPool-netFlex)
	default:
		s.FlexRemaining = FlexSpendPool
	}
	s.SavedIfNotRequired = math.Max(0, s.RequiredPlanCost-s.SpentOnRequiredPlan)

	return s
}

// MostExpensive selects the record with the greatest absolute amount, which
// covers both large debits and large refunds. Ties keep the first record in
// list order. Returns nil for an empty list.
func MostExpensive(txs []Transaction) *Transaction {
	var best *Transaction
	for i := range txs {
		if best == nil || math.Abs(txs[i].Amount) > math.Abs(best.Amount) {
			best = &txs[i]
		}
	}
	if best == nil {
		return nil
	}
	found := *best
	return &found
}

// TopLocations ranks canonical locations by positive-amount visit count,
// first-seen order breaking ties, and reports each count as a percentage of
// the total transaction count.
func TopLocations(txs []Transaction, n int) []LocationCount {
	counts := make(map[string]int)
	var order []string
	for _, t := range txs {
		if t.Amount <= 0 {
			continue
		}
		if _, seen := counts[t.LocationName]; !seen {
			order = append(order, t.LocationName)
		}
		counts[t.LocationName]++
	}

	// Insertion sort by count keeps the first-seen order stable for ties.
	ranked := make([]LocationCount, 0, len(order))
	for _, name := range order {
		entry := LocationCount{Name: name, Count: counts[name]}
		if len(txs) > 0 {
			entry.Percent = float64(entry.Count) / float64(len(txs)) * 100
		}
		pos := len(ranked)
		for pos > 0 && ranked[pos-1].Count < entry.Count {
			pos--
		}
		ranked = append(ranked, LocationCount{})
		copy(ranked[pos+1:], ranked[pos:])
		ranked[pos] = entry
	}

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// UniqueLocationCount counts distinct canonical names among positive-amount
// records.
func UniqueLocationCount(txs []Transaction) int {
	seen := make(map[string]struct{})
	for _, t := range txs {
		if t.Amount > 0 {
			seen[t.LocationName] = struct{}{}
		}
	}
	return len(seen)
}

// TotalSpent sums positive amounts only; refunds stay out of the headline
// figure.
func TotalSpent(txs []Transaction) float64 {
	var total float64
	for _, t := range txs {
		if t.Amount > 0 {
			total += t.Amount
		}
	}
	return total
}

// timestampLayouts covers the shapes the platform has been seen emitting.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseHour(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Hour(), true
		}
	}
	return 0, false
}

// transactionHour takes the calendar hour from the actual date, falling back
// to the posted date; the second return is false when neither parses.
func transactionHour(t Transaction) (int, bool) {
	if hour, ok := parseHour(t.ActualDate); ok {
		return hour, true
	}
	return parseHour(t.PostedDate)
}

// TimeOfDay aggregates transaction hours into eight fixed three-hour buckets
// and separately tracks the single busiest hour (0-23). Records with no
// parseable date are skipped. BusiestHour is -1 when nothing parsed.
func TimeOfDay(txs []Transaction) (buckets [8]TimeBucket, busiestHour, busiestCount int) {
	for i := range buckets {
		buckets[i] = TimeBucket{StartHour: i * 3, EndHour: i*3 + 3}
	}

	var hourCounts [24]int
	for _, t := range txs {
		hour, ok := transactionHour(t)
		if !ok {
			continue
		}
		buckets[hour/3].Count++
		hourCounts[hour]++
	}

	busiestHour = -1
	for hour, count := range hourCounts {
		if count > busiestCount {
			busiestHour = hour
			busiestCount = count
		}
	}
	return buckets, busiestHour, busiestCount
}

// Summarize derives the full read-only aggregate from a normalized
// transaction list. Pure: no mutation of the input, no external calls.
func Summarize(txs []Transaction) Summary {
	buckets, busiestHour, busiestCount := TimeOfDay(txs)
	return Summary{
		TotalCount:          len(txs),
		TotalSpent:          TotalSpent(txs),
		UniqueLocationCount: UniqueLocationCount(txs),
		TopLocations:        TopLocations(txs, 3),
		MostExpensive:       MostExpensive(txs),
		TimeBuckets:         buckets,
		BusiestHour:         busiestHour,
		BusiestHourCount:    busiestCount,
		PlanSavings:         ComputePlanSavings(txs),
	}
}
