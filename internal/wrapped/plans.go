package wrapped

import "strings"

// PlanCategory classifies a transaction's payment account into one of the
// published meal-plan types.
type PlanCategory int

const (
	// PlanUnclassified is any account no category rule matches.
	PlanUnclassified PlanCategory = iota
	// PlanStandard is the mandatory standard meal plan.
	PlanStandard
	// PlanFlex is the flex plan: same cost, smaller spend pool.
	PlanFlex
	// PlanNeighborhood is the discounted neighborhood plan.
	PlanNeighborhood
	// PlanFlyerExpress is the optional declining-balance account.
	PlanFlyerExpress
)

func (c PlanCategory) String() string {
	switch c {
	case PlanStandard:
		return "standard"
	case PlanFlex:
		return "flex"
	case PlanNeighborhood:
		return "neighborhood"
	case PlanFlyerExpress:
		return "flyerExpress"
	default:
		return "unclassified"
	}
}

// MarshalText renders the category name into JSON summaries.
func (c PlanCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Published plan figures driving the savings estimates.
const (
	// StandardPlanCost is the semester price of the standard plan.
	StandardPlanCost = 3395.0
	// FlexPlanCost is the semester price of the flex plan.
	FlexPlanCost = 3395.0
	// FlexSpendPool is the flex dollars actually granted to spend.
	FlexSpendPool = 2595.0
	// NeighborhoodDiscountRate is the discount applied to neighborhood-plan
	// purchases everywhere except the exempt location.
	NeighborhoodDiscountRate = 0.10
)

// discountExemptLocation gets no neighborhood discount (the just-walk-out
// store), so its post-discount amounts already equal cash prices.
const discountExemptLocation = "emporium"

// planRule pairs a predicate with its category. The table is ordered and
// evaluated first-match-wins; an account name satisfying several keyword
// sets resolves to the earliest rule. That ordering is preserved behavior,
// not an intended precedence hierarchy.
type planRule struct {
	category PlanCategory
	match    func(nameLower string) bool
}

var planRules = []planRule{
	{PlanStandard, func(name string) bool {
		return strings.Contains(name, "standard") ||
			(strings.Contains(name, "meal") && !strings.Contains(name, "flex"))
	}},
	{PlanFlex, func(name string) bool {
		return strings.Contains(name, "flex")
	}},
	{PlanNeighborhood, func(name string) bool {
		return strings.Contains(name, "neighborhood")
	}},
	{PlanFlyerExpress, func(name string) bool {
		return strings.Contains(name, "flyer express") || strings.Contains(name, "flyer")
	}},
}

// ClassifyPlan derives the plan category from a free-text account label.
func ClassifyPlan(accountName string) PlanCategory {
	name := strings.ToLower(accountName)
	for _, rule := range planRules {
		if rule.match(name) {
			return rule.category
		}
	}
	return PlanUnclassified
}

func isDiscountExempt(locationName string) bool {
	return strings.Contains(strings.ToLower(locationName), discountExemptLocation)
}
