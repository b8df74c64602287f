package wrapped

import "diningwrapped/internal/getapi"

// Transaction is one normalized transaction. It is the platform record with
// the location name replaced by its canonical form; records matching an
// exclusion rule never become a Transaction at all.
type Transaction struct {
	ID             string
	Amount         float64
	PostedDate     string
	ActualDate     string
	LocationName   string
	AccountName    string
	PatronFullName string
}

func fromPlatform(t getapi.Transaction, canonicalLocation string) Transaction {
	return Transaction{
		ID:             t.TransactionID,
		Amount:         t.Amount,
		PostedDate:     t.PostedDate,
		ActualDate:     t.ActualDate,
		LocationName:   canonicalLocation,
		AccountName:    t.AccountName,
		PatronFullName: t.PatronFullName,
	}
}

// LocationCount is one entry of the visit-frequency ranking. Percent is the
// share of all transactions, not just positive-amount ones.
type LocationCount struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// TimeBucket is one fixed-width three-hour interval of the day histogram.
type TimeBucket struct {
	StartHour int `json:"startHour"` // inclusive
	EndHour   int `json:"endHour"`   // exclusive
	Count     int `json:"count"`
}

// Summary is the derived, read-only aggregate handed to the presentation
// layer. It is the sole data surface the slides consume.
type Summary struct {
	TotalCount          int             `json:"totalCount"`
	TotalSpent          float64         `json:"totalSpent"`
	UniqueLocationCount int             `json:"uniqueLocationCount"`
	TopLocations        []LocationCount `json:"topLocations"`
	MostExpensive       *Transaction    `json:"mostExpensive,omitempty"`
	TimeBuckets         [8]TimeBucket   `json:"timeBuckets"`
	BusiestHour         int             `json:"busiestHour"` // -1 when no record had a parseable date
	BusiestHourCount    int             `json:"busiestHourCount"`
	PlanSavings         PlanSavings     `json:"planSavings"`
}
