package getapi

import "time"

// Transaction is one raw transaction record exactly as the platform returns
// it. Amounts are signed: positive is a debit against the plan, negative is a
// refund or credit.
type Transaction struct {
	TransactionID       string  `json:"transactionId"`
	TransactionSequence int     `json:"transactionSequence"`
	TransactionType     int     `json:"transactionType"`
	Amount              float64 `json:"amount"`
	ResultingBalance    float64 `json:"resultingBalance"`
	PostedDate          string  `json:"postedDate"`
	ActualDate          string  `json:"actualDate"`
	PatronID            string  `json:"patronId"`
	PlanID              string  `json:"planId"`
	TenderID            string  `json:"tenderId"`
	LocationID          string  `json:"locationId"`
	LocationName        string  `json:"locationName"`
	PatronFullName      string  `json:"patronFullName"`
	AccountType         int     `json:"accountType"`
	AccountName         string  `json:"accountName"`
	PaymentSystemType   int     `json:"paymentSystemType"`
	TransactionKey      string  `json:"transactionKey"`
}

// TransactionHistory is the result of a windowed history retrieval.
// ReturnCapped signals server-side truncation to the requested maximum, so
// TotalCount may exceed len(Transactions).
type TransactionHistory struct {
	TotalCount   int           `json:"totalCount"`
	ReturnCapped bool          `json:"returnCapped"`
	Transactions []Transaction `json:"transactions"`
}

// TransactionQuery describes the retrieval window. Nil dates mean an open
// end of the window.
type TransactionQuery struct {
	OldestDate          *time.Time
	NewestDate          *time.Time
	MaxReturnMostRecent int
	PaymentSystemType   int
	AccountID           *string
}
