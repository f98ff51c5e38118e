package model

import "time"

// Observation is one fetch result for one product.
type Observation struct {
	URL       string
	Title     string
	Price     Price
	Currency  Currency
	FetchedAt time.Time
}

// Entry returns the part of the observation kept in the history.
func (o Observation) Entry() Entry {
	return Entry{Price: o.Price, Currency: o.Currency}
}
