package core

import "time"

// Summary is the derived snapshot of the whole budget, recomputed on every
// read. ReadyToAssign is total account funds minus the funds sitting in
// envelopes; overspent envelopes (negative available) are excluded from that
// subtraction so one envelope's overspend never inflates the pool.
type Summary struct {
	ReadyToAssign  Money
	TotalBalance   Money
	TotalBudgeted  Money
	TotalOverspent Money
}

// TransactionView is a transaction joined with its account and envelope
// names for display. EnvelopeName is empty for income and transfers.
type TransactionView struct {
	Transaction
	AccountName  string
	EnvelopeName string
}

// DayGroup holds the transactions of one calendar day, a read-side grouping
// for presentation only.
type DayGroup struct {
	Day          time.Time
	Transactions []TransactionView
}

// GroupByDay buckets transactions by calendar day, preserving the input
// order within each day. The input is expected sorted by date descending,
// which keeps the returned groups in that order too.
func GroupByDay(views []TransactionView) []DayGroup {
	var groups []DayGroup
	index := make(map[time.Time]int)
	for _, v := range views {
		day := time.Date(v.Date.Year(), v.Date.Month(), v.Date.Day(), 0, 0, 0, 0, time.UTC)
		i, ok := index[day]
		if !ok {
			groups = append(groups, DayGroup{Day: day})
			i = len(groups) - 1
			index[day] = i
		}
		groups[i].Transactions = append(groups[i].Transactions, v)
	}
	return groups
}
