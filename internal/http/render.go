package http

import (
	"time"

	"buste/internal/core"
	"buste/internal/services"
)

// The wire shapes are deliberately separate from the core types: money goes
// out as a plain decimal string plus a currency-formatted display string,
// dates as YYYY-MM-DD, and optional references are omitted when unset.

type accountDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
}

type envelopeDTO struct {
	ID        int64  `json:"id"`
	GroupID   int64  `json:"group_id"`
	Name      string `json:"name"`
	Budgeted  string `json:"budgeted"`
	Available string `json:"available"`
	Display   string `json:"available_display"`
	Target    string `json:"target,omitempty"`
}

type groupDTO struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Envelopes []envelopeDTO `json:"envelopes"`
}

type transactionDTO struct {
	ID            int64  `json:"id"`
	AccountID     int64  `json:"account_id"`
	AccountName   string `json:"account_name,omitempty"`
	CategoryID    int64  `json:"category_id,omitempty"`
	EnvelopeName  string `json:"envelope_name,omitempty"`
	Type          string `json:"type"`
	TransferID    string `json:"transfer_id,omitempty"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	Payee         string `json:"payee"`
	Date          string `json:"date"`
	Notes         string `json:"notes,omitempty"`
}

type dayGroupDTO struct {
	Date         string           `json:"date"`
	Transactions []transactionDTO `json:"transactions"`
}

type summaryDTO struct {
	ReadyToAssign        string `json:"ready_to_assign"`
	ReadyToAssignDisplay string `json:"ready_to_assign_display"`
	TotalBalance         string `json:"total_balance"`
	TotalBudgeted        string `json:"total_budgeted"`
	TotalOverspent       string `json:"total_overspent"`
}

func renderAccount(a core.Account) accountDTO {
	return accountDTO{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   a.Balance.String(),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

func renderEnvelope(e core.Envelope) envelopeDTO {
	dto := envelopeDTO{
		ID:        e.ID,
		GroupID:   e.GroupID,
		Name:      e.Name,
		Budgeted:  e.Budgeted.String(),
		Available: e.Available.String(),
		Display:   e.Available.Display(),
	}
	if !e.Target.IsZero() {
		dto.Target = e.Target.String()
	}
	return dto
}

func renderGroups(groups []services.EnvelopeGroupView) []groupDTO {
	out := make([]groupDTO, 0, len(groups))
	for _, g := range groups {
		dto := groupDTO{ID: g.ID, Name: g.Name, Envelopes: make([]envelopeDTO, 0, len(g.Envelopes))}
		for _, e := range g.Envelopes {
			dto.Envelopes = append(dto.Envelopes, renderEnvelope(e))
		}
		out = append(out, dto)
	}
	return out
}

func renderTransactionView(v core.TransactionView) transactionDTO {
	return transactionDTO{
		ID:            v.ID,
		AccountID:     v.AccountID,
		AccountName:   v.AccountName,
		CategoryID:    v.CategoryID,
		EnvelopeName:  v.EnvelopeName,
		Type:          string(v.Type),
		TransferID:    v.TransferID,
		Amount:        v.Amount.String(),
		AmountDisplay: v.Amount.Display(),
		Payee:         v.Payee,
		Date:          v.Date.Format(dateLayout),
		Notes:         v.Notes,
	}
}

func renderDayGroups(groups []core.DayGroup) []dayGroupDTO {
	out := make([]dayGroupDTO, 0, len(groups))
	for _, g := range groups {
		dto := dayGroupDTO{Date: g.Day.Format(dateLayout)}
		for _, v := range g.Transactions {
			dto.Transactions = append(dto.Transactions, renderTransactionView(v))
		}
		out = append(out, dto)
	}
	return out
}

func renderSummary(s core.Summary) summaryDTO {
	return summaryDTO{
		ReadyToAssign:        s.ReadyToAssign.String(),
		ReadyToAssignDisplay: s.ReadyToAssign.Display(),
		TotalBalance:         s.TotalBalance.String(),
		TotalBudgeted:        s.TotalBudgeted.String(),
		TotalOverspent:       s.TotalOverspent.String(),
	}
}
