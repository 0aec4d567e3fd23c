// Package api holds the HTTP wire types and the chi routing glue for the service.
package api

import (
	"time"
)

// Defines values for TransactionType.
const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
	TransactionTypeEntryFee TransactionType = "entry_fee"
	TransactionTypePrize    TransactionType = "prize"
	TransactionTypeRefund   TransactionType = "refund"
)

// Defines values for TournamentStatus.
const (
	TournamentStatusUpcoming  TournamentStatus = "upcoming"
	TournamentStatusLive      TournamentStatus = "live"
	TournamentStatusCompleted TournamentStatus = "completed"
)

// Account defines model for Account.
type Account struct {
	Balance        int64     `json:"balance"`
	CreatedAt      time.Time `json:"created_at"`
	TotalDeposited int64     `json:"total_deposited"`
	TotalWithdrawn int64     `json:"total_withdrawn"`
	TotalWon       int64     `json:"total_won"`
	UpdatedAt      time.Time `json:"updated_at"`
	UserId         string    `json:"user_id"`
}

// AmountRequest defines model for AmountRequest.
type AmountRequest struct {
	Amount int64 `json:"amount"`

	// Reference External reference of a deposit, e.g. a payment receipt.
	Reference *string `json:"reference,omitempty"`
}

// Player defines model for Player.
type Player struct {
	Role     string `json:"role"`
	UserId   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// Registration defines model for Registration.
type Registration struct {
	FeePaid      int64     `json:"fee_paid"`
	JoinedAt     time.Time `json:"joined_at"`
	Players      []Player  `json:"players"`
	TeamName     *string   `json:"team_name,omitempty"`
	TournamentId string    `json:"tournament_id"`
	UserId       string    `json:"user_id"`
}

// RegistrationRequest defines model for RegistrationRequest.
type RegistrationRequest struct {
	Players  *[]Player `json:"players,omitempty"`
	TeamName *string   `json:"team_name,omitempty"`
}

// RegistrationResult defines model for RegistrationResult.
type RegistrationResult struct {
	AlreadyJoined bool       `json:"already_joined"`
	Tournament    Tournament `json:"tournament"`
}

// Tournament defines model for Tournament.
type Tournament struct {
	EntryFee          int64            `json:"entry_fee"`
	Id                string           `json:"id"`
	MaxSlots          int64            `json:"max_slots"`
	PlayerCount       int64            `json:"player_count"`
	RegisteredPlayers []string         `json:"registered_players"`
	Status            TournamentStatus `json:"status"`
	Title             string           `json:"title"`
}

// TournamentStatus defines model for Tournament.Status.
type TournamentStatus string

// Transaction defines model for Transaction.
type Transaction struct {
	Amount      int64              `json:"amount"`
	CreatedAt   time.Time          `json:"created_at"`
	Description string             `json:"description"`
	Id          string             `json:"id"`
	Metadata    *map[string]string `json:"metadata,omitempty"`
	Type        TransactionType    `json:"type"`
}

// TransactionType defines model for Transaction.Type.
type TransactionType string

// ListTransactionsParams defines parameters for ListTransactions.
type ListTransactionsParams struct {
	// Limit Maximum number of transactions to return, most recent first.
	Limit *int32 `form:"limit,omitempty" json:"limit,omitempty"`
}
