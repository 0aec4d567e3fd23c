package models

import (
	"slices"
	"time"
)

// TransactionType defines the kind of ledger movement a transaction records.
type TransactionType string

const (
	DEPOSIT   TransactionType = "deposit"
	WITHDRAW  TransactionType = "withdraw"
	ENTRY_FEE TransactionType = "entry_fee"
	PRIZE     TransactionType = "prize"
	REFUND    TransactionType = "refund"
)

// IsDebit reports whether the type removes funds from an account.
func (t TransactionType) IsDebit() bool {
	return t == WITHDRAW || t == ENTRY_FEE
}

// IsCredit reports whether the type adds funds to an account.
func (t TransactionType) IsCredit() bool {
	return t == DEPOSIT || t == PRIZE || t == REFUND
}

// TransactionStatus defines the possible states of a transaction.
type TransactionStatus string

const (
	PENDING   TransactionStatus = "pending"
	COMPLETED TransactionStatus = "completed"
	FAILED    TransactionStatus = "failed"
)

// Metadata keys attached to ledger transactions.
const (
	MetaTournamentID = "tournament_id"
	MetaRefundOf     = "refund_of"
	MetaReference    = "reference"
)

// Account is a user's wallet. Balance is a cached value derived from the
// account's completed transactions and is never negative.
type Account struct {
	UserId         string    `json:"user_id" dynamodbav:"user_id"`
	Balance        int64     `json:"balance" dynamodbav:"balance"`
	TotalDeposited int64     `json:"total_deposited" dynamodbav:"total_deposited"`
	TotalWithdrawn int64     `json:"total_withdrawn" dynamodbav:"total_withdrawn"`
	TotalWon       int64     `json:"total_won" dynamodbav:"total_won"`
	Version        int64     `json:"version" dynamodbav:"version"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Transaction is an immutable ledger entry owned by one account.
// Amount is signed: debits are negative and credits positive.
type Transaction struct {
	Id          string            `json:"id" dynamodbav:"id"`
	UserId      string            `json:"user_id" dynamodbav:"user_id"`
	Type        TransactionType   `json:"type" dynamodbav:"type"`
	Amount      int64             `json:"amount" dynamodbav:"amount"`
	Description string            `json:"description" dynamodbav:"description"`
	Status      TransactionStatus `json:"status" dynamodbav:"status"`
	Metadata    map[string]string `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at" dynamodbav:"created_at"`
}

// TournamentID returns the tournament the transaction refers to, if any.
func (t *Transaction) TournamentID() string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata[MetaTournamentID]
}

// TournamentStatus defines the lifecycle states of a tournament.
type TournamentStatus string

const (
	UPCOMING TournamentStatus = "upcoming"
	LIVE     TournamentStatus = "live"
	FINISHED TournamentStatus = "completed"
)

// Joinable reports whether new players may register.
func (s TournamentStatus) Joinable() bool {
	return s == UPCOMING || s == LIVE
}

// Tournament holds the fields the registration flow reads and the
// denormalized participant set it maintains. PlayerCount always equals
// len(RegisteredPlayers); both are changed in the same conditional update.
type Tournament struct {
	Id                string           `json:"id" dynamodbav:"id"`
	Title             string           `json:"title" dynamodbav:"title"`
	EntryFee          int64            `json:"entry_fee" dynamodbav:"entry_fee"`
	MaxSlots          int64            `json:"max_slots" dynamodbav:"max_slots"`
	Status            TournamentStatus `json:"status" dynamodbav:"status"`
	RegisteredPlayers []string         `json:"registered_players" dynamodbav:"registered_players,stringset,omitempty"`
	PlayerCount       int64            `json:"player_count" dynamodbav:"player_count"`
	CreatedAt         time.Time        `json:"created_at" dynamodbav:"created_at"`
}

// HasPlayer reports whether userID holds a slot.
func (t *Tournament) HasPlayer(userID string) bool {
	return slices.Contains(t.RegisteredPlayers, userID)
}

// IsFull reports whether every slot is taken.
func (t *Tournament) IsFull() bool {
	return int64(len(t.RegisteredPlayers)) >= t.MaxSlots
}

// Player is one member of a registered team.
type Player struct {
	UserId   string `json:"user_id" dynamodbav:"user_id"`
	UserName string `json:"user_name" dynamodbav:"user_name"`
	Role     string `json:"role" dynamodbav:"role"`
}

// Registration records that a user secured both payment and a slot.
// Exactly one may exist per (TournamentId, UserId).
type Registration struct {
	TournamentId     string    `json:"tournament_id" dynamodbav:"tournament_id"`
	UserId           string    `json:"user_id" dynamodbav:"user_id"`
	FeePaid          int64     `json:"fee_paid" dynamodbav:"fee_paid"`
	FeeTransactionId string    `json:"fee_transaction_id,omitempty" dynamodbav:"fee_transaction_id,omitempty"`
	TeamName         string    `json:"team_name,omitempty" dynamodbav:"team_name,omitempty"`
	Players          []Player  `json:"players,omitempty" dynamodbav:"players,omitempty"`
	JoinedAt         time.Time `json:"joined_at" dynamodbav:"joined_at"`
}
