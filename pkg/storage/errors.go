package storage

import "errors"

// ErrInsufficientFunds is returned when a debit's balance predicate fails. No state is changed.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrBalanceLimit is returned when a credit would push a balance or a running total
// past the largest storable amount. No state is changed.
var ErrBalanceLimit = errors.New("credit exceeds the maximum balance")

// ErrBalanceUnavailable is returned when a ledger write was committed but the
// resulting account could not be read back. The write must not be retried under a new ID.
var ErrBalanceUnavailable = errors.New("transaction applied but balance unavailable")

// ErrDuplicateTransaction is returned when a transaction with the same ID was already appended.
var ErrDuplicateTransaction = errors.New("transaction already exists")

// ErrTransactionNotFound is returned when no transaction has the requested ID.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrAccountNotFound is returned when a user has no account yet.
var ErrAccountNotFound = errors.New("account not found")

// ErrAccountExists is returned by CreateAccount when the account is already present.
var ErrAccountExists = errors.New("account already exists")

// ErrTournamentNotFound is returned when no tournament has the requested ID.
var ErrTournamentNotFound = errors.New("tournament not found")

// ErrTournamentExists is returned by CreateTournament when the ID is taken.
var ErrTournamentExists = errors.New("tournament already exists")

// ErrSlotUnavailable is returned when a slot reservation finds the tournament at capacity.
var ErrSlotUnavailable = errors.New("no slot available")

// ErrAlreadyReserved is returned when the user already holds a slot in the tournament.
var ErrAlreadyReserved = errors.New("player already holds a slot")

// ErrRegistrationNotFound is returned when no registration exists for the pair.
var ErrRegistrationNotFound = errors.New("registration not found")

// ErrRegistrationExists is returned when a registration for the pair was already written.
var ErrRegistrationExists = errors.New("registration already exists")
