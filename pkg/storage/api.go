package storage

// ApiStore defines the set of operations needed by the HTTP API.
// Ledger writes are not part of it: the API reaches them only through the wallet service.
type ApiStore interface {
	AccountStore
	TransactionReader
	TournamentReader
	RegistrationReader
}
