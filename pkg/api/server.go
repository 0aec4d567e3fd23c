package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Get the caller's wallet, creating it on first access
	// (GET /wallet)
	GetWallet(w http.ResponseWriter, r *http.Request)
	// Deposit funds into the caller's wallet
	// (POST /wallet/deposit)
	Deposit(w http.ResponseWriter, r *http.Request)
	// List the caller's transactions
	// (GET /wallet/transactions)
	ListTransactions(w http.ResponseWriter, r *http.Request, params ListTransactionsParams)
	// Withdraw funds from the caller's wallet
	// (POST /wallet/withdraw)
	Withdraw(w http.ResponseWriter, r *http.Request)
	// Get a tournament snapshot
	// (GET /tournaments/{tournamentId})
	GetTournament(w http.ResponseWriter, r *http.Request, tournamentId string)
	// List a tournament's registrations
	// (GET /tournaments/{tournamentId}/registrations)
	ListRegistrations(w http.ResponseWriter, r *http.Request, tournamentId string)
	// Register the caller for a tournament
	// (POST /tournaments/{tournamentId}/registrations)
	RegisterForTournament(w http.ResponseWriter, r *http.Request, tournamentId string)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareFunc func(http.Handler) http.Handler

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	handler := http.Handler(fn)
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

// GetWallet operation middleware
func (siw *ServerInterfaceWrapper) GetWallet(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetWallet(w, r)
	})
}

// Deposit operation middleware
func (siw *ServerInterfaceWrapper) Deposit(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.Deposit(w, r)
	})
}

// ListTransactions operation middleware
func (siw *ServerInterfaceWrapper) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var params ListTransactionsParams

	err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListTransactions(w, r, params)
	})
}

// Withdraw operation middleware
func (siw *ServerInterfaceWrapper) Withdraw(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.Withdraw(w, r)
	})
}

func (siw *ServerInterfaceWrapper) bindTournamentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var tournamentId string

	err := runtime.BindStyledParameterWithOptions("simple", "tournamentId", chi.URLParam(r, "tournamentId"), &tournamentId,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "tournamentId", Err: err})
		return "", false
	}
	return tournamentId, true
}

// GetTournament operation middleware
func (siw *ServerInterfaceWrapper) GetTournament(w http.ResponseWriter, r *http.Request) {
	tournamentId, ok := siw.bindTournamentID(w, r)
	if !ok {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetTournament(w, r, tournamentId)
	})
}

// ListRegistrations operation middleware
func (siw *ServerInterfaceWrapper) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	tournamentId, ok := siw.bindTournamentID(w, r)
	if !ok {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListRegistrations(w, r, tournamentId)
	})
}

// RegisterForTournament operation middleware
func (siw *ServerInterfaceWrapper) RegisterForTournament(w http.ResponseWriter, r *http.Request) {
	tournamentId, ok := siw.bindTournamentID(w, r)
	if !ok {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.RegisterForTournament(w, r, tournamentId)
	})
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// Handler creates an http.Handler routing every ServerInterface operation.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerFromMux registers every ServerInterface operation on the provided mux.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{
		BaseRouter: r,
	})
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/wallet", wrapper.GetWallet)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/wallet/deposit", wrapper.Deposit)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/wallet/transactions", wrapper.ListTransactions)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/wallet/withdraw", wrapper.Withdraw)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/tournaments/{tournamentId}", wrapper.GetTournament)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/tournaments/{tournamentId}/registrations", wrapper.ListRegistrations)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/tournaments/{tournamentId}/registrations", wrapper.RegisterForTournament)
	})

	return r
}
