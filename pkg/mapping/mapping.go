package mapping

import (
	"github.com/chris/tournament-wallet/pkg/api"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/registration"
)

// ToApiAccount converts a domain Account model to an API Account model.
func ToApiAccount(acc *models.Account) *api.Account {
	return &api.Account{
		UserId:         acc.UserId,
		Balance:        acc.Balance,
		TotalDeposited: acc.TotalDeposited,
		TotalWithdrawn: acc.TotalWithdrawn,
		TotalWon:       acc.TotalWon,
		CreatedAt:      acc.CreatedAt,
		UpdatedAt:      acc.UpdatedAt,
	}
}

// ToApiTransaction converts a domain Transaction model to an API Transaction model.
func ToApiTransaction(tx *models.Transaction) *api.Transaction {
	out := &api.Transaction{
		Id:          tx.Id,
		Type:        api.TransactionType(tx.Type),
		Amount:      tx.Amount,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
	}
	if len(tx.Metadata) > 0 {
		md := make(map[string]string, len(tx.Metadata))
		for k, v := range tx.Metadata {
			md[k] = v
		}
		out.Metadata = &md
	}
	return out
}

// ToApiTournament converts a tournament snapshot. RegisteredPlayers is never
// null on the wire.
func ToApiTournament(t *models.Tournament) *api.Tournament {
	players := make([]string, len(t.RegisteredPlayers))
	copy(players, t.RegisteredPlayers)
	return &api.Tournament{
		Id:                t.Id,
		Title:             t.Title,
		EntryFee:          t.EntryFee,
		MaxSlots:          t.MaxSlots,
		Status:            api.TournamentStatus(t.Status),
		RegisteredPlayers: players,
		PlayerCount:       t.PlayerCount,
	}
}

// ToApiRegistration converts a domain Registration model to an API Registration model.
func ToApiRegistration(reg *models.Registration) *api.Registration {
	out := &api.Registration{
		TournamentId: reg.TournamentId,
		UserId:       reg.UserId,
		FeePaid:      reg.FeePaid,
		JoinedAt:     reg.JoinedAt,
		Players:      make([]api.Player, 0, len(reg.Players)),
	}
	if reg.TeamName != "" {
		name := reg.TeamName
		out.TeamName = &name
	}
	for _, p := range reg.Players {
		out.Players = append(out.Players, api.Player{UserId: p.UserId, UserName: p.UserName, Role: p.Role})
	}
	return out
}

// ToDomainPayload converts the optional registration body into the coordinator's payload.
func ToDomainPayload(req *api.RegistrationRequest) registration.Payload {
	var payload registration.Payload
	if req == nil {
		return payload
	}
	if req.TeamName != nil {
		payload.TeamName = *req.TeamName
	}
	if req.Players != nil {
		for _, p := range *req.Players {
			payload.Players = append(payload.Players, models.Player{UserId: p.UserId, UserName: p.UserName, Role: p.Role})
		}
	}
	return payload
}
