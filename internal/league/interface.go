package league

import "context"

// Store defines read access to league entities plus the writes needed to seed them.
// Get* methods return ErrNotFound for missing rows; Find* methods return nil, nil.
type Store interface {
	GetLeague(ctx context.Context, leagueID string) (*League, error)
	GetSeason(ctx context.Context, seasonID string) (*Season, error)
	GetRound(ctx context.Context, roundID string) (*Round, error)
	GetPlayer(ctx context.Context, playerID string) (*Player, error)
	GetTeam(ctx context.Context, teamID string) (*Team, error)
	GetPairing(ctx context.Context, pairingID string) (*Pairing, error)

	FindTeamPairing(ctx context.Context, teamID, roundID string) (*TeamPairing, error)
	FindRosterPlayer(ctx context.Context, teamID string, boardNumber int) (*Player, error)
	FindPreference(ctx context.Context, key PreferenceKey) (*NotificationPreference, error)
	FindLatestActiveSeason(ctx context.Context, leagueID string) (*Season, error)

	BoardPairings(ctx context.Context, teamPairingID string, boardNumber int) ([]*Pairing, error)
	RoundPairings(ctx context.Context, roundID string, filter PairingFilter) ([]*Pairing, error)
	PairingGroups(ctx context.Context, roundID string) ([]PairingGroup, error)
	IsAvailable(ctx context.Context, playerID, roundID string) (bool, error)
	UnavailablePlayers(ctx context.Context, roundID string) (map[string]bool, error)
	PendingRegistrationCount(ctx context.Context, seasonID string) (int, error)
	LeaguesForPlayer(ctx context.Context, playerID string) ([]*League, error)

	SavePlayer(ctx context.Context, player *Player) error
	SaveLeague(ctx context.Context, league *League) error
	SaveSeason(ctx context.Context, season *Season) error
	SaveRound(ctx context.Context, round *Round) error
	SaveTeam(ctx context.Context, seasonID string, team *Team) error
	SaveTeamMember(ctx context.Context, teamID, playerID string, boardNumber int, isCaptain bool) error
	SaveTeamPairing(ctx context.Context, tp *TeamPairing) error
	SavePairing(ctx context.Context, pairing *Pairing) error
	SavePreference(ctx context.Context, pref *NotificationPreference) error
	SetAvailability(ctx context.Context, playerID, roundID string, available bool) error
	SaveRegistration(ctx context.Context, seasonID, username, status string) error
}
