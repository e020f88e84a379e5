package league

import (
	"context"
	"sync"
)

// MockStore is a mock implementation of the Store interface for testing.
// Unset read hooks return zero values (nil records, available players, no rows).
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	GetLeagueFunc                func(leagueID string) (*League, error)
	GetSeasonFunc                func(seasonID string) (*Season, error)
	GetRoundFunc                 func(roundID string) (*Round, error)
	GetPlayerFunc                func(playerID string) (*Player, error)
	GetTeamFunc                  func(teamID string) (*Team, error)
	GetPairingFunc               func(pairingID string) (*Pairing, error)
	FindTeamPairingFunc          func(teamID, roundID string) (*TeamPairing, error)
	FindRosterPlayerFunc         func(teamID string, boardNumber int) (*Player, error)
	FindPreferenceFunc           func(key PreferenceKey) (*NotificationPreference, error)
	FindLatestActiveSeasonFunc   func(leagueID string) (*Season, error)
	BoardPairingsFunc            func(teamPairingID string, boardNumber int) ([]*Pairing, error)
	RoundPairingsFunc            func(roundID string, filter PairingFilter) ([]*Pairing, error)
	PairingGroupsFunc            func(roundID string) ([]PairingGroup, error)
	IsAvailableFunc              func(playerID, roundID string) (bool, error)
	UnavailablePlayersFunc       func(roundID string) (map[string]bool, error)
	PendingRegistrationCountFunc func(seasonID string) (int, error)
	LeaguesForPlayerFunc         func(playerID string) ([]*League, error)

	// Call records
	FindPreferenceCalls []PreferenceKey
	PairingGroupsCalls  []string
	SavedPlayers        []*Player
	SavedPreferences    []*NotificationPreference
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

var _ Store = (*MockStore)(nil)

func (m *MockStore) GetLeague(ctx context.Context, leagueID string) (*League, error) {
	if m.GetLeagueFunc != nil {
		return m.GetLeagueFunc(leagueID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetSeason(ctx context.Context, seasonID string) (*Season, error) {
	if m.GetSeasonFunc != nil {
		return m.GetSeasonFunc(seasonID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetRound(ctx context.Context, roundID string) (*Round, error) {
	if m.GetRoundFunc != nil {
		return m.GetRoundFunc(roundID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(playerID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	if m.GetTeamFunc != nil {
		return m.GetTeamFunc(teamID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetPairing(ctx context.Context, pairingID string) (*Pairing, error) {
	if m.GetPairingFunc != nil {
		return m.GetPairingFunc(pairingID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) FindTeamPairing(ctx context.Context, teamID, roundID string) (*TeamPairing, error) {
	if m.FindTeamPairingFunc != nil {
		return m.FindTeamPairingFunc(teamID, roundID)
	}
	return nil, nil
}

func (m *MockStore) FindRosterPlayer(ctx context.Context, teamID string, boardNumber int) (*Player, error) {
	if m.FindRosterPlayerFunc != nil {
		return m.FindRosterPlayerFunc(teamID, boardNumber)
	}
	return nil, nil
}

func (m *MockStore) FindPreference(ctx context.Context, key PreferenceKey) (*NotificationPreference, error) {
	m.mu.Lock()
	m.FindPreferenceCalls = append(m.FindPreferenceCalls, key)
	m.mu.Unlock()
	if m.FindPreferenceFunc != nil {
		return m.FindPreferenceFunc(key)
	}
	return nil, nil
}

func (m *MockStore) FindLatestActiveSeason(ctx context.Context, leagueID string) (*Season, error) {
	if m.FindLatestActiveSeasonFunc != nil {
		return m.FindLatestActiveSeasonFunc(leagueID)
	}
	return nil, nil
}

func (m *MockStore) BoardPairings(ctx context.Context, teamPairingID string, boardNumber int) ([]*Pairing, error) {
	if m.BoardPairingsFunc != nil {
		return m.BoardPairingsFunc(teamPairingID, boardNumber)
	}
	return nil, nil
}

func (m *MockStore) RoundPairings(ctx context.Context, roundID string, filter PairingFilter) ([]*Pairing, error) {
	if m.RoundPairingsFunc != nil {
		return m.RoundPairingsFunc(roundID, filter)
	}
	return nil, nil
}

func (m *MockStore) PairingGroups(ctx context.Context, roundID string) ([]PairingGroup, error) {
	m.mu.Lock()
	m.PairingGroupsCalls = append(m.PairingGroupsCalls, roundID)
	m.mu.Unlock()
	if m.PairingGroupsFunc != nil {
		return m.PairingGroupsFunc(roundID)
	}
	return nil, nil
}

func (m *MockStore) IsAvailable(ctx context.Context, playerID, roundID string) (bool, error) {
	if m.IsAvailableFunc != nil {
		return m.IsAvailableFunc(playerID, roundID)
	}
	return true, nil
}

func (m *MockStore) UnavailablePlayers(ctx context.Context, roundID string) (map[string]bool, error) {
	if m.UnavailablePlayersFunc != nil {
		return m.UnavailablePlayersFunc(roundID)
	}
	return map[string]bool{}, nil
}

func (m *MockStore) PendingRegistrationCount(ctx context.Context, seasonID string) (int, error) {
	if m.PendingRegistrationCountFunc != nil {
		return m.PendingRegistrationCountFunc(seasonID)
	}
	return 0, nil
}

func (m *MockStore) LeaguesForPlayer(ctx context.Context, playerID string) ([]*League, error) {
	if m.LeaguesForPlayerFunc != nil {
		return m.LeaguesForPlayerFunc(playerID)
	}
	return nil, nil
}

func (m *MockStore) SavePlayer(ctx context.Context, player *Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SavedPlayers = append(m.SavedPlayers, player)
	return nil
}

func (m *MockStore) SavePreference(ctx context.Context, pref *NotificationPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SavedPreferences = append(m.SavedPreferences, pref)
	return nil
}

func (m *MockStore) SaveLeague(ctx context.Context, league *League) error { return nil }
func (m *MockStore) SaveSeason(ctx context.Context, season *Season) error { return nil }
func (m *MockStore) SaveRound(ctx context.Context, round *Round) error    { return nil }
func (m *MockStore) SaveTeam(ctx context.Context, seasonID string, team *Team) error {
	return nil
}
func (m *MockStore) SaveTeamMember(ctx context.Context, teamID, playerID string, boardNumber int, isCaptain bool) error {
	return nil
}
func (m *MockStore) SaveTeamPairing(ctx context.Context, tp *TeamPairing) error { return nil }
func (m *MockStore) SavePairing(ctx context.Context, pairing *Pairing) error    { return nil }
func (m *MockStore) SetAvailability(ctx context.Context, playerID, roundID string, available bool) error {
	return nil
}
func (m *MockStore) SaveRegistration(ctx context.Context, seasonID, username, status string) error {
	return nil
}
