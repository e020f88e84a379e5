package urls

import (
	"fmt"
	"net/url"
)

// AdminChange is the admin edit page of any record.
func AdminChange(model, id string) string {
	return fmt.Sprintf("/admin/tournament/%s/%s/change/", model, url.PathEscape(id))
}

// ReviewRegistration opens a registration in the pending review list of its season.
func ReviewRegistration(registrationID, seasonID string) string {
	return fmt.Sprintf("/admin/tournament/registration/%s/review/?_changelist_filters=%s",
		url.PathEscape(registrationID), url.QueryEscape(pendingFilter(seasonID)))
}

// PendingRegistrations lists the pending registrations of a season.
func PendingRegistrations(seasonID string) string {
	return "/admin/tournament/registration/?" + pendingFilter(seasonID)
}

func pendingFilter(seasonID string) string {
	return "status__exact=pending&season__id__exact=" + url.QueryEscape(seasonID)
}

func ManagePlayers(seasonID string) string {
	return fmt.Sprintf("/admin/tournament/season/%s/manage_players/", url.PathEscape(seasonID))
}

func ReviewPairings(roundID string) string {
	return fmt.Sprintf("/admin/tournament/round/%s/review_pairings/", url.PathEscape(roundID))
}

func ReviewModRequest(requestID string) string {
	return fmt.Sprintf("/admin/tournament/modrequest/%s/review/", url.PathEscape(requestID))
}

// ModRequest is the player-facing form for a request type, e.g. "appeal_noshow".
func ModRequest(leagueTag, seasonTag, requestType string) string {
	return fmt.Sprintf("/%s/season/%s/request/%s/", leagueTag, seasonTag, requestType)
}

// PlayerProfile links the season profile, or the league profile when seasonTag is empty.
func PlayerProfile(leagueTag, seasonTag, username string) string {
	if seasonTag == "" {
		return fmt.Sprintf("/%s/player/%s/", leagueTag, url.PathEscape(username))
	}
	return fmt.Sprintf("/%s/season/%s/player/%s/", leagueTag, seasonTag, url.PathEscape(username))
}

// LichessProfile is the player's page on lichess.org.
func LichessProfile(username string) string {
	return "https://lichess.org/@/" + url.PathEscape(username)
}
