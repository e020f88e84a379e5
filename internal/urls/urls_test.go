package urls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbsURL(t *testing.T) {
	b := New("https://www.lichess4545.com/")

	assert.Equal(t, "https://www.lichess4545.com/admin/review/3/", b.AbsURL("/admin/review/3/"))
	assert.Equal(t, "https://www.lichess4545.com/alternate/accept", b.AbsURL("alternate/accept"))
	assert.Equal(t, "https://example.org/x", b.AbsURL("https://example.org/x"))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/admin/tournament/registration/12/review/?_changelist_filters=status__exact%3Dpending%26season__id__exact%3Ds1",
		ReviewRegistration("12", "s1"))
	assert.Equal(t, "/admin/tournament/registration/?status__exact=pending&season__id__exact=s1", PendingRegistrations("s1"))
	assert.Equal(t, "/team4545/season/9/request/appeal_noshow/", ModRequest("team4545", "9", "appeal_noshow"))
	assert.Equal(t, "/team4545/player/Alice/", PlayerProfile("team4545", "", "Alice"))
	assert.Equal(t, "/team4545/season/9/player/Alice/", PlayerProfile("team4545", "9", "Alice"))
	assert.Equal(t, "https://lichess.org/@/Alice", LichessProfile("Alice"))
}
