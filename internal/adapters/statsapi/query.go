package statsapi

import (
	"net/url"
)

// Query holds the playergamelogs query parameters.
type Query struct {
	Season     string // e.g. "2025-26"
	SeasonType string // e.g. "Regular Season"
	LeagueID   string // "00" is the NBA
	DateFrom   string // optional, MM/DD/YYYY
	DateTo     string // optional, MM/DD/YYYY
}

// Values encodes q. Empty date bounds are still sent, as the API expects
// every parameter to be present.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("Season", q.Season)
	v.Set("SeasonType", q.SeasonType)
	v.Set("DateFrom", q.DateFrom)
	v.Set("DateTo", q.DateTo)
	v.Set("LeagueID", q.LeagueID)
	return v
}
