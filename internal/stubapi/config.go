// Package stubapi serves synthetic playergamelogs responses for offline runs
// and end-to-end tests.
package stubapi

import "time"

// Path is the route the stub serves, matching the real API.
const Path = "/stats/playergamelogs"

// Config describes the data set and the faults the stub injects.
type Config struct {
	Seasons        []string      // seasons with data; others answer with an empty row set
	Days           int           // distinct game dates per season
	LastDate       time.Time     // most recent game date; zero means yesterday
	GamesPerDay    int           // games on each date
	PlayersPerTeam int           // rows per team per game
	Seed           uint64        // data is reproducible for a given seed
	FailFirst      int           // fail this many requests before serving data
	FailStatus     int           // status used for injected failures
	Latency        time.Duration // delay before every response
}

// Defaults.
const (
	DefaultDays           = 5
	DefaultGamesPerDay    = 4
	DefaultPlayersPerTeam = 5
	DefaultFailStatus     = 503
)

func (c Config) withDefaults() Config {
	if len(c.Seasons) == 0 {
		c.Seasons = []string{"2025-26"}
	}
	if c.Days < 1 {
		c.Days = DefaultDays
	}
	if c.GamesPerDay < 1 {
		c.GamesPerDay = DefaultGamesPerDay
	}
	if c.PlayersPerTeam < 1 {
		c.PlayersPerTeam = DefaultPlayersPerTeam
	}
	if c.FailStatus < 400 || c.FailStatus > 599 {
		c.FailStatus = DefaultFailStatus
	}
	if c.LastDate.IsZero() {
		y, m, d := time.Now().UTC().AddDate(0, 0, -1).Date()
		c.LastDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return c
}
