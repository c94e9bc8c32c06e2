package stubapi

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Headers is the column layout of generated rows.
var Headers = []string{ //nolint:gochecknoglobals // fixed response schema
	"SEASON_YEAR", "PLAYER_ID", "PLAYER_NAME", "TEAM_ID", "TEAM_ABBREVIATION",
	"GAME_ID", "GAME_DATE", "MATCHUP", "WL", "MIN", "PTS", "REB", "AST",
}

const gameDateLayout = "2006-01-02T15:04:05"

var teams = []string{ //nolint:gochecknoglobals // synthetic league
	"ATL", "BOS", "BKN", "CHA", "CHI", "CLE", "DAL", "DEN", "DET", "GSW",
	"HOU", "IND", "LAC", "LAL", "MEM", "MIA", "MIL", "MIN", "NOP", "NYK",
}

var firstNames = []string{ //nolint:gochecknoglobals // synthetic names
	"Aaron", "Ben", "Chris", "Devin", "Eric", "Fred", "Gary", "Jalen", "Kevin", "Luka",
	"Marcus", "Nikola", "Paul", "Rudy", "Scottie", "Tyrese", "Victor", "Zach",
}

var lastNames = []string{ //nolint:gochecknoglobals // synthetic names
	"Adams", "Brown", "Carter", "Davis", "Edwards", "Green", "Harris", "Jackson",
	"Johnson", "Jones", "Miller", "Moore", "Robinson", "Smith", "Thomas", "Walker",
}

// generateSeason builds the rows for one season. Dates run back from
// cfg.LastDate one day at a time.
func generateSeason(cfg Config, season string, seasonIndex int) [][]any {
	r := rand.New(rand.NewPCG(cfg.Seed, uint64(seasonIndex)+1)) //nolint:gosec // synthetic data

	roster := make(map[string][]player, len(teams))
	for t, team := range teams {
		players := make([]player, cfg.PlayersPerTeam)
		for p := range players {
			players[p] = player{
				id:   1_600_000 + t*100 + p,
				name: firstNames[r.IntN(len(firstNames))] + " " + lastNames[r.IntN(len(lastNames))],
			}
		}
		roster[team] = players
	}

	rows := make([][]any, 0, cfg.Days*cfg.GamesPerDay*2*cfg.PlayersPerTeam)
	gameSeq := 1
	for d := cfg.Days - 1; d >= 0; d-- {
		date := cfg.LastDate.AddDate(0, 0, -d).Format(gameDateLayout)
		order := r.Perm(len(teams))
		for g := 0; g < cfg.GamesPerDay && 2*g+1 < len(order); g++ {
			home, away := teams[order[2*g]], teams[order[2*g+1]]
			gameID := fmt.Sprintf("002%02d%05d", seasonIndex, gameSeq)
			gameSeq++
			homeWon := r.IntN(2) == 0

			for side, team := range []string{home, away} {
				matchup := home + " vs. " + away
				won := homeWon
				if side == 1 {
					matchup = away + " @ " + home
					won = !homeWon
				}
				wl := "L"
				if won {
					wl = "W"
				}
				for _, p := range roster[team] {
					rows = append(rows, []any{
						season,
						p.id,
						p.name,
						1_610_612_700 + indexOf(team),
						team,
						gameID,
						date,
						matchup,
						wl,
						float64(10+r.IntN(30)) + float64(r.IntN(60))/60,
						r.IntN(40),
						r.IntN(15),
						r.IntN(12),
					})
				}
			}
		}
	}
	return rows
}

type player struct {
	id   int
	name string
}

func indexOf(team string) int {
	for i, t := range teams {
		if t == team {
			return i
		}
	}
	return -1
}

// filterDates keeps rows whose GAME_DATE lies within [from, to]. Bounds are
// MM/DD/YYYY and may be empty.
func filterDates(rows [][]any, from, to string) ([][]any, error) {
	if from == "" && to == "" {
		return rows, nil
	}
	lo, err := parseBound(from)
	if err != nil {
		return nil, fmt.Errorf("DateFrom: %w", err)
	}
	hi, err := parseBound(to)
	if err != nil {
		return nil, fmt.Errorf("DateTo: %w", err)
	}

	dateIdx := indexOfHeader("GAME_DATE")
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		d, err := time.Parse(gameDateLayout, row[dateIdx].(string))
		if err != nil {
			return nil, err
		}
		if !lo.IsZero() && d.Before(lo) {
			continue
		}
		if !hi.IsZero() && d.After(hi) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("01/02/2006", s)
}

func indexOfHeader(col string) int {
	for i, h := range Headers {
		if h == col {
			return i
		}
	}
	return -1
}
