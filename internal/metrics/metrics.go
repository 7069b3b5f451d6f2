// Package metrics provides application-level counters using stdlib expvar.
// Counters are exported on the /debug/vars endpoint served by `cinelink serve`.
package metrics

import "expvar"

// Operation counters.
var (
	MoviesIngested = expvar.NewInt("cinelink_movies_ingested_total")
	FetchFailures  = expvar.NewInt("cinelink_fetch_failures_total")
	SuggestTotal   = expvar.NewInt("cinelink_suggest_total")
	GamesStarted   = expvar.NewInt("cinelink_games_started_total")
	MovesPlayed    = expvar.NewInt("cinelink_moves_played_total")
	TurnsSkipped   = expvar.NewInt("cinelink_turns_skipped_total")
	GamesExpired   = expvar.NewInt("cinelink_games_expired_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }
