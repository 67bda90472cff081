// Package model contains domain models passed between layers.
package model

// Player is the stored account record. Counters only grow through
// the update operation; ranking reads them but never writes.
type Player struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	GamesPlayed  int    `json:"games_played"`
	TotalScore   int    `json:"total_score"`
}
