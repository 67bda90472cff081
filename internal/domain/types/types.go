// Package types contains the read shapes returned to API clients.
package types

// PodiumEntry is one player as shown on the podium. The ranking
// ratio is deliberately absent.
type PodiumEntry struct {
	Username    string `json:"username"`
	GamesPlayed int    `json:"games_played"`
	TotalScore  int    `json:"total_score"`
}

// Podium holds the three tiers in rank order. Tiers are never nil so
// they always encode as JSON arrays.
type Podium struct {
	Gold   []PodiumEntry `json:"gold"`
	Silver []PodiumEntry `json:"silver"`
	Bronze []PodiumEntry `json:"bronze"`
}

// PromptView is a prompt rendered in a single language.
type PromptView struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Username string `json:"username"`
}
