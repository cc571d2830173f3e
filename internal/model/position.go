package model

// PositionRecord is a position as stored by the data layer. Older records keep
// required skills under Requirements instead of Skills; both may be populated.
type PositionRecord struct {
	ID           string
	Title        string
	Client       string
	Skills       []string
	Requirements []string
	Location     string
	Description  string
	Status       string
}

// Position is the canonical, read-only profile the scorer works against.
type Position struct {
	ID          string
	Title       string
	Client      string
	Skills      []string // merged Skills + Requirements, original casing, deduplicated
	Location    string
	Description string
}
