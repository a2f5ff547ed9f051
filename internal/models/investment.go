package models

// Investment is a position in a listed asset. Quote fields (LongName,
// LastPrice, ChangePercent, LogoURL) are enrichment from the market-data
// API and are not persisted with the position.
type Investment struct {
	ID            string
	OwnerID       string
	Ticker        string
	Quantity      float64
	LongName      string
	LastPrice     float64
	ChangePercent float64
	LogoURL       string
	CreatedAt     int64
	UpdatedAt     int64
}

// Quote is a market snapshot for a single ticker.
type Quote struct {
	Ticker        string
	LongName      string
	LastPrice     float64
	ChangePercent float64
	LogoURL       string
}

// Suggestion is a ticker search result.
type Suggestion struct {
	ID   string
	Name string
}
