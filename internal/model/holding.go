package model

// UnknownTicker is the sentinel ticker assigned to holdings whose row carries no symbol.
const UnknownTicker = "UNKNOWN"

// DefaultSector is the sector assigned to holdings that appear before any sector header.
const DefaultSector = "Uncategorized"

// Holding represents one portfolio position parsed from an uploaded spreadsheet.
//
// Quantity and BuyPrice are always positive. CurrentPrice, PERatio and LastEarnings
// are market fields that are refreshed asynchronously; a zero value means unknown.
// Investment, TotalValue, GainLossAmount, GainLossPercent and PortfolioPercent are
// derived by the aggregation pass and are overwritten every time it runs.
type Holding struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Ticker       string  `json:"ticker"`
	Quantity     float64 `json:"quantity"`
	BuyPrice     float64 `json:"buyPrice"`
	Sector       string  `json:"sector"`
	CurrentPrice float64 `json:"currentPrice,omitempty"`
	PERatio      float64 `json:"peRatio,omitempty"`
	LastEarnings string  `json:"lastEarnings,omitempty"`

	Investment       float64 `json:"investment"`
	TotalValue       float64 `json:"totalValue"`
	GainLossAmount   float64 `json:"gainLossAmount"`
	GainLossPercent  float64 `json:"gainLossPercent"`
	PortfolioPercent float64 `json:"portfolioPercent"`
}

// HasTicker reports whether the holding carries a real exchange symbol.
func (h Holding) HasTicker() bool {
	return h.Ticker != "" && h.Ticker != UnknownTicker
}
