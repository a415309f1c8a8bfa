package model

// SectorRollup aggregates all holdings that share a sector tag.
// It is recomputed on every aggregation pass and never mutated directly.
type SectorRollup struct {
	Sector          string  `json:"sector"`
	HoldingCount    int     `json:"holdingCount"`
	TotalInvestment float64 `json:"totalInvestment"`
	TotalValue      float64 `json:"totalValue"`
	TotalGainLoss   float64 `json:"totalGainLoss"`
}

// PortfolioSnapshot is a pure projection of a holding list: the holdings with
// derived fields filled in, sector rollups in first-occurrence order and the
// portfolio-wide totals.
type PortfolioSnapshot struct {
	Holdings        []Holding      `json:"stocks"`
	SectorRollups   []SectorRollup `json:"sectorRollups"`
	TotalInvestment float64        `json:"totalInvestment"`
	TotalValue      float64        `json:"totalValue"`
	TotalGainLoss   float64        `json:"totalGainLoss"`
}

// Rollup returns the rollup for sector, if any holding contributed to it.
func (s PortfolioSnapshot) Rollup(sector string) (SectorRollup, bool) {
	for _, r := range s.SectorRollups {
		if r.Sector == sector {
			return r, true
		}
	}
	return SectorRollup{}, false
}

// SectorTotals returns the rollups keyed by sector.
func (s PortfolioSnapshot) SectorTotals() map[string]SectorRollup {
	totals := make(map[string]SectorRollup, len(s.SectorRollups))
	for _, r := range s.SectorRollups {
		totals[r.Sector] = r
	}
	return totals
}
