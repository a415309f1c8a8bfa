// Package portfolio derives valuation figures from a holding list.
package portfolio

import (
	"math"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// Aggregate computes the derived fields of every holding and folds them into
// sector rollups and portfolio totals. It never fails and does not modify its
// input; the returned snapshot holds its own copy of the holdings.
//
// Holdings with an empty sector count towards the portfolio totals but do not
// form a rollup.
func Aggregate(holdings []model.Holding) model.PortfolioSnapshot {
	snap := model.PortfolioSnapshot{
		Holdings:      make([]model.Holding, len(holdings)),
		SectorRollups: []model.SectorRollup{},
	}
	positions := make(map[string]int)

	for i, h := range holdings {
		h = Derive(h)
		snap.Holdings[i] = h

		snap.TotalInvestment += h.Investment
		snap.TotalValue += h.TotalValue
		snap.TotalGainLoss += h.GainLossAmount

		if h.Sector == "" {
			continue
		}
		pos, ok := positions[h.Sector]
		if !ok {
			pos = len(snap.SectorRollups)
			positions[h.Sector] = pos
			snap.SectorRollups = append(snap.SectorRollups, model.SectorRollup{Sector: h.Sector})
		}
		r := &snap.SectorRollups[pos]
		r.HoldingCount++
		r.TotalInvestment += h.Investment
		r.TotalValue += h.TotalValue
		r.TotalGainLoss += h.GainLossAmount
	}

	for i := range snap.Holdings {
		snap.Holdings[i].PortfolioPercent = percentOf(snap.Holdings[i].TotalValue, snap.TotalValue)
	}

	return snap
}

// Derive fills the valuation fields of a single holding. The current price is
// used when it is positive; otherwise the holding is valued at cost.
func Derive(h model.Holding) model.Holding {
	quantity := finite(h.Quantity)
	cost := quantity * finite(h.BuyPrice)

	price := finite(h.CurrentPrice)
	if price <= 0 {
		price = finite(h.BuyPrice)
	}

	h.Investment = cost
	h.TotalValue = quantity * price
	h.GainLossAmount = h.TotalValue - cost
	h.GainLossPercent = percentOf(h.GainLossAmount, cost)
	return h
}

// percentOf returns part/whole*100, or 0 when whole is 0.
func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// finite maps NaN and infinities to 0 so a corrupt field cannot poison totals.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
