package pnl

import "sort"

// PositionLine is one row of a user report.
type PositionLine struct {
	Symbol      string
	Quantity    int64
	AvgCost     float64
	CurrentPrice float64
	RealizedPnL float64
	UnrealizedPnL float64
	TotalPnL    float64
}

// Report is a user's full P&L summary.
type Report struct {
	UserID            int64
	TotalRealizedPnL  float64
	TotalUnrealizedPnL float64
	TotalPnL          float64
	Positions         []PositionLine
}

// UserSummary is one row of a portfolio-wide report.
type UserSummary struct {
	UserID        int64
	RealizedPnL   float64
	UnrealizedPnL float64
	TotalPnL      float64
	NumPositions  int
}

// PortfolioReport aggregates every user's report.
type PortfolioReport struct {
	TotalRealizedPnL   float64
	TotalUnrealizedPnL float64
	TotalPnL           float64
	NumUsers           int
	Users              []UserSummary
}

// GenerateUserReport builds a report for one user. Positions with zero
// quantity and zero realized P&L are omitted from the position lines,
// including ones that were traded and closed out at break-even.
func (e *Engine) GenerateUserReport(userID int64) Report {
	e.mu.RLock()
	defer e.mu.RUnlock()

	report := Report{UserID: userID}

	userPositions := e.positions[userKey(userID)]
	for symbol, pos := range userPositions {
		mark := e.markLocked(symbol, pos.AvgCost)
		unrealized := pos.UnrealizedPnL(mark)

		report.TotalRealizedPnL += pos.RealizedPnL.Float64()
		report.TotalUnrealizedPnL += unrealized.Float64()

		if pos.Quantity != 0 || pos.RealizedPnL != 0 {
			report.Positions = append(report.Positions, PositionLine{
				Symbol:        symbol,
				Quantity:      pos.Quantity,
				AvgCost:       pos.AvgCost.Float64(),
				CurrentPrice:  mark.Float64(),
				RealizedPnL:   pos.RealizedPnL.Float64(),
				UnrealizedPnL: unrealized.Float64(),
				TotalPnL:      pos.RealizedPnL.Add(unrealized).Float64(),
			})
		}
	}

	report.TotalPnL = report.TotalRealizedPnL + report.TotalUnrealizedPnL
	sort.Slice(report.Positions, func(i, j int) bool {
		return report.Positions[i].Symbol < report.Positions[j].Symbol
	})
	return report
}

// GeneratePortfolioReport builds a report across every user seen so far,
// sorted descending by total P&L.
func (e *Engine) GeneratePortfolioReport() PortfolioReport {
	e.mu.RLock()
	userIDs := make([]int64, 0, len(e.positions))
	for key, positions := range e.positions {
		if len(positions) == 0 {
			continue
		}
		userIDs = append(userIDs, userIDFromKey(key))
	}
	e.mu.RUnlock()

	portfolio := PortfolioReport{}
	for _, uid := range userIDs {
		userReport := e.GenerateUserReport(uid)
		portfolio.TotalRealizedPnL += userReport.TotalRealizedPnL
		portfolio.TotalUnrealizedPnL += userReport.TotalUnrealizedPnL
		portfolio.Users = append(portfolio.Users, UserSummary{
			UserID:        uid,
			RealizedPnL:   userReport.TotalRealizedPnL,
			UnrealizedPnL: userReport.TotalUnrealizedPnL,
			TotalPnL:      userReport.TotalPnL,
			NumPositions:  len(userReport.Positions),
		})
	}
	portfolio.NumUsers = len(portfolio.Users)
	portfolio.TotalPnL = portfolio.TotalRealizedPnL + portfolio.TotalUnrealizedPnL

	sort.Slice(portfolio.Users, func(i, j int) bool {
		return portfolio.Users[i].TotalPnL > portfolio.Users[j].TotalPnL
	})
	return portfolio
}
