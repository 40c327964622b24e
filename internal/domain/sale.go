package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Sale is an installed sale attributed by a participant to a campaign.
type Sale struct {
	SaleID      string    `json:"sale_id"`
	CampaignID  string    `json:"campaign_id"`
	AgentID     string    `json:"agent_id"`
	Amount      float64   `json:"amount"`
	InstalledAt time.Time `json:"installed_at"`
}

func ValidateSale(s Sale) error {
	switch {
	case strings.TrimSpace(s.SaleID) == "":
		return fmt.Errorf("%w: sale_id is required", ErrValidation)
	case strings.TrimSpace(s.CampaignID) == "":
		return fmt.Errorf("%w: campaign_id is required", ErrValidation)
	case strings.TrimSpace(s.AgentID) == "":
		return fmt.Errorf("%w: agent_id is required", ErrValidation)
	case math.IsNaN(s.Amount) || math.IsInf(s.Amount, 0) || s.Amount < 0:
		return fmt.Errorf("%w: amount must be a non-negative number", ErrValidation)
	case s.InstalledAt.IsZero():
		return fmt.Errorf("%w: installed_at is required", ErrValidation)
	}
	return nil
}

// TotalSalesInWeek sums sale amounts installed within [week.Start, week.End).
func TotalSalesInWeek(sales []Sale, week Week) float64 {
	var total float64
	for _, s := range sales {
		if s.InstalledAt.Before(week.Start) || !s.InstalledAt.Before(week.End) {
			continue
		}
		total += s.Amount
	}
	return round2(total)
}
