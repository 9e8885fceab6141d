package service

import "github.com/acs-energy/crm-api/internal/domain"

// Score bounds
const (
	minLeadScore = 0
	maxLeadScore = 10
)

// ComputeLeadScore rates a lead 0-10 from site characteristics.
// Each signal is worth two points: covered basement parking, a large
// property (over 100 flats), a known decision maker, existing EV adoption
// (more than 5 vehicles) and declared charger interest.
func ComputeLeadScore(lead *domain.Lead) int {
	score := 0

	if lead.ParkingType == domain.ParkingTypeBasement {
		score += 2
	}
	if lead.PropertySizeFlats > 100 {
		score += 2
	}
	if lead.DecisionMakerKnown {
		score += 2
	}
	if lead.CurrentEvCount > 5 {
		score += 2
	}
	if len(lead.ChargerInterest) > 0 {
		score += 2
	}

	if score < minLeadScore {
		return minLeadScore
	}
	if score > maxLeadScore {
		return maxLeadScore
	}
	return score
}
