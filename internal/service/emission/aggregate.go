package emission

import (
	"carp-service/internal/domain/stats"
	"carp-service/internal/domain/trip"
)

const (
	maxEcoRating = 5
	minEcoRating = 1
)

// AggregateOptions carries the inputs of Aggregate that do not come from trips.
type AggregateOptions struct {
	// BaselineGPerKm is what each trip is compared against for co2Saved.
	BaselineGPerKm float64
	// ReferenceFactors is the factor distribution ratings are ranked in.
	// When empty, the factors of the aggregated trips are used.
	ReferenceFactors []float64
}

// Aggregate builds dashboard stats from trips without modifying them.
// Trips without known emissions count towards trips and distance only.
func Aggregate(trips []trip.Trip, opts AggregateOptions) stats.DashboardStats {
	var out stats.DashboardStats
	if len(trips) == 0 {
		return out
	}

	baseline := opts.BaselineGPerKm
	if baseline <= 0 {
		baseline = DefaultBaselineGPerKm
	}

	reference := opts.ReferenceFactors
	if len(reference) == 0 {
		for _, t := range trips {
			if t.FactorGPerKm != nil {
				reference = append(reference, *t.FactorGPerKm)
			}
		}
	}

	var (
		distance, co2, saved float64
		ratingSum            int
		rated                int
	)
	for i := range trips {
		t := &trips[i]
		out.TotalTrips++
		distance += t.DistanceKm

		if t.IsEco() {
			out.EcoTrips++
		}

		if t.HasKnownEmissions() {
			co2 += *t.Co2Emissions
			saved += t.DistanceKm*baseline/GramsPerKg - *t.Co2Emissions
		}

		switch {
		case t.TravelMode.HumanPowered():
			ratingSum += maxEcoRating
			rated++
		case t.FactorGPerKm != nil && len(reference) > 0:
			ratingSum += EcoRating(*t.FactorGPerKm, reference)
			rated++
		}
	}

	out.TotalDistance = Round2(distance)
	out.TotalCo2 = Round2(co2)
	if saved > 0 {
		out.Co2Saved = Round2(saved)
	}
	if rated > 0 {
		out.AverageEcoRating = Round2(float64(ratingSum) / float64(rated))
	}
	return out
}

// EcoRating scores a factor from 1 (dirtiest) to 5 by the share of the
// reference distribution that is cleaner than it.
func EcoRating(factorGPerKm float64, reference []float64) int {
	if len(reference) == 0 {
		return 0
	}
	cleaner := 0
	for _, r := range reference {
		if r < factorGPerKm {
			cleaner++
		}
	}
	rating := maxEcoRating - cleaner*maxEcoRating/len(reference)
	if rating < minEcoRating {
		rating = minEcoRating
	}
	return rating
}
