// internal/domain/stats/entity.go
package stats

// DashboardStats is the per-user summary shown on the dashboard.
// Distances are in km, CO2 amounts in kg.
type DashboardStats struct {
	TotalTrips       int     `json:"totalTrips"`
	TotalDistance    float64 `json:"totalDistance"`
	TotalCo2         float64 `json:"totalCo2"`
	Co2Saved         float64 `json:"co2Saved"`
	EcoTrips         int     `json:"ecoTrips"`
	AverageEcoRating float64 `json:"averageEcoRating"`
}

// AdminStats summarises the whole installation.
type AdminStats struct {
	TotalUsers            int64   `json:"totalUsers"`
	ActiveUsers           int64   `json:"activeUsers"`
	TotalVehicles         int64   `json:"totalVehicles"`
	TotalTrips            int64   `json:"totalTrips"`
	PendingTrips          int64   `json:"pendingTrips"`
	TotalCo2              float64 `json:"totalCo2"`
	TotalEmissionFactors  int64   `json:"totalEmissionFactors"`
	ActiveEmissionFactors int64   `json:"activeEmissionFactors"`
}
