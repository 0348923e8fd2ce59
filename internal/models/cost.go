package models

import "time"

// CostEstimateRequest asks for the expected cost of a future service.
type CostEstimateRequest struct {
	Plate       string             `json:"plate,omitempty"`
	Vehicle     *VehicleAttributes `json:"vehicle,omitempty"`
	Odometer    float64            `json:"odometer"`
	ServiceType string             `json:"service_type"`
}

// CostEstimate is the response to a CostEstimateRequest.
type CostEstimate struct {
	Plate       string    `json:"plate,omitempty"`
	ServiceType string    `json:"service_type"`
	Odometer    float64   `json:"odometer"`
	Cost        float64   `json:"cost"` // in USD, floored at zero
	ModelID     string    `json:"model_id"`
	TrainedAt   time.Time `json:"trained_at"`
}

// CostGroup aggregates service cost for one group (vehicle type, area...).
type CostGroup struct {
	Group  string  `json:"group"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Total  float64 `json:"total"`
	Count  int     `json:"count"`
}

// MonthlyForecast counts predicted services per month and urgency.
type MonthlyForecast struct {
	Month   string  `json:"month"` // YYYY-MM
	Urgency Urgency `json:"urgency"`
	Count   int     `json:"count"`
}

// FleetSummary holds the dashboard KPIs.
type FleetSummary struct {
	TotalVehicles    int     `json:"total_vehicles"`
	InService        int     `json:"in_service"`
	TotalServiceCost float64 `json:"total_service_cost"`
	MeanServiceCost  float64 `json:"mean_service_cost"`
	OverdueVehicles  int     `json:"overdue_vehicles"`
	DueWithin30Days  int     `json:"due_within_30_days"`
}

// FleetReport bundles the chart-ready tabulations of the analytics.
type FleetReport struct {
	GeneratedAt     time.Time         `json:"generated_at"`
	Summary         FleetSummary      `json:"summary"`
	ForecastByMonth []MonthlyForecast `json:"forecast_by_month"`
	CostByType      []CostGroup       `json:"cost_by_type"`
	CostByArea      []CostGroup       `json:"cost_by_area"`
	TopUsage        []MileageStat     `json:"top_usage"`
}
