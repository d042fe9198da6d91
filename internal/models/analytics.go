package models

type DashboardStats struct {
	TotalTanks    int64       `json:"total_tanks" example:"12"`
	AverageLevel  float64     `json:"average_level" example:"58.3"`
	CriticalTanks int64       `json:"critical_tanks" example:"2"`
	ActiveAlerts  int64       `json:"active_alerts" example:"3"`
	NextTruck     *WaterTruck `json:"next_truck,omitempty"`
}

// TankForecast is the consumption forecast for one tank.
type TankForecast struct {
	TankID               string  `json:"tank_id"`
	Floor                int     `json:"floor"`
	Room                 int     `json:"room"`
	CurrentLevel         float64 `json:"current_level"`
	PredictedConsumption float64 `json:"predicted_consumption"`
	PredictedLevel       float64 `json:"predicted_level"`
	Confidence           float64 `json:"confidence"`
	AlertLevel           string  `json:"alert_level" example:"warning"`
	PredictionDate       string  `json:"prediction_date"`
}
