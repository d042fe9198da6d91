package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TruckScheduled = "scheduled"
	TruckArrived   = "arrived"
	TruckDelivered = "delivered"
)

type WaterTruck struct {
	ID                   string     `gorm:"primaryKey;size:36" json:"id"`
	TruckNumber          string     `gorm:"not null" json:"truck_number" example:"TRK-001"`
	ArrivalDate          time.Time  `gorm:"not null;index" json:"arrival_date" example:"2024-03-10T09:00:00Z"`
	EstimatedArrival     *time.Time `json:"estimated_arrival,omitempty"`
	WaterDeliveredLiters float64    `gorm:"not null" json:"water_delivered_liters" example:"10000"`
	Status               string     `gorm:"not null;size:16;index" json:"status" example:"scheduled"`
	Notes                *string    `json:"notes,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

func (t *WaterTruck) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type WaterTruckCreate struct {
	TruckNumber          string     `json:"truck_number" binding:"required" example:"TRK-001"`
	ArrivalDate          time.Time  `json:"arrival_date" binding:"required" example:"2024-03-10T09:00:00Z"`
	EstimatedArrival     *time.Time `json:"estimated_arrival"`
	WaterDeliveredLiters float64    `json:"water_delivered_liters" binding:"min=0" example:"10000"`
	Status               string     `json:"status" binding:"required,oneof=scheduled arrived delivered" example:"scheduled"`
	Notes                *string    `json:"notes"`
}

type WaterTruckUpdate struct {
	Status *string `json:"status" binding:"omitempty,oneof=scheduled arrived delivered" example:"arrived"`
	Notes  *string `json:"notes"`
}

type TruckStatusUpdate struct {
	Status string `json:"status" binding:"required,oneof=scheduled arrived delivered" example:"delivered"`
}
