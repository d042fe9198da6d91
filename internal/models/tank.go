package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WaterTank struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id" example:"3f8e2a8c-1b2d-4c5e-9f00-2a6b7c8d9e01"`
	Floor          int       `gorm:"not null;index:idx_tank_location" json:"floor" example:"2"`
	Room           int       `gorm:"not null;index:idx_tank_location" json:"room" example:"4"`
	RoomNumber     *string   `json:"room_number,omitempty" example:"204"`
	CurrentLevel   float64   `gorm:"not null" json:"current_level" example:"62.5"`
	CapacityLiters float64   `gorm:"not null" json:"capacity_liters" example:"1000"`
	LastUpdated    time.Time `gorm:"autoUpdateTime" json:"last_updated" example:"2024-03-09T08:30:00Z"`
}

func (t *WaterTank) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// RemainingLiters is the volume currently held.
func (t *WaterTank) RemainingLiters() float64 {
	return t.CurrentLevel / 100 * t.CapacityLiters
}

type WaterTankCreate struct {
	Floor          int     `json:"floor" binding:"min=0" example:"2"`
	Room           int     `json:"room" binding:"min=0" example:"4"`
	RoomNumber     *string `json:"room_number" example:"204"`
	CurrentLevel   float64 `json:"current_level" binding:"min=0,max=100" example:"75"`
	CapacityLiters float64 `json:"capacity_liters" binding:"required,gt=0" example:"1000"`
}

type WaterTankUpdate struct {
	CurrentLevel   *float64 `json:"current_level" binding:"omitempty,min=0,max=100" example:"55"`
	CapacityLiters *float64 `json:"capacity_liters" binding:"omitempty,gt=0" example:"1200"`
}

type TankLevelUpdate struct {
	NewLevel *float64 `json:"new_level" binding:"required,min=0,max=100" example:"35"`
}
