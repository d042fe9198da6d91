package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WaterConsumption struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	ConsumptionDate time.Time `gorm:"not null;index" json:"consumption_date" example:"2024-03-09T00:00:00Z"`
	LitersConsumed  float64   `gorm:"not null" json:"liters_consumed" example:"412.5"`
	TankID          *string   `gorm:"size:36;index" json:"tank_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (c *WaterConsumption) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// DailyConsumption is one aggregated day of the consumption history.
type DailyConsumption struct {
	Date   string  `json:"date" example:"2024-03-09"`
	Liters float64 `json:"liters" example:"1830.4"`
}
