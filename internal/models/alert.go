package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AlertCritical = "critical"
	AlertLow      = "low"
	AlertNormal   = "normal"
)

type WaterAlert struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	AlertType  string    `gorm:"not null;size:16" json:"alert_type" example:"critical"`
	Message    string    `gorm:"not null" json:"message" example:"Tank on floor 2, room 4 is at 15% capacity"`
	TankID     *string   `gorm:"size:36;index" json:"tank_id,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	IsResolved bool      `gorm:"not null;default:false;index" json:"is_resolved"`
}

func (a *WaterAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type WaterAlertCreate struct {
	AlertType string  `json:"alert_type" binding:"required,oneof=critical low normal" example:"low"`
	Message   string  `json:"message" binding:"required" example:"Scheduled maintenance"`
	TankID    *string `json:"tank_id"`
}

// LevelAlertMessage describes a tank that dropped into the given alert tier.
func LevelAlertMessage(tank *WaterTank, alertType string) string {
	label := "Low"
	if alertType == AlertCritical {
		label = "Critical"
	}
	return fmt.Sprintf("%s water level in tank on floor %d, room %d: %.1f%%", label, tank.Floor, tank.Room, tank.CurrentLevel)
}
