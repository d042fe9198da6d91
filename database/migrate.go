package database

import (
	"aquamonitor/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func MigrateDatabase(db *gorm.DB) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		&models.WaterTank{},
		&models.WaterTruck{},
		&models.WaterAlert{},
		&models.WaterConsumption{},
	)
	if err != nil {
		log.WithError(err).Error("error during migration")
		return err
	}

	log.Info("database migrations completed")
	return nil
}
