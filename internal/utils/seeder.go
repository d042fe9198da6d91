package utils

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"aquamonitor/internal/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultFloors        = 3
	DefaultRoomsPerFloor = 4
	DefaultHistoryDays   = 30
)

// SeedOptions shapes the generated sample data.
type SeedOptions struct {
	Floors        int
	RoomsPerFloor int
	HistoryDays   int
	Seed          uint64
	// Thresholds used to decide which seeded tanks get an open alert.
	CriticalLevel float64
	LowLevel      float64
}

func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		Floors:        DefaultFloors,
		RoomsPerFloor: DefaultRoomsPerFloor,
		HistoryDays:   DefaultHistoryDays,
		Seed:          42,
		CriticalLevel: 20,
		LowLevel:      40,
	}
}

// SeedReport counts the rows created by Seed.
type SeedReport struct {
	Skipped     bool
	Tanks       int
	Trucks      int
	Alerts      int
	Consumption int
}

// Seeder fills an empty database with sample tanks, trucks, alerts and consumption history.
type Seeder struct {
	db    *gorm.DB
	clock clockwork.Clock
	opts  SeedOptions
}

func NewSeeder(db *gorm.DB, clock clockwork.Clock, opts SeedOptions) *Seeder {
	return &Seeder{db: db, clock: clock, opts: opts}
}

// Seed inserts the sample data in one transaction. It does nothing when tanks already exist.
func (s *Seeder) Seed(ctx context.Context) (*SeedReport, error) {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.WaterTank{}).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("count tanks: %w", err)
	}
	if existing > 0 {
		log.WithField("tanks", existing).Info("sample data already present, skipping seed")
		return &SeedReport{Skipped: true}, nil
	}

	rng := rand.New(rand.NewPCG(s.opts.Seed, s.opts.Seed^0x9e3779b97f4a7c15))
	now := s.clock.Now().UTC()
	tanks := s.sampleTanks(rng, now)
	trucks := sampleTrucks(now)
	alerts := s.sampleAlerts(tanks, now)
	consumption := s.sampleConsumption(rng, tanks, now)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tanks).Error; err != nil {
			return fmt.Errorf("insert tanks: %w", err)
		}
		if err := tx.Create(&trucks).Error; err != nil {
			return fmt.Errorf("insert trucks: %w", err)
		}
		if len(alerts) > 0 {
			if err := tx.Create(&alerts).Error; err != nil {
				return fmt.Errorf("insert alerts: %w", err)
			}
		}
		if err := tx.CreateInBatches(&consumption, 200).Error; err != nil {
			return fmt.Errorf("insert consumption: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &SeedReport{
		Tanks:       len(tanks),
		Trucks:      len(trucks),
		Alerts:      len(alerts),
		Consumption: len(consumption),
	}
	log.WithFields(log.Fields{
		"tanks":       report.Tanks,
		"trucks":      report.Trucks,
		"alerts":      report.Alerts,
		"consumption": report.Consumption,
	}).Info("sample data created")
	return report, nil
}

// Clear removes every monitoring row.
func (s *Seeder) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.WaterConsumption{},
			&models.WaterAlert{},
			&models.WaterTruck{},
			&models.WaterTank{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		log.Info("all monitoring data cleared")
		return nil
	})
}

func (s *Seeder) sampleTanks(rng *rand.Rand, now time.Time) []models.WaterTank {
	tanks := make([]models.WaterTank, 0, s.opts.Floors*s.opts.RoomsPerFloor)
	for floor := 1; floor <= s.opts.Floors; floor++ {
		for room := 1; room <= s.opts.RoomsPerFloor; room++ {
			number := fmt.Sprintf("%d%02d", floor, room)
			tanks = append(tanks, models.WaterTank{
				Floor:          floor,
				Room:           room,
				RoomNumber:     &number,
				CurrentLevel:   math.Round((10+rng.Float64()*85)*10) / 10,
				CapacityLiters: []float64{1000, 1500, 2000}[rng.IntN(3)],
				LastUpdated:    now,
			})
		}
	}
	return tanks
}

func sampleTrucks(now time.Time) []models.WaterTruck {
	day := 24 * time.Hour
	notes := "Regular municipal delivery"
	trucks := []models.WaterTruck{
		{TruckNumber: "TRK-001", ArrivalDate: now.Add(-6 * day), WaterDeliveredLiters: 10000, Status: models.TruckDelivered, Notes: &notes},
		{TruckNumber: "TRK-002", ArrivalDate: now.Add(-3 * day), WaterDeliveredLiters: 8000, Status: models.TruckDelivered},
		{TruckNumber: "TRK-003", ArrivalDate: now.Add(-12 * day), WaterDeliveredLiters: 12000, Status: models.TruckDelivered},
		{TruckNumber: "TRK-004", ArrivalDate: now.Add(day), WaterDeliveredLiters: 10000, Status: models.TruckScheduled},
		{TruckNumber: "TRK-005", ArrivalDate: now.Add(4 * day), WaterDeliveredLiters: 9000, Status: models.TruckScheduled},
	}
	for i := range trucks {
		if trucks[i].Status == models.TruckScheduled {
			eta := trucks[i].ArrivalDate.Add(2 * time.Hour)
			trucks[i].EstimatedArrival = &eta
		}
	}
	return trucks
}

// sampleAlerts opens one alert per tank below the low threshold. Tank IDs are assigned here
// so alerts and consumption can reference them before the insert.
func (s *Seeder) sampleAlerts(tanks []models.WaterTank, now time.Time) []models.WaterAlert {
	var alerts []models.WaterAlert
	for i := range tanks {
		tank := &tanks[i]
		if tank.ID == "" {
			tank.ID = uuid.NewString()
		}
		var alertType string
		switch {
		case tank.CurrentLevel < s.opts.CriticalLevel:
			alertType = models.AlertCritical
		case tank.CurrentLevel < s.opts.LowLevel:
			alertType = models.AlertLow
		default:
			continue
		}
		id := tank.ID
		alerts = append(alerts, models.WaterAlert{
			AlertType: alertType,
			Message:   models.LevelAlertMessage(tank, alertType),
			TankID:    &id,
			CreatedAt: now,
		})
	}
	return alerts
}

// sampleConsumption writes one daily record per tank, with higher use on weekends and a
// slow upward drift towards today.
func (s *Seeder) sampleConsumption(rng *rand.Rand, tanks []models.WaterTank, now time.Time) []models.WaterConsumption {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]models.WaterConsumption, 0, len(tanks)*s.opts.HistoryDays)
	for d := s.opts.HistoryDays; d >= 1; d-- {
		date := today.AddDate(0, 0, -d)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday
		for i := range tanks {
			id := tanks[i].ID
			base := tanks[i].CapacityLiters * 0.25
			if weekend {
				base *= 1.3
			}
			base *= 1 + 0.1*float64(s.opts.HistoryDays-d)/float64(s.opts.HistoryDays)
			liters := math.Max(10, base+rng.NormFloat64()*base*0.15)
			out = append(out, models.WaterConsumption{
				ConsumptionDate: date,
				LitersConsumed:  math.Round(liters*10) / 10,
				TankID:          &id,
			})
		}
	}
	return out
}
