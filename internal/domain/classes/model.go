package classes

import "time"

// GymClass is one recurring slot on the weekly class schedule.
type GymClass struct {
	ID          uint `gorm:"primaryKey"`
	Name        string
	Description string
	Trainer     string
	Weekday     int    `gorm:"check:weekday >= 0 AND weekday <= 6"`
	StartTime   string `gorm:"column:start_time"` // "HH:MM", local gym time
	DurationMin int    `gorm:"column:duration_min"`
	Capacity    int
	Active      bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
