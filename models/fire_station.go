package models

import "time"

type FireStation struct {
	Model
	Name            string  `json:"name" gorm:"not null"`
	City            string  `json:"city" gorm:"index"`
	Address         string  `json:"address"`
	Phone           string  `json:"phone"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	PersonnelCount  int     `json:"personnel_count"`
	DailyStaffCount int     `json:"daily_staff_count"`
	VehicleCount    int     `json:"vehicle_count"`
	AmbulanceCount  int     `json:"ambulance_count"`
}

// IsStale reports whether the station's figures have not been touched for
// longer than after.
func (f *FireStation) IsStale(now time.Time, after time.Duration) bool {
	return now.Sub(f.UpdatedAt) > after
}

type FireStationResponse struct {
	FireStation
	IsStale    bool     `json:"is_stale"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

type FireStationRequest struct {
	Name            string  `json:"name" validate:"required" conform:"trim"`
	City            string  `json:"city" validate:"required" conform:"trim"`
	Address         string  `json:"address" conform:"trim"`
	Phone           string  `json:"phone" conform:"trim"`
	Latitude        float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude       float64 `json:"longitude" validate:"gte=-180,lte=180"`
	PersonnelCount  int     `json:"personnel_count" validate:"gte=0"`
	DailyStaffCount int     `json:"daily_staff_count" validate:"gte=0,ltefield=PersonnelCount"`
	VehicleCount    int     `json:"vehicle_count" validate:"gte=0"`
	AmbulanceCount  int     `json:"ambulance_count" validate:"gte=0"`
}

type StaffUpdateRequest struct {
	DailyStaffCount *int `json:"daily_staff_count" binding:"required,gte=0"`
}
