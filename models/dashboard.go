package models

import "time"

type DashboardStats struct {
	HousesByStatus map[string]int64 `json:"houses_by_status"`
	TotalHouses    int64            `json:"total_houses"`
	TotalUsers     int64            `json:"total_users"`
	PublishedPosts int64            `json:"published_posts"`
	FireStations   int64            `json:"fire_stations"`
	StaleStations  int64            `json:"stale_stations"`
}

// Activity lists what was created after Since. The client keeps CheckedAt
// and sends it back as since on its next poll.
type Activity struct {
	Since     time.Time       `json:"since"`
	CheckedAt time.Time       `json:"checked_at"`
	Houses    []HouseResponse `json:"houses"`
	Reports   []Report        `json:"reports"`
	NewUsers  int64           `json:"new_users"`
}

// ListResponse wraps one page of a list endpoint.
type ListResponse struct {
	Items  interface{} `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
