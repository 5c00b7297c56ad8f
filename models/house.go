package models

import (
	"encoding/json"
	"time"
)

const (
	HouseStatusPending  = "pending"
	HouseStatusApproved = "approved"
	HouseStatusRejected = "rejected"
)

var HouseStatuses = []string{HouseStatusPending, HouseStatusApproved, HouseStatusRejected}

var PropertyTypes = []string{"house", "apartment", "villa", "commercial", "industrial", "other"}

// House is a property registered by a citizen. List-valued fields and the
// plan analysis are stored as serialized JSON text.
type House struct {
	Model
	UserID            uint       `json:"user_id" gorm:"index;not null"`
	OwnerName         string     `json:"owner_name" gorm:"not null"`
	Phone             string     `json:"phone"`
	City              string     `json:"city" gorm:"index"`
	District          string     `json:"district"`
	Street            string     `json:"street"`
	Parcel            string     `json:"parcel"`
	PropertyType      string     `json:"property_type" gorm:"index"`
	Rooms             int        `json:"rooms"`
	SurfaceArea       float64    `json:"surface_area"`
	Floors            int        `json:"floors"`
	Latitude          *float64   `json:"latitude"`
	Longitude         *float64   `json:"longitude"`
	SensitiveObjects  string     `json:"sensitive_objects" gorm:"type:text"`
	PhotoURLs         string     `json:"photo_urls" gorm:"column:photo_urls;type:text"`
	DocumentURLs      string     `json:"document_urls" gorm:"column:document_urls;type:text"`
	PlanURL           *string    `json:"plan_url"`
	PlanAnalysis      *string    `json:"plan_analysis" gorm:"type:text"`
	AnalysisUpdatedAt *time.Time `json:"analysis_updated_at"`
	Status            string     `json:"status" gorm:"index;not null;default:pending"`
	RejectionReason   *string    `json:"rejection_reason"`
	ReviewedBy        *uint      `json:"reviewed_by"`
	ReviewedAt        *time.Time `json:"reviewed_at"`
}

// HouseResponse is a House with its JSON text fields decoded.
type HouseResponse struct {
	Model
	UserID            uint                   `json:"user_id"`
	OwnerName         string                 `json:"owner_name"`
	Phone             string                 `json:"phone"`
	City              string                 `json:"city"`
	District          string                 `json:"district"`
	Street            string                 `json:"street"`
	Parcel            string                 `json:"parcel"`
	PropertyType      string                 `json:"property_type"`
	Rooms             int                    `json:"rooms"`
	SurfaceArea       float64                `json:"surface_area"`
	Floors            int                    `json:"floors"`
	Latitude          *float64               `json:"latitude"`
	Longitude         *float64               `json:"longitude"`
	SensitiveObjects  []string               `json:"sensitive_objects"`
	PhotoURLs         []string               `json:"photo_urls"`
	DocumentURLs      []string               `json:"document_urls"`
	PlanURL           *string                `json:"plan_url"`
	PlanAnalysis      map[string]interface{} `json:"plan_analysis"`
	AnalysisUpdatedAt *time.Time             `json:"analysis_updated_at"`
	Status            string                 `json:"status"`
	RejectionReason   *string                `json:"rejection_reason"`
	ReviewedBy        *uint                  `json:"reviewed_by"`
	ReviewedAt        *time.Time             `json:"reviewed_at"`
}

// ToResponse decodes every JSON text field on its own. A malformed list
// becomes an empty list and a malformed analysis becomes null; the names of
// the fields that degraded are returned so the caller can log them.
func (h *House) ToResponse() (HouseResponse, []string) {
	var degraded []string

	sensitive, ok := DecodeStringList(h.SensitiveObjects)
	if !ok {
		degraded = append(degraded, "sensitive_objects")
	}
	photos, ok := DecodeStringList(h.PhotoURLs)
	if !ok {
		degraded = append(degraded, "photo_urls")
	}
	documents, ok := DecodeStringList(h.DocumentURLs)
	if !ok {
		degraded = append(degraded, "document_urls")
	}

	var analysis map[string]interface{}
	if h.PlanAnalysis != nil {
		analysis, ok = DecodeAnalysis(*h.PlanAnalysis)
		if !ok {
			degraded = append(degraded, "plan_analysis")
		}
	}

	return HouseResponse{
		Model:             h.Model,
		UserID:            h.UserID,
		OwnerName:         h.OwnerName,
		Phone:             h.Phone,
		City:              h.City,
		District:          h.District,
		Street:            h.Street,
		Parcel:            h.Parcel,
		PropertyType:      h.PropertyType,
		Rooms:             h.Rooms,
		SurfaceArea:       h.SurfaceArea,
		Floors:            h.Floors,
		Latitude:          h.Latitude,
		Longitude:         h.Longitude,
		SensitiveObjects:  sensitive,
		PhotoURLs:         photos,
		DocumentURLs:      documents,
		PlanURL:           h.PlanURL,
		PlanAnalysis:      analysis,
		AnalysisUpdatedAt: h.AnalysisUpdatedAt,
		Status:            h.Status,
		RejectionReason:   h.RejectionReason,
		ReviewedBy:        h.ReviewedBy,
		ReviewedAt:        h.ReviewedAt,
	}, degraded
}

// DecodeStringList decodes a serialized JSON string array. Empty input is a
// valid empty list; anything unparsable yields an empty list and false.
func DecodeStringList(raw string) ([]string, bool) {
	if raw == "" || raw == "null" {
		return []string{}, true
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}, false
	}
	if out == nil {
		out = []string{}
	}
	return out, true
}

// DecodeAnalysis decodes a serialized analysis object. Empty input is a
// valid absence; anything that is not a JSON object yields nil and false.
func DecodeAnalysis(raw string) (map[string]interface{}, bool) {
	if raw == "" || raw == "null" {
		return nil, true
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false
	}
	return out, true
}

// EncodeStringList serializes a list for storage, nil as "[]".
func EncodeStringList(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return string(b)
}

type HouseRequest struct {
	OwnerName        string   `json:"owner_name" validate:"required" conform:"trim"`
	Phone            string   `json:"phone" conform:"trim"`
	City             string   `json:"city" validate:"required" conform:"trim"`
	District         string   `json:"district" conform:"trim"`
	Street           string   `json:"street" conform:"trim"`
	Parcel           string   `json:"parcel" conform:"trim"`
	PropertyType     string   `json:"property_type" validate:"required,oneof=house apartment villa commercial industrial other" conform:"trim,lower"`
	Rooms            int      `json:"rooms" validate:"gte=0"`
	SurfaceArea      float64  `json:"surface_area" validate:"gte=0"`
	Floors           int      `json:"floors" validate:"gte=0"`
	Latitude         *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude        *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	SensitiveObjects []string `json:"sensitive_objects"`
	PhotoURLs        []string `json:"photo_urls"`
	DocumentURLs     []string `json:"document_urls"`
	PlanURL          *string  `json:"plan_url"`
}

// HouseUpdateRequest carries a partial update; nil fields are left untouched.
type HouseUpdateRequest struct {
	OwnerName        *string  `json:"owner_name"`
	Phone            *string  `json:"phone"`
	City             *string  `json:"city"`
	District         *string  `json:"district"`
	Street           *string  `json:"street"`
	Parcel           *string  `json:"parcel"`
	PropertyType     *string  `json:"property_type"`
	Rooms            *int     `json:"rooms"`
	SurfaceArea      *float64 `json:"surface_area"`
	Floors           *int     `json:"floors"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	SensitiveObjects []string `json:"sensitive_objects"`
	PhotoURLs        []string `json:"photo_urls"`
	DocumentURLs     []string `json:"document_urls"`
	PlanURL          *string  `json:"plan_url"`
	Status           *string  `json:"status"`
	RejectionReason  *string  `json:"rejection_reason"`
}

// HasStatusChange reports whether the update touches review fields.
func (r *HouseUpdateRequest) HasStatusChange() bool {
	return r.Status != nil || r.RejectionReason != nil
}

type HouseFilter struct {
	UserID *uint
	Status string
	City   string
	Search string
	Limit  int
	Offset int
}

func Contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
