package models

import "encoding/json"

const (
	AnalysisModePreventive  = "preventive"
	AnalysisModeOperational = "operational"
)

type PlanAnalysisRequest struct {
	PlanURL           string          `json:"planUrl"`
	HouseID           uint            `json:"houseId"`
	Mode              string          `json:"mode"`
	ContextData       json.RawMessage `json:"contextData,omitempty"`
	PromptInstruction string          `json:"promptInstruction,omitempty"`
}

type PlanAnalysisResponse struct {
	Success  bool                   `json:"success"`
	Analysis map[string]interface{} `json:"analysis,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Code     string                 `json:"code,omitempty"`
}
