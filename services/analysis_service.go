package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/metrics"
	"github.com/techagentng/firesafe/models"
	"gorm.io/gorm"
)

const operationalReportKey = "operational_report"

type AnalysisService interface {
	AnalyzePlan(ctx context.Context, req *models.PlanAnalysisRequest) (map[string]interface{}, error)
}

type analysisService struct {
	Config    *config.Config
	houseRepo db.HouseRepository
	fetcher   PlanFetcher
	model     VisionModel
	bus       eventbus.Bus
	log       *logrus.Logger
}

func NewAnalysisService(houseRepo db.HouseRepository, fetcher PlanFetcher, model VisionModel, bus eventbus.Bus, conf *config.Config, log *logrus.Logger) AnalysisService {
	return &analysisService{
		Config:    conf,
		houseRepo: houseRepo,
		fetcher:   fetcher,
		model:     model,
		bus:       bus,
		log:       log,
	}
}

// AnalyzePlan runs one analysis of a house plan and merges it into the
// house's stored analysis. The read-merge-write is not guarded: two
// concurrent calls for the same house both read the same prior analysis
// and the later write wins.
func (a *analysisService) AnalyzePlan(ctx context.Context, req *models.PlanAnalysisRequest) (map[string]interface{}, error) {
	mode := NormalizeMode(req.Mode)
	merged, err := a.analyze(ctx, req, mode)
	if err != nil {
		metrics.PlanAnalyses.WithLabelValues(mode, "error").Inc()
		return nil, err
	}
	metrics.PlanAnalyses.WithLabelValues(mode, "success").Inc()
	return merged, nil
}

func (a *analysisService) analyze(ctx context.Context, req *models.PlanAnalysisRequest, mode string) (map[string]interface{}, error) {
	if strings.TrimSpace(req.PlanURL) == "" {
		return nil, errs.NewWithCode("planUrl is required", errs.CodeMissingPlanURL, http.StatusBadRequest)
	}
	if req.HouseID == 0 {
		return nil, errs.NewWithCode("houseId is required", errs.CodeMissingHouseID, http.StatusBadRequest)
	}
	if a.Config.GeminiApiKey == "" {
		return nil, errs.Configuration("vision model api key")
	}

	house, err := a.houseRepo.GetHouseByID(req.HouseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New("house not found", http.StatusNotFound)
		}
		return nil, err
	}

	plan, err := a.fetcher.Fetch(ctx, req.PlanURL)
	if err != nil {
		return nil, err
	}
	data, mimeType := preparePlanImage(plan.Data, plan.ContentType)

	logEntry := a.log.WithFields(logrus.Fields{
		"house_id": house.ID,
		"mode":     mode,
		"source":   plan.Source,
		"bytes":    len(data),
	})
	logEntry.Info("requesting plan analysis")

	raw, err := a.model.Generate(ctx, BuildPrompt(mode, req.ContextData, req.PromptInstruction), data, mimeType)
	if err != nil {
		return nil, err
	}

	result, ok := ParseModelOutput(raw, mode)
	if !ok {
		logEntry.Warn("model output was not valid JSON, storing raw text")
	}

	var current map[string]interface{}
	if house.PlanAnalysis != nil {
		current, ok = models.DecodeAnalysis(*house.PlanAnalysis)
		if !ok {
			logEntry.Warn("stored analysis is malformed, replacing it")
		}
	}

	merged := MergeAnalysis(current, result, mode)
	encoded, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	if err := a.houseRepo.UpdateAnalysis(house.ID, string(encoded), time.Now().UTC()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New("house not found", http.StatusNotFound)
		}
		return nil, err
	}

	eventbus.PublishEvent(ctx, a.bus, a.log, eventbus.Houses, eventbus.AnalysisCompleted, map[string]interface{}{
		"house_id": house.ID,
		"mode":     mode,
	})
	return merged, nil
}

// NormalizeMode maps anything but "operational" to the preventive default.
func NormalizeMode(mode string) string {
	if strings.EqualFold(strings.TrimSpace(mode), models.AnalysisModeOperational) {
		return models.AnalysisModeOperational
	}
	return models.AnalysisModePreventive
}

// BuildPrompt selects the template for mode and appends the optional
// context data and extra instruction.
func BuildPrompt(mode string, contextData json.RawMessage, instruction string) string {
	prompt := preventivePrompt
	if mode == models.AnalysisModeOperational {
		prompt = operationalPrompt
	}
	if len(contextData) > 0 && string(contextData) != "null" {
		prompt += fmt.Sprintf("\n\nProperty context (JSON):\n%s", string(contextData))
	}
	if instruction = strings.TrimSpace(instruction); instruction != "" {
		prompt += "\n\nAdditional instruction:\n" + instruction
	}
	return prompt
}

// ParseModelOutput strips markdown fences and decodes the model's JSON. When
// that fails it returns a stub carrying the raw text under the mode's summary
// key with parse_error set, and false.
func ParseModelOutput(raw, mode string) (map[string]interface{}, bool) {
	text := stripCodeFences(raw)

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(text), &out); err == nil && out != nil {
		return out, true
	}

	summaryKey := "summary"
	if mode == models.AnalysisModeOperational {
		summaryKey = "operational_summary"
	}
	return map[string]interface{}{
		summaryKey:    raw,
		"parse_error": true,
	}, false
}

func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.Index(text, "\n"); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// MergeAnalysis combines a new result with the stored analysis:
//
//	operational, current present: {...current, operational_report: result}
//	operational, no current:      {operational_report: result}
//	preventive, current present:  {...result, operational_report: current.operational_report}
//	preventive, no current:       result
func MergeAnalysis(current, result map[string]interface{}, mode string) map[string]interface{} {
	merged := make(map[string]interface{})

	if mode == models.AnalysisModeOperational {
		for k, v := range current {
			merged[k] = v
		}
		merged[operationalReportKey] = result
		return merged
	}

	for k, v := range result {
		merged[k] = v
	}
	if prior, ok := current[operationalReportKey]; ok {
		merged[operationalReportKey] = prior
	}
	return merged
}
