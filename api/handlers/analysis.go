package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrouter/agent"
	"github.com/BaSui01/agentrouter/agent/analysis"
	"github.com/BaSui01/agentrouter/api"
)

// AnalysisHandler 处理任务分析与技能目录
type AnalysisHandler struct {
	registry *agent.Registry
	analyzer *analysis.Analyzer
	metrics  Metrics
	logger   *zap.Logger
}

// NewAnalysisHandler creates an analysis handler.
func NewAnalysisHandler(registry *agent.Registry, analyzer *analysis.Analyzer, metrics Metrics, logger *zap.Logger) *AnalysisHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(logger)
	}
	return &AnalysisHandler{
		registry: registry,
		analyzer: analyzer,
		metrics:  metricsOrNop(metrics),
		logger:   logger.With(zap.String("component", "analysis_handler")),
	}
}

// Register mounts the analysis and skill routes on mux.
func (h *AnalysisHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /analyze/task", h.HandleAnalyzeTask)
	mux.HandleFunc("GET /skills", h.HandleListSkills)
	mux.HandleFunc("GET /skills/categories", h.HandleSkillCategories)
}

// HandleAnalyzeTask classifies content
// @Summary Analyze task
// @Tags analysis
// @Produce json
// @Param content query string true "Task content"
// @Success 200 {object} api.AnalyzeResponse
// @Router /analyze/task [post]
func (h *AnalysisHandler) HandleAnalyzeTask(w http.ResponseWriter, r *http.Request) {
	content, ok := requireQuery(w, r, "content", h.logger)
	if !ok {
		return
	}

	result := h.analyzer.AnalyzeTask(content)
	h.metrics.RecordAnalysis(string(result.Category), string(result.Complexity))

	WriteData(w, api.AnalyzeResponse{
		TaskContent: content,
		Analysis:    result,
	})
}

// HandleListSkills lists every sub-agent skill
// @Summary List skills
// @Tags analysis
// @Produce json
// @Success 200 {object} api.SkillsResponse
// @Router /skills [get]
func (h *AnalysisHandler) HandleListSkills(w http.ResponseWriter, r *http.Request) {
	resp := api.SkillsResponse{Skills: make([]api.SkillInfo, 0)}
	for _, a := range h.registry.SubAgents() {
		for _, skill := range a.Skills() {
			resp.Skills = append(resp.Skills, api.SkillInfo{
				AgentID:     a.ID(),
				AgentName:   a.Name(),
				SkillName:   skill,
				Description: "Skill for handling " + skill + "-related tasks",
			})
		}
	}
	WriteData(w, resp)
}

// HandleSkillCategories groups sub-agent skills into coarse buckets
// @Summary Skills by category
// @Tags analysis
// @Produce json
// @Success 200 {object} api.SkillCategoriesResponse
// @Router /skills/categories [get]
func (h *AnalysisHandler) HandleSkillCategories(w http.ResponseWriter, r *http.Request) {
	resp := api.SkillCategoriesResponse{Categories: make(map[string][]api.CategorizedSkill)}
	for _, a := range h.registry.SubAgents() {
		for _, skill := range a.Skills() {
			cat := analysis.CategorizeSkill(skill)
			resp.Categories[cat] = append(resp.Categories[cat], api.CategorizedSkill{
				Skill:     skill,
				AgentID:   a.ID(),
				AgentName: a.Name(),
			})
		}
	}
	WriteData(w, resp)
}
