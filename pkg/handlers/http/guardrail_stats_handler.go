package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/PromptOps/PromptForge/pkg/classifier"
	"github.com/PromptOps/PromptForge/pkg/domain/threat"
	"github.com/PromptOps/PromptForge/pkg/guardrail"
)

type guardrailStatsHandler struct {
	logger *logrus.Logger
	engine *guardrail.Engine
	table  *classifier.Table
}

func NewGuardrailStatsHandler(logger *logrus.Logger, e *guardrail.Engine, t *classifier.Table) Handler {
	return &guardrailStatsHandler{logger: logger, engine: e, table: t}
}

func (h *guardrailStatsHandler) Handle(c *fiber.Ctx) error {
	rules := h.engine.Rules()
	ruleStats := make([]fiber.Map, 0, len(rules))
	for _, r := range rules {
		ruleStats = append(ruleStats, fiber.Map{
			"name":        r.Name,
			"severity":    r.Severity,
			"description": r.Description,
			"patterns":    len(r.Patterns),
			"keywords":    len(r.Keywords),
		})
	}

	byCategory := make(map[threat.Category]int)
	for _, p := range h.table.Patterns {
		byCategory[p.Category]++
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"rules": ruleStats,
		"threat_patterns": fiber.Map{
			"table_version": h.table.Version,
			"total":         len(h.table.Patterns),
			"by_category":   byCategory,
		},
	})
}
