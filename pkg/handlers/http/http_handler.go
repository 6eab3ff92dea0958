package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

// HandlerTransport groups every HTTP handler for route registration.
type HandlerTransport struct {
	// Optimization
	CreateOptimizationHandler Handler
	GetOptimizationHandler    Handler
	ListOptimizationsHandler  Handler

	// Analysis
	AnalyzePromptHandler Handler

	// Security
	ScanPromptHandler     Handler
	ValidatePromptHandler Handler
	GuardrailStatsHandler Handler
}
