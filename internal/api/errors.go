package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/huangsam/codepulse/internal/contract"
)

// statusByKind maps error kinds to HTTP statuses. Unknown kinds are 500.
var statusByKind = map[string]int{
	"InvalidInput":      fiber.StatusBadRequest,
	"IngestInProgress":  fiber.StatusConflict,
	"SourceRejected":    fiber.StatusBadGateway,
	"SourceMalformed":   fiber.StatusBadGateway,
	"SourceUnavailable": fiber.StatusBadGateway,
	"AnalysisTimeout":   fiber.StatusGatewayTimeout,
	"AnalysisOverflow":  fiber.StatusBadGateway,
	"AnalysisFailed":    fiber.StatusBadGateway,
	"StoreUnavailable":  fiber.StatusServiceUnavailable,
	"NoData":            fiber.StatusNotFound,
}

// statusFor returns the HTTP status for err.
func statusFor(err error) int {
	if status, ok := statusByKind[contract.ErrorKind(err)]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

func writeError(c fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}
