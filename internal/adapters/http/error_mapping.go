package httpadapter

import (
	"net/http"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
)

// mapError resolves an error kind to its HTTP status and fixed user-facing
// message. Messages never carry upstream error text.
func mapError(err error) (int, string) {
	switch {
	case domain.IsKind(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."
	// Temporary wins over the upstream kinds: a retried-out transient failure
	// should tell clients to come back, not that the upstream is broken.
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable, "Service temporarily unavailable."
	case domain.IsKind(err, domain.ErrInvalidURL):
		return http.StatusBadRequest, "Invalid arXiv URL. Expected https://arxiv.org/abs/XXXX.XXXXX or a pdf link."
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request parameters."
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid or missing API key."
	case domain.IsKind(err, domain.ErrPaperNotFound):
		return http.StatusNotFound, "Paper not found on arXiv."
	case domain.IsKind(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "PDF file is too large to process."
	case domain.IsKind(err, domain.ErrInsufficientContent):
		return http.StatusUnprocessableEntity, "Could not extract enough text from the PDF."
	case domain.IsKind(err, domain.ErrUpstreamFetch):
		return http.StatusBadGateway, "Failed to fetch the paper from arXiv."
	case domain.IsKind(err, domain.ErrUpstreamAI),
		domain.IsKind(err, domain.ErrEmptyUpstreamResponse):
		return http.StatusBadGateway, "AI service failed to generate a summary."
	case domain.IsKind(err, domain.ErrInvalidResponseFormat),
		domain.IsKind(err, domain.ErrMissingRequiredField):
		return http.StatusBadGateway, "AI service returned an invalid summary."
	default:
		return http.StatusInternalServerError, "Internal server error."
	}
}
