package constants

import (
	"time"

	"github.com/google/uuid"
)

// Standard Response Field Keys
const (
	ResponseFieldID        = "id"
	ResponseFieldDomain    = "domain"
	ResponseFieldMessage   = "message"
	ResponseFieldTimestamp = "timestamp"
	ResponseFieldDetails   = "details"
)

// BuildErrorResponse builds the error envelope returned to clients.
// Every error carries a unique trace id so a client report can be matched
// against server logs without exposing internal detail.
func BuildErrorResponse(domain, message string, details any) map[string]any {
	response := map[string]any{
		ResponseFieldID:        uuid.NewString(),
		ResponseFieldDomain:    domain,
		ResponseFieldMessage:   message,
		ResponseFieldTimestamp: time.Now().UTC(),
	}

	if details != nil {
		response[ResponseFieldDetails] = details
	}

	return response
}

func BuildSuccessResponse(message string) map[string]any {
	return map[string]any{
		ResponseFieldMessage: message,
	}
}
