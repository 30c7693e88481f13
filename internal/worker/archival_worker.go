package worker

import (
	"github.com/spec-kit/engagement-core/internal/service"
)

// StartArchivalWorker registers archival handlers.
func StartArchivalWorker(archivalService *service.ArchivalService) {
	if archivalService == nil {
		return
	}
	archivalService.RegisterHandlers()
}
