package events

import (
	"context"
	"encoding/json"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"prompter/internal/models"
)

func logRuntimeEvent(ctx context.Context, evt GenerationEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		runtime.LogError(ctx, "events: failed to marshal generation event: "+err.Error())
		return
	}

	payload := string(data)

	switch evt.Status {
	case models.StatusFailed:
		runtime.LogError(ctx, payload)
	case models.StatusCancelled:
		runtime.LogWarning(ctx, payload)
	case models.StatusPending, models.StatusGenerating, models.StatusCompleted:
		runtime.LogInfo(ctx, payload)
	default:
		runtime.LogInfo(ctx, payload)
	}
}
