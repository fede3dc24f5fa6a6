package socket

import (
	"encoding/json"
	"time"

	"github.com/haojie06/visualgen-http/internal/model"
)

// server events
const (
	EventConnect            = "connect"
	EventVisualCompleted    = "visual_completed"
	EventVisualProcessing   = "visual_processing"
	EventGenerationProgress = "generation_progress"
	EventGenerationComplete = "generation_complete"
)

// client events
const (
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
)

// Frame is the JSON envelope of every message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type SubscriptionPayload struct {
	GenerationId string `json:"generationId"`
}

// VisualEvent is pushed once per shot when it completes, fails or starts processing.
type VisualEvent struct {
	GenerationId string                 `json:"generationId"`
	Index        int                    `json:"index"`
	Type         string                 `json:"type"`
	Status       model.GenerationStatus `json:"status"`
	ImageURL     string                 `json:"image_url,omitempty"`
	Error        string                 `json:"error,omitempty"`
	GeneratedAt  *time.Time             `json:"generated_at,omitempty"`
}

func (e VisualEvent) Visual() model.VisualOutput {
	return model.VisualOutput{
		Type:        e.Type,
		Status:      e.Status,
		ImageURL:    e.ImageURL,
		Error:       e.Error,
		Index:       e.Index,
		GeneratedAt: e.GeneratedAt,
	}
}

type ProgressEvent struct {
	GenerationId string  `json:"generationId"`
	Completed    int     `json:"completed"`
	Total        int     `json:"total"`
	Progress     float64 `json:"progress"`
}

type CompleteEvent struct {
	GenerationId string `json:"generationId"`
	Completed    int    `json:"completed"`
	Failed       int    `json:"failed"`
	Total        int    `json:"total"`
}

func newFrame(event string, data interface{}) (Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: raw}, nil
}
