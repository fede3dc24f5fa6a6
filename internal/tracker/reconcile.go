package tracker

import "github.com/haojie06/visualgen-http/internal/model"

// minimum progress shown while a generation is in flight
const minInFlightProgress = 5

func completedCount(visuals []model.VisualOutput) int {
	n := 0
	for _, v := range visuals {
		if v.Status == model.GenerationStatusCompleted {
			n++
		}
	}
	return n
}

func failedCount(visuals []model.VisualOutput) int {
	n := 0
	for _, v := range visuals {
		if v.Status == model.GenerationStatusFailed {
			n++
		}
	}
	return n
}

func allTerminal(visuals []model.VisualOutput) bool {
	if len(visuals) == 0 {
		return false
	}
	for _, v := range visuals {
		if !v.Status.Terminal() {
			return false
		}
	}
	return true
}

// computeProgress is completed/total in percent, never below
// minInFlightProgress while generating. Server progress ticks are ignored.
func computeProgress(visuals []model.VisualOutput, generating bool) int {
	progress := 0
	if len(visuals) > 0 {
		progress = completedCount(visuals) * 100 / len(visuals)
	}
	if generating && progress < minInFlightProgress {
		progress = minInFlightProgress
	}
	return progress
}

func placeholders(shotTypes []string) []model.VisualOutput {
	visuals := make([]model.VisualOutput, len(shotTypes))
	for i, shotType := range shotTypes {
		visuals[i] = model.VisualOutput{
			Type:   shotType,
			Status: model.GenerationStatusPending,
			Index:  i,
		}
	}
	return visuals
}

// slotFor finds the slot an event belongs to. The index wins when the slot
// there has the same type (or either side has none); otherwise the first
// non-terminal slot of that type, then any slot of that type. -1 means no
// slot matched.
func slotFor(visuals []model.VisualOutput, event model.VisualOutput) int {
	if event.Index >= 0 && event.Index < len(visuals) {
		slot := visuals[event.Index]
		if event.Type == "" || slot.Type == "" || slot.Type == event.Type {
			return event.Index
		}
	}
	if event.Type == "" {
		return -1
	}
	fallback := -1
	for i, v := range visuals {
		if v.Type != event.Type {
			continue
		}
		if !v.Status.Terminal() {
			return i
		}
		if fallback < 0 {
			fallback = i
		}
	}
	return fallback
}

// applyVisual merges one pushed per-shot event into a copy of visuals.
// A terminal slot is never moved back, a completed slot is never replaced,
// so the completed count cannot decrease.
func applyVisual(visuals []model.VisualOutput, event model.VisualOutput) ([]model.VisualOutput, bool) {
	i := slotFor(visuals, event)
	if i < 0 {
		if event.Status != model.GenerationStatusCompleted && event.Status != model.GenerationStatusFailed {
			return visuals, false
		}
		merged := cloneVisuals(visuals)
		event.Index = len(merged)
		return append(merged, event), true
	}

	current := visuals[i]
	switch {
	case current.Status == model.GenerationStatusCompleted:
		return visuals, false
	case current.Status.Terminal() && !event.Status.Terminal():
		return visuals, false
	case current.Status == event.Status && current.ImageURL == event.ImageURL && current.Error == event.Error:
		return visuals, false
	}

	merged := cloneVisuals(visuals)
	if event.Type == "" {
		event.Type = current.Type
	}
	event.Index = current.Index
	merged[i] = event
	return merged, true
}

// applyPoll overwrites local visuals with a polled list only when the poll
// knows strictly more completed shots, or reports overall completion without
// knowing fewer.
func applyPoll(local, polled []model.VisualOutput, completed bool) ([]model.VisualOutput, bool) {
	if len(polled) == 0 {
		return local, false
	}
	localCompleted, polledCompleted := completedCount(local), completedCount(polled)
	if polledCompleted > localCompleted || (completed && polledCompleted >= localCompleted) {
		return cloneVisuals(polled), true
	}
	return local, false
}

func cloneVisuals(visuals []model.VisualOutput) []model.VisualOutput {
	if visuals == nil {
		return nil
	}
	cloned := make([]model.VisualOutput, len(visuals))
	copy(cloned, visuals)
	return cloned
}

func clonePrompts(prompts map[string]model.MergedPrompt) map[string]model.MergedPrompt {
	if prompts == nil {
		return nil
	}
	cloned := make(map[string]model.MergedPrompt, len(prompts))
	for k, v := range prompts {
		cloned[k] = v
	}
	return cloned
}

// mergePrompts applies a merge response. A non-empty local set is edited by
// the user and is kept, only shot types it lacks are filled in.
func mergePrompts(local, merged map[string]model.MergedPrompt) map[string]model.MergedPrompt {
	if len(local) == 0 {
		return clonePrompts(merged)
	}
	result := clonePrompts(local)
	for shotType, prompt := range merged {
		if _, edited := result[shotType]; !edited {
			result[shotType] = prompt
		}
	}
	return result
}
