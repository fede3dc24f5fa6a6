package tracker

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/haojie06/visualgen-http/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completed(index int, shotType string) model.VisualOutput {
	return model.VisualOutput{Index: index, Type: shotType, Status: model.GenerationStatusCompleted, ImageURL: fmt.Sprintf("https://img/%s.png", shotType)}
}

func TestComputeProgress(t *testing.T) {
	visuals := placeholders([]string{"duo", "solo", "flatlay_front", "flatlay_back"})
	assert.Equal(t, 5, computeProgress(visuals, true))
	assert.Equal(t, 0, computeProgress(visuals, false))
	assert.Equal(t, 5, computeProgress(nil, true))

	visuals[0] = completed(0, "duo")
	visuals[1] = completed(1, "solo")
	assert.Equal(t, 50, computeProgress(visuals, true))

	visuals[2] = completed(2, "flatlay_front")
	visuals[3] = completed(3, "flatlay_back")
	assert.Equal(t, 100, computeProgress(visuals, false))
}

func TestApplyVisualByIndex(t *testing.T) {
	visuals := placeholders([]string{"duo", "solo"})
	merged, changed := applyVisual(visuals, completed(1, "solo"))
	require.True(t, changed)
	assert.Equal(t, model.GenerationStatusCompleted, merged[1].Status)
	assert.Equal(t, model.GenerationStatusPending, visuals[1].Status, "input is not mutated")
}

func TestApplyVisualOutOfRangeMatchesType(t *testing.T) {
	visuals := placeholders([]string{"duo", "solo", "flatlay_front"})
	merged, changed := applyVisual(visuals, completed(7, "solo"))
	require.True(t, changed)
	require.Len(t, merged, 3)
	assert.Equal(t, model.GenerationStatusCompleted, merged[1].Status)
	assert.Equal(t, 1, merged[1].Index)
}

func TestApplyVisualIndexOfOtherTypeFallsBackToType(t *testing.T) {
	visuals := placeholders([]string{"duo", "solo"})
	merged, changed := applyVisual(visuals, completed(0, "solo"))
	require.True(t, changed)
	assert.Equal(t, model.GenerationStatusPending, merged[0].Status)
	assert.Equal(t, model.GenerationStatusCompleted, merged[1].Status)
}

func TestApplyVisualUnknownSlotAppends(t *testing.T) {
	visuals := placeholders([]string{"duo"})
	merged, changed := applyVisual(visuals, completed(4, "lifestyle"))
	require.True(t, changed)
	require.Len(t, merged, 2)
	assert.Equal(t, 1, merged[1].Index)

	_, changed = applyVisual(visuals, model.VisualOutput{Index: 4, Type: "lifestyle", Status: model.GenerationStatusProcessing})
	assert.False(t, changed)
}

func TestApplyVisualNeverRegresses(t *testing.T) {
	visuals := []model.VisualOutput{completed(0, "duo")}

	_, changed := applyVisual(visuals, model.VisualOutput{Index: 0, Type: "duo", Status: model.GenerationStatusFailed, Error: "late failure"})
	assert.False(t, changed)

	_, changed = applyVisual(visuals, model.VisualOutput{Index: 0, Type: "duo", Status: model.GenerationStatusProcessing})
	assert.False(t, changed)

	failed := []model.VisualOutput{{Index: 0, Type: "duo", Status: model.GenerationStatusFailed}}
	_, changed = applyVisual(failed, model.VisualOutput{Index: 0, Type: "duo", Status: model.GenerationStatusProcessing})
	assert.False(t, changed)

	merged, changed := applyVisual(failed, completed(0, "duo"))
	assert.True(t, changed)
	assert.Equal(t, model.GenerationStatusCompleted, merged[0].Status)
}

func TestApplyPoll(t *testing.T) {
	local := placeholders([]string{"duo", "solo", "flatlay_front"})
	local[0] = completed(0, "duo")
	local[1] = completed(1, "solo")

	fewer := placeholders([]string{"duo", "solo", "flatlay_front"})
	fewer[0] = completed(0, "duo")
	merged, changed := applyPoll(local, fewer, false)
	assert.False(t, changed)
	assert.Equal(t, local, merged)

	same := placeholders([]string{"duo", "solo", "flatlay_front"})
	same[0], same[2] = completed(0, "duo"), completed(2, "flatlay_front")
	_, changed = applyPoll(local, same, false)
	assert.False(t, changed, "equal count is not strictly more")

	_, changed = applyPoll(local, same, true)
	assert.True(t, changed, "completion overwrites when not behind")

	_, changed = applyPoll(local, fewer, true)
	assert.False(t, changed, "completion never lowers the completed count")

	more := []model.VisualOutput{completed(0, "duo"), completed(1, "solo"), completed(2, "flatlay_front")}
	merged, changed = applyPoll(local, more, false)
	assert.True(t, changed)
	assert.Equal(t, 3, completedCount(merged))

	_, changed = applyPoll(local, nil, true)
	assert.False(t, changed)
}

func TestCompletedCountIsMonotonic(t *testing.T) {
	shotTypes := []string{"duo", "solo", "flatlay_front", "flatlay_back", "lifestyle"}
	statuses := []model.GenerationStatus{
		model.GenerationStatusPending,
		model.GenerationStatusProcessing,
		model.GenerationStatusCompleted,
		model.GenerationStatusFailed,
	}
	rng := rand.New(rand.NewSource(42))

	randomVisual := func() model.VisualOutput {
		i := rng.Intn(len(shotTypes) + 2)
		shotType := shotTypes[rng.Intn(len(shotTypes))]
		return model.VisualOutput{Index: i, Type: shotType, Status: statuses[rng.Intn(len(statuses))]}
	}

	for round := 0; round < 200; round++ {
		visuals := placeholders(shotTypes)
		last := 0
		for step := 0; step < 40; step++ {
			if rng.Intn(3) == 0 {
				polled := make([]model.VisualOutput, len(shotTypes))
				for i := range polled {
					polled[i] = randomVisual()
					polled[i].Index = i
				}
				visuals, _ = applyPoll(visuals, polled, rng.Intn(4) == 0)
			} else {
				visuals, _ = applyVisual(visuals, randomVisual())
			}
			count := completedCount(visuals)
			require.GreaterOrEqual(t, count, last, "round %d step %d", round, step)
			last = count
		}
	}
}

func TestMergePromptsKeepsLocalEdits(t *testing.T) {
	merged := map[string]model.MergedPrompt{
		"duo":  {Prompt: "merged duo"},
		"solo": {Prompt: "merged solo"},
	}
	assert.Equal(t, merged, mergePrompts(nil, merged))

	local := map[string]model.MergedPrompt{"duo": {Prompt: "my duo"}}
	result := mergePrompts(local, merged)
	assert.Equal(t, "my duo", result["duo"].Prompt)
	assert.Equal(t, "merged solo", result["solo"].Prompt)
	assert.Len(t, local, 1, "input is not mutated")
}
