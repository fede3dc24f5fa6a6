package tracker

import (
	"context"
	"sort"
	"time"

	"github.com/haojie06/visualgen-http/internal/model"
)

type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseMerging         Phase = "merging"
	PhaseReady           Phase = "ready"
	PhaseGenerating      Phase = "generating"
	PhaseCompleted       Phase = "completed"
	PhasePartiallyFailed Phase = "partially_failed"
)

// Snapshot is a deep copy of the session state, safe to hand out.
type Snapshot struct {
	Attempt string `json:"attempt"`

	Phase Phase `json:"phase"`

	ProductId string `json:"product_id"`

	CollectionId string `json:"collection_id"`

	PreviousCollectionId string `json:"previous_collection_id"`

	Product *model.Product `json:"product,omitempty"`

	Collection *model.Collection `json:"collection,omitempty"`

	Generation *model.Generation `json:"generation,omitempty"`

	MergedPrompts map[string]model.MergedPrompt `json:"merged_prompts"`

	PromptVersion int `json:"prompt_version"`

	ShotTypes []string `json:"shot_types"`

	Visuals []model.VisualOutput `json:"visuals"`

	Progress int `json:"progress"`

	IsGenerating bool `json:"is_generating"`

	Alert string `json:"alert,omitempty"`

	SocketError string `json:"socket_error,omitempty"`

	StartedAt *time.Time `json:"started_at,omitempty"`
}

func (s Snapshot) CompletedCount() int {
	return completedCount(s.Visuals)
}

// CanRegenerate tells whether a regeneration with collectionId is offered:
// a finished generation exists and it used another collection.
func (s Snapshot) CanRegenerate(collectionId string) bool {
	return !s.IsGenerating && s.PreviousCollectionId != "" && collectionId != "" && collectionId != s.PreviousCollectionId
}

// run holds what lives only while a generation is executing.
type run struct {
	cancel context.CancelFunc
	timer  *time.Timer
}

func (r *run) stop() {
	if r == nil {
		return
	}
	r.cancel()
	if r.timer != nil {
		r.timer.Stop()
	}
}

// state is owned by the session loop goroutine, nothing else touches it.
type state struct {
	attempt              string
	phase                Phase
	productId            string
	collectionId         string
	previousCollectionId string
	product              *model.Product
	collection           *model.Collection
	generation           *model.Generation
	mergedPrompts        map[string]model.MergedPrompt
	promptVersion        int
	shotTypes            []string
	resolution           string
	aspectRatio          string
	visuals              []model.VisualOutput
	generating           bool
	alert                string
	socketError          string
	startedAt            *time.Time

	run *run
}

func newState() state {
	return state{phase: PhaseIdle}
}

// selectProduct switches product, everything tied to the previous one goes.
func (st *state) selectProduct(productId string) {
	if st.productId == productId {
		return
	}
	st.clearAttempt()
	st.productId = productId
	st.product = nil
	st.previousCollectionId = ""
}

func (st *state) clearAttempt() {
	st.attempt = ""
	st.phase = PhaseIdle
	st.generation = nil
	st.mergedPrompts = nil
	st.promptVersion = 0
	st.visuals = nil
	st.startedAt = nil
}

func (st *state) snapshot() Snapshot {
	snap := Snapshot{
		Attempt:              st.attempt,
		Phase:                st.phase,
		ProductId:            st.productId,
		CollectionId:         st.collectionId,
		PreviousCollectionId: st.previousCollectionId,
		Product:              st.product,
		Collection:           st.collection,
		MergedPrompts:        clonePrompts(st.mergedPrompts),
		PromptVersion:        st.promptVersion,
		ShotTypes:            append([]string(nil), st.shotTypes...),
		Visuals:              cloneVisuals(st.visuals),
		Progress:             computeProgress(st.visuals, st.generating),
		IsGenerating:         st.generating,
		Alert:                st.alert,
		SocketError:          st.socketError,
		StartedAt:            st.startedAt,
	}
	if st.generation != nil {
		generation := *st.generation
		generation.MergedPrompts = clonePrompts(generation.MergedPrompts)
		generation.VisualOutputs = cloneVisuals(generation.VisualOutputs)
		snap.Generation = &generation
	}
	return snap
}

// orderedShotTypes lists the shot types to execute: the requested order
// first, then prompts the user added, sorted.
func (st *state) orderedShotTypes() []string {
	seen := make(map[string]struct{}, len(st.mergedPrompts))
	ordered := make([]string, 0, len(st.mergedPrompts))
	for _, shotType := range st.shotTypes {
		if _, ok := st.mergedPrompts[shotType]; ok {
			ordered = append(ordered, shotType)
			seen[shotType] = struct{}{}
		}
	}
	var extra []string
	for shotType := range st.mergedPrompts {
		if _, ok := seen[shotType]; !ok {
			extra = append(extra, shotType)
		}
	}
	sort.Strings(extra)
	return append(ordered, extra...)
}
