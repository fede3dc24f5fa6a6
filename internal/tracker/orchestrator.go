package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/haojie06/visualgen-http/internal/model"
)

type MergeOptions struct {
	ShotTypes []string

	Resolution string

	AspectRatio string
}

// AnalyzeProduct selects a product and runs its photo analysis. With force,
// prompts, generation and visuals are cleared before the backend is called.
func (s *Session) AnalyzeProduct(ctx context.Context, productId string, force bool) (*model.Product, error) {
	err := s.do(func(st *state) error {
		if st.generating {
			return ErrGenerationInProgress
		}
		st.selectProduct(productId)
		if force {
			st.clearAttempt()
		}
		st.alert = ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	product, err := s.backend.AnalyzeProduct(ctx, productId, force)
	if err != nil {
		s.raise("", fmt.Errorf("failed to analyze product: %w", err))
		return nil, err
	}
	s.post(func(st *state) {
		if st.productId == productId {
			st.product = product
		}
	})
	return product, nil
}

// AnalyzeCollection extracts the design aesthetic of a collection.
func (s *Session) AnalyzeCollection(ctx context.Context, collectionId string, force bool) (*model.Collection, error) {
	collection, err := s.backend.AnalyzeCollection(ctx, collectionId, force)
	if err != nil {
		s.raise("", fmt.Errorf("failed to analyze design aesthetic: %w", err))
		return nil, err
	}
	s.post(func(st *state) {
		st.collection = collection
	})
	return collection, nil
}

// Merge creates a generation for the product and collection, then asks the
// backend to merge prompts. Prompts edited while the merge is in flight win.
func (s *Session) Merge(ctx context.Context, productId, collectionId string, opts MergeOptions) (Snapshot, error) {
	var attempt string
	var req model.CreateGenerationRequest
	err := s.do(func(st *state) error {
		if st.generating {
			return ErrGenerationInProgress
		}
		if st.phase == PhaseMerging {
			return ErrMergeInProgress
		}
		st.selectProduct(productId)
		st.clearAttempt()
		st.attempt = uuid.New().String()
		st.phase = PhaseMerging
		st.collectionId = collectionId
		st.alert = ""
		st.shotTypes = opts.ShotTypes
		if len(st.shotTypes) == 0 {
			st.shotTypes = append([]string(nil), s.config.DefaultShotTypes...)
		}
		st.resolution, st.aspectRatio = opts.Resolution, opts.AspectRatio
		attempt = st.attempt
		req = model.CreateGenerationRequest{
			ProductId:    productId,
			CollectionId: collectionId,
			ShotTypes:    st.shotTypes,
			Resolution:   st.resolution,
			AspectRatio:  st.aspectRatio,
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	log := s.logger.With("attempt", attempt)
	log.Infof("merging product %s with collection %s", productId, collectionId)

	generation, err := s.backend.CreateGeneration(ctx, req)
	if err != nil {
		s.abortMerge(attempt, fmt.Errorf("failed to create generation: %w", err))
		return Snapshot{}, err
	}
	if err := s.do(func(st *state) error {
		if st.attempt != attempt {
			return ErrSuperseded
		}
		st.generation = generation
		return nil
	}); err != nil {
		return Snapshot{}, err
	}

	merged, err := s.backend.MergePrompts(ctx, generation.Id, model.MergePromptsRequest{ShotTypes: req.ShotTypes})
	if err != nil {
		s.abortMerge(attempt, fmt.Errorf("failed to merge prompts: %w", err))
		return Snapshot{}, err
	}

	var snap Snapshot
	err = s.do(func(st *state) error {
		if st.attempt != attempt {
			return ErrSuperseded
		}
		st.mergedPrompts = mergePrompts(st.mergedPrompts, merged.MergedPrompts)
		st.generation.MergedPrompts = clonePrompts(merged.MergedPrompts)
		st.phase = PhaseReady
		snap = st.snapshot()
		return nil
	})
	if err == nil {
		log.Infof("generation %s ready with %d prompts", generation.Id, len(snap.MergedPrompts))
	}
	return snap, err
}

// EditPrompt records a local edit of one shot type's prompt.
func (s *Session) EditPrompt(shotType string, prompt model.MergedPrompt) (Snapshot, error) {
	var snap Snapshot
	err := s.do(func(st *state) error {
		if st.generating {
			return ErrGenerationInProgress
		}
		if st.attempt == "" {
			return ErrNoGeneration
		}
		if st.mergedPrompts == nil {
			st.mergedPrompts = make(map[string]model.MergedPrompt)
		}
		st.mergedPrompts[shotType] = prompt
		st.promptVersion++
		snap = st.snapshot()
		return nil
	})
	return snap, err
}

// GenerateImages re-merges with the latest edits and executes the generation.
// Progress then arrives through the socket channel and the poller.
func (s *Session) GenerateImages(ctx context.Context) (Snapshot, error) {
	var attempt, generationId string
	var mergeReq model.MergePromptsRequest
	var execReq model.ExecuteGenerationRequest
	err := s.do(func(st *state) error {
		switch {
		case st.generating:
			return ErrGenerationInProgress
		case st.phase == PhaseMerging:
			return ErrMergeInProgress
		case st.generation == nil:
			return ErrNoGeneration
		case len(st.mergedPrompts) == 0:
			return ErrNoPrompts
		}
		shotTypes := st.orderedShotTypes()
		now := time.Now()
		st.attempt = uuid.New().String()
		st.phase = PhaseGenerating
		st.generating = true
		st.alert = ""
		st.socketError = ""
		st.startedAt = &now
		st.visuals = placeholders(shotTypes)

		attempt, generationId = st.attempt, st.generation.Id
		mergeReq = model.MergePromptsRequest{ShotTypes: shotTypes, Overrides: clonePrompts(st.mergedPrompts)}
		execReq = model.ExecuteGenerationRequest{ShotTypes: shotTypes, Resolution: st.resolution, AspectRatio: st.aspectRatio}
		s.startRun(st, attempt, generationId)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	log := s.logger.With("attempt", attempt, "generationId", generationId)

	merged, err := s.backend.MergePrompts(ctx, generationId, mergeReq)
	if err != nil {
		s.abortGenerate(attempt, fmt.Errorf("failed to merge edited prompts: %w", err))
		return Snapshot{}, err
	}
	executed, err := s.backend.ExecuteGeneration(ctx, generationId, execReq)
	if err != nil {
		s.abortGenerate(attempt, fmt.Errorf("failed to execute generation: %w", err))
		return Snapshot{}, err
	}
	log.Infof("generation executing, %d shots", len(execReq.ShotTypes))

	var snap Snapshot
	err = s.do(func(st *state) error {
		if st.attempt != attempt {
			return ErrSuperseded
		}
		st.mergedPrompts = mergePrompts(st.mergedPrompts, merged.MergedPrompts)
		if st.generation != nil {
			st.generation.Status = model.GenerationStatusProcessing
		}
		if visuals, changed := applyPoll(st.visuals, executed.VisualOutputs, false); changed {
			st.visuals = visuals
		}
		snap = st.snapshot()
		return nil
	})
	return snap, err
}

// RegenerateWithNewDA merges the current product with another collection.
func (s *Session) RegenerateWithNewDA(ctx context.Context, collectionId string) (Snapshot, error) {
	var productId string
	var opts MergeOptions
	err := s.do(func(st *state) error {
		if st.productId == "" {
			return ErrNoProduct
		}
		if st.previousCollectionId == "" {
			return ErrNothingToRegenerate
		}
		if collectionId == st.previousCollectionId {
			return ErrSameCollection
		}
		productId = st.productId
		opts = MergeOptions{ShotTypes: st.shotTypes, Resolution: st.resolution, AspectRatio: st.aspectRatio}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return s.Merge(ctx, productId, collectionId, opts)
}

// RegenerateFromLibrary reopens a saved generation and merges its product
// with another collection.
func (s *Session) RegenerateFromLibrary(ctx context.Context, saved *model.Generation, collectionId string) (Snapshot, error) {
	if collectionId == saved.CollectionId {
		return Snapshot{}, ErrSameCollection
	}
	err := s.do(func(st *state) error {
		if st.generating {
			return ErrGenerationInProgress
		}
		st.selectProduct(saved.ProductId)
		st.previousCollectionId = saved.CollectionId
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	opts := MergeOptions{Resolution: saved.Resolution, AspectRatio: saved.AspectRatio}
	for _, visual := range saved.VisualOutputs {
		opts.ShotTypes = append(opts.ShotTypes, visual.Type)
	}
	return s.Merge(ctx, saved.ProductId, collectionId, opts)
}

func (s *Session) DismissAlert() {
	s.post(func(st *state) { st.alert = "" })
}

// raise surfaces a blocking alert. An empty attempt matches any state.
func (s *Session) raise(attempt string, err error) {
	s.logger.Errorf("%s", err)
	s.post(func(st *state) {
		if attempt == "" || st.attempt == attempt {
			st.alert = err.Error()
		}
	})
}

func (s *Session) abortMerge(attempt string, err error) {
	s.logger.Errorf("attempt %s aborted: %s", attempt, err)
	s.post(func(st *state) {
		if st.attempt != attempt {
			return
		}
		st.clearAttempt()
		st.alert = err.Error()
	})
}

func (s *Session) abortGenerate(attempt string, err error) {
	s.logger.Errorf("attempt %s aborted: %s", attempt, err)
	s.post(func(st *state) {
		if st.attempt != attempt {
			return
		}
		s.stopRun(st)
		s.watcher.Watch("")
		st.generating = false
		st.phase = PhaseReady
		st.visuals = nil
		st.startedAt = nil
		st.alert = err.Error()
	})
}
