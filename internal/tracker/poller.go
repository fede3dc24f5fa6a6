package tracker

import (
	"context"
	"time"

	"github.com/haojie06/visualgen-http/internal/model"
)

// startRun wires the socket channel, the poll fallback and the safety timer
// for one executing attempt. Runs on the loop goroutine.
func (s *Session) startRun(st *state, attempt, generationId string) {
	s.stopRun(st)
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{cancel: cancel}
	r.timer = time.AfterFunc(s.config.SafetyTimeout, func() {
		s.post(func(st *state) {
			if st.attempt != attempt || !st.generating {
				return
			}
			s.logger.Warnf("generation %s timed out after %s", generationId, s.config.SafetyTimeout)
			s.stopRun(st)
			s.watcher.Watch("")
			st.generating = false
			st.phase = terminalPhase(st.visuals)
			st.alert = "generation timed out, check the library later"
		})
	})
	st.run = r
	s.watcher.Watch(generationId)
	s.background(ctx, func() { s.poll(ctx, attempt, generationId) })
}

func (s *Session) stopRun(st *state) {
	st.run.stop()
	st.run = nil
}

func (s *Session) poll(ctx context.Context, attempt, generationId string) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		status, err := s.backend.GenerationStatus(ctx, generationId)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warnf("poll generation %s failed: %s", generationId, err)
			}
			continue
		}
		s.post(func(st *state) { s.applyStatus(st, attempt, status) })
	}
}

// applyStatus folds a polled status into the state. Runs on the loop goroutine.
func (s *Session) applyStatus(st *state, attempt string, status *model.GenerationStatusResponse) {
	if st.attempt != attempt {
		return
	}
	visuals, changed := applyPoll(st.visuals, status.VisualOutputs, status.Completed)
	if changed {
		st.visuals = visuals
	}
	if !st.generating {
		if changed && (st.phase == PhaseCompleted || st.phase == PhasePartiallyFailed) {
			settle(st)
		}
		return
	}
	if status.Completed || allTerminal(st.visuals) {
		s.finish(st)
	}
}

// finish moves an executing attempt to its terminal phase.
func (s *Session) finish(st *state) {
	s.stopRun(st)
	s.watcher.Watch("")
	st.generating = false
	st.previousCollectionId = st.collectionId
	settle(st)
	snap := st.snapshot()
	generationId := generationIdOf(st)
	s.logger.Infof("generation %s finished, %d/%d completed", generationId, completedCount(st.visuals), len(st.visuals))
	if s.notifier != nil {
		s.background(context.Background(), func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.notifier.GenerationFinished(ctx, snap); err != nil {
				s.logger.Warnf("failed to notify generation %s: %s", generationId, err)
			}
		})
	}
}

// settle derives the terminal phase and the generation record from visuals.
func settle(st *state) {
	st.phase = terminalPhase(st.visuals)
	if st.generation == nil {
		return
	}
	st.generation.VisualOutputs = cloneVisuals(st.visuals)
	if failedCount(st.visuals) == len(st.visuals) {
		st.generation.Status = model.GenerationStatusFailed
	} else {
		st.generation.Status = model.GenerationStatusCompleted
	}
}

// reconcileFinal fetches the status once after the completion event so slots
// whose events were missed get their results before the attempt finishes.
// Without a status the attempt finishes on what is known locally.
func (s *Session) reconcileFinal(attempt, generationId string) {
	s.background(context.Background(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		status, err := s.backend.GenerationStatus(ctx, generationId)
		if err != nil {
			s.logger.Warnf("final status of generation %s unavailable: %s", generationId, err)
			s.post(func(st *state) {
				if st.attempt == attempt && st.generating {
					s.finish(st)
				}
			})
			return
		}
		status.Completed = true
		s.post(func(st *state) { s.applyStatus(st, attempt, status) })
	})
}

func terminalPhase(visuals []model.VisualOutput) Phase {
	if len(visuals) > 0 && completedCount(visuals) == len(visuals) {
		return PhaseCompleted
	}
	return PhasePartiallyFailed
}

func generationIdOf(st *state) string {
	if st.generation == nil {
		return ""
	}
	return st.generation.Id
}
