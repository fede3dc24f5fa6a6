package tracker

import (
	"github.com/haojie06/visualgen-http/internal/socket"
)

func (s *Session) socketCallbacks() socket.Callbacks {
	return socket.Callbacks{
		OnVisualCompleted:  s.onVisual,
		OnVisualProcessing: s.onVisual,
		OnProgress:         s.onProgress,
		OnComplete:         s.onComplete,
		OnConnected: func(generationId string) {
			s.post(func(st *state) {
				if generationIdOf(st) == generationId {
					st.socketError = ""
				}
			})
		},
		OnError: func(generationId string, err error) {
			s.post(func(st *state) {
				if generationIdOf(st) == generationId {
					st.socketError = err.Error()
				}
			})
		},
	}
}

// tracking reports whether events for generationId still matter.
func tracking(st *state, generationId string) bool {
	return st.generating && generationIdOf(st) == generationId
}

func (s *Session) onVisual(event socket.VisualEvent) {
	s.post(func(st *state) {
		if !tracking(st, event.GenerationId) {
			return
		}
		visuals, changed := applyVisual(st.visuals, event.Visual())
		if !changed {
			return
		}
		st.visuals = visuals
		if allTerminal(st.visuals) {
			s.finish(st)
		}
	})
}

// server progress is informational, the displayed value is derived from visuals
func (s *Session) onProgress(event socket.ProgressEvent) {
	s.logger.Debugf("generation %s progress %d/%d (%.0f%%)", event.GenerationId, event.Completed, event.Total, event.Progress)
}

func (s *Session) onComplete(event socket.CompleteEvent) {
	s.post(func(st *state) {
		if !tracking(st, event.GenerationId) {
			return
		}
		localCompleted := completedCount(st.visuals)
		if localCompleted < event.Completed || failedCount(st.visuals)+localCompleted < event.Total {
			s.reconcileFinal(st.attempt, event.GenerationId)
			return
		}
		s.finish(st)
	})
}
