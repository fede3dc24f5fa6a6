package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haojie06/visualgen-http/internal/model"
	"github.com/haojie06/visualgen-http/internal/socket"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls []string
	next  int

	onAnalyzeProduct func()
	mergeGate        chan struct{}
	executeErr       error
	mergeErr         error
	status           *model.GenerationStatusResponse
	statusErr        error
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) setStatus(status *model.GenerationStatusResponse) {
	b.mu.Lock()
	b.status = status
	b.mu.Unlock()
}

func (b *fakeBackend) AnalyzeProduct(ctx context.Context, id string, force bool) (*model.Product, error) {
	b.record("analyze-product " + id)
	if b.onAnalyzeProduct != nil {
		b.onAnalyzeProduct()
	}
	return &model.Product{Id: id, Name: "product " + id}, nil
}

func (b *fakeBackend) AnalyzeCollection(ctx context.Context, id string, force bool) (*model.Collection, error) {
	b.record("analyze-collection " + id)
	return &model.Collection{Id: id, Analysis: &model.DesignAesthetic{Mood: "calm"}}, nil
}

func (b *fakeBackend) CreateGeneration(ctx context.Context, req model.CreateGenerationRequest) (*model.Generation, error) {
	b.mu.Lock()
	b.next++
	id := fmt.Sprintf("g%d", b.next)
	b.calls = append(b.calls, fmt.Sprintf("create %s %s", req.ProductId, req.CollectionId))
	b.mu.Unlock()
	return &model.Generation{
		Id:           id,
		ProductId:    req.ProductId,
		CollectionId: req.CollectionId,
		Status:       model.GenerationStatusPending,
		CreatedAt:    time.Now(),
	}, nil
}

func (b *fakeBackend) MergePrompts(ctx context.Context, id string, req model.MergePromptsRequest) (*model.MergePromptsResponse, error) {
	b.record("merge " + id)
	if b.mergeGate != nil && len(req.Overrides) == 0 {
		<-b.mergeGate
	}
	if b.mergeErr != nil {
		return nil, b.mergeErr
	}
	prompts := make(map[string]model.MergedPrompt)
	for _, shotType := range req.ShotTypes {
		prompts[shotType] = model.MergedPrompt{Prompt: "merged " + shotType}
	}
	for shotType, prompt := range req.Overrides {
		prompts[shotType] = prompt
	}
	return &model.MergePromptsResponse{GenerationId: id, MergedPrompts: prompts}, nil
}

func (b *fakeBackend) ExecuteGeneration(ctx context.Context, id string, req model.ExecuteGenerationRequest) (*model.ExecuteGenerationResponse, error) {
	b.record("execute " + id)
	if b.executeErr != nil {
		return nil, b.executeErr
	}
	return &model.ExecuteGenerationResponse{GenerationId: id, Status: model.GenerationStatusProcessing}, nil
}

func (b *fakeBackend) GenerationStatus(ctx context.Context, id string) (*model.GenerationStatusResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.statusErr != nil {
		return nil, b.statusErr
	}
	if b.status == nil {
		return &model.GenerationStatusResponse{GenerationId: id, Status: model.GenerationStatusProcessing}, nil
	}
	status := *b.status
	status.VisualOutputs = append([]model.VisualOutput(nil), b.status.VisualOutputs...)
	return &status, nil
}

type fakeWatcher struct {
	mu        sync.Mutex
	callbacks socket.Callbacks
	watched   []string
	closed    bool
}

func (w *fakeWatcher) Watch(generationId string) {
	w.mu.Lock()
	w.watched = append(w.watched, generationId)
	w.mu.Unlock()
}

func (w *fakeWatcher) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

func (w *fakeWatcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.watched...)
}

type fakeNotifier struct {
	finished chan Snapshot
}

func (n *fakeNotifier) GenerationFinished(ctx context.Context, snapshot Snapshot) error {
	n.finished <- snapshot
	return nil
}
