package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns a deterministic per-text vector and records every
// batch it receives.
type stubEmbedder struct {
	mu      sync.Mutex
	batches [][]string
	failOn  string
	short   bool
}

func vectorFor(text string) []float32 {
	var sum float32
	for _, b := range []byte(text) {
		sum += float32(b)
	}
	return []float32{sum, float32(len(text))}
}

func (s *stubEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	s.batches = append(s.batches, append([]string(nil), texts...))
	s.mu.Unlock()

	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if s.failOn != "" && strings.Contains(text, s.failOn) {
			return nil, errors.New("provider unavailable")
		}
		vectors = append(vectors, vectorFor(text))
	}
	if s.short && len(vectors) > 0 {
		vectors = vectors[:len(vectors)-1]
	}
	return vectors, nil
}

func TestNewOrchestratorRequiresEmbedder(t *testing.T) {
	_, err := NewOrchestrator(nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestEmbedAllEmptyInput(t *testing.T) {
	o, err := NewOrchestrator(&stubEmbedder{})
	require.NoError(t, err)
	defer o.Release()

	vectors, err := o.EmbedAll(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedAllPreservesOrder(t *testing.T) {
	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("text number %d", i)
	}

	o, err := NewOrchestrator(&stubEmbedder{},
		WithBatchSize(4),
		WithMaxParallel(2),
		WithBatchPause(0),
	)
	require.NoError(t, err)
	defer o.Release()

	vectors, err := o.EmbedAll(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		assert.Equal(t, vectorFor(text), vectors[i], "vector %d out of position", i)
	}
}

func TestEmbedAllSplitsBatches(t *testing.T) {
	embedder := &stubEmbedder{}
	o, err := NewOrchestrator(embedder,
		WithBatchSize(4),
		WithMaxParallel(1),
		WithBatchPause(0),
	)
	require.NoError(t, err)
	defer o.Release()

	texts := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	_, err = o.EmbedAll(context.Background(), texts)
	require.NoError(t, err)

	// 9 texts in batches of 4, one request per batch: 4 + 4 + 1
	require.Len(t, embedder.batches, 3)
	assert.Len(t, embedder.batches[0], 4)
	assert.Len(t, embedder.batches[1], 4)
	assert.Len(t, embedder.batches[2], 1)
}

func TestEmbedAllReportsProgress(t *testing.T) {
	var calls [][2]int
	o, err := NewOrchestrator(&stubEmbedder{},
		WithBatchSize(4),
		WithBatchPause(0),
		WithProgress(func(processed, total int) {
			calls = append(calls, [2]int{processed, total})
		}),
	)
	require.NoError(t, err)
	defer o.Release()

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("t%d", i)
	}
	_, err = o.EmbedAll(context.Background(), texts)
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{4, 10}, {8, 10}, {10, 10}}, calls)
}

func TestEmbedAllFailsFast(t *testing.T) {
	o, err := NewOrchestrator(&stubEmbedder{failOn: "poison"},
		WithBatchSize(2),
		WithBatchPause(0),
	)
	require.NoError(t, err)
	defer o.Release()

	vectors, err := o.EmbedAll(context.Background(), []string{"fine", "poison pill", "never reached"})
	assert.Nil(t, vectors)
	assert.ErrorIs(t, err, ErrEmbedFailed)
}

func TestEmbedAllCountMismatch(t *testing.T) {
	o, err := NewOrchestrator(&stubEmbedder{short: true},
		WithMaxParallel(1),
		WithBatchPause(0),
	)
	require.NoError(t, err)
	defer o.Release()

	_, err = o.EmbedAll(context.Background(), []string{"a", "b", "c"})
	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestEmbedAllHonorsContextBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, err := NewOrchestrator(&stubEmbedder{}, WithBatchSize(1))
	require.NoError(t, err)
	defer o.Release()

	_, err = o.EmbedAll(ctx, []string{"first", "second"})
	assert.ErrorIs(t, err, context.Canceled)
}
