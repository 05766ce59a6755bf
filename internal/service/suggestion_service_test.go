package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/apperr"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/cache"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
)

func setupSuggestionService() (*SuggestionService, *mockHistoryRepo, *fakeCache, *fakePublisher) {
	history := &mockHistoryRepo{}
	c := newFakeCache()
	pub := &fakePublisher{}
	svc := NewSuggestionService(history, c, pub, 5, newTestLogger())
	svc.newJobID = func() string { return "job-123" }
	return svc, history, c, pub
}

func seedHistory(history *mockHistoryRepo, pairs ...[2]int) {
	for _, p := range pairs {
		history.rows = append(history.rows, models.PriceHistory{
			ID:       int64(len(history.rows) + 1),
			SellerID: "1",
			SKU:      "A",
			De:       p[0],
			Por:      p[1],
		})
	}
}

func TestRequestSuggestion(t *testing.T) {
	svc, history, c, pub := setupSuggestionService()
	seedHistory(history, [2]int{120, 100}, [2]int{120, 110}, [2]int{130, 115})

	job, err := svc.RequestSuggestion(context.Background(), "1", "A")

	require.NoError(t, err)
	assert.Equal(t, "job-123", job.JobID)
	assert.Equal(t, models.SuggestionStatusPending, job.Status)

	require.Len(t, pub.published, 1)
	request, ok := pub.published[0].(models.SuggestionRequest)
	require.True(t, ok)
	assert.Equal(t, "1", request.SellerID)
	assert.Equal(t, "A", request.SKU)
	assert.Equal(t, "job-123", request.JobID)
	// Oldest snapshot first.
	require.Len(t, request.History, 3)
	assert.Equal(t, models.HistoryEntry{De: 120, Por: 100}, request.History[0])
	assert.Equal(t, models.HistoryEntry{De: 130, Por: 115}, request.History[2])

	assert.Contains(t, c.entries, cache.SuggestionKey("job-123"))
}

func TestRequestSuggestionLimitsHistoryWindow(t *testing.T) {
	svc, history, _, pub := setupSuggestionService()
	svc.historySize = 2
	seedHistory(history, [2]int{100, 90}, [2]int{110, 95}, [2]int{120, 100})

	_, err := svc.RequestSuggestion(context.Background(), "1", "A")

	require.NoError(t, err)
	request := pub.published[0].(models.SuggestionRequest)
	// Only the two most recent snapshots, oldest first.
	require.Len(t, request.History, 2)
	assert.Equal(t, models.HistoryEntry{De: 110, Por: 95}, request.History[0])
	assert.Equal(t, models.HistoryEntry{De: 120, Por: 100}, request.History[1])
}

func TestRequestSuggestionWithoutHistory(t *testing.T) {
	svc, _, _, pub := setupSuggestionService()

	_, err := svc.RequestSuggestion(context.Background(), "1", "A")

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "historico_nao_encontrado", apperr.DetailsOf(err)[0].Slug)
	assert.Empty(t, pub.published)
}

func TestRequestSuggestionPublishFailure(t *testing.T) {
	svc, history, c, pub := setupSuggestionService()
	seedHistory(history, [2]int{120, 100})
	pub.fail = errors.New("broker down")

	_, err := svc.RequestSuggestion(context.Background(), "1", "A")

	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.NotContains(t, c.entries, cache.SuggestionKey("job-123"))
}

func TestRequestSuggestionToleratesCacheFailure(t *testing.T) {
	svc, history, c, _ := setupSuggestionService()
	seedHistory(history, [2]int{120, 100})
	c.failSet = true

	job, err := svc.RequestSuggestion(context.Background(), "1", "A")

	require.NoError(t, err)
	assert.Equal(t, models.SuggestionStatusPending, job.Status)
}

func TestGetSuggestion(t *testing.T) {
	svc, _, c, _ := setupSuggestionService()
	ctx := context.Background()

	price := "105"
	done := models.SuggestionResult{Status: models.SuggestionStatusDone, SuggestedPrice: &price}
	require.NoError(t, c.SetJSON(ctx, cache.SuggestionKey("job-123"), done))

	result, err := svc.GetSuggestion(ctx, "job-123")

	require.NoError(t, err)
	assert.Equal(t, models.SuggestionStatusDone, result.Status)
	require.NotNil(t, result.SuggestedPrice)
	assert.Equal(t, "105", *result.SuggestedPrice)
}

func TestGetSuggestionPending(t *testing.T) {
	svc, _, c, _ := setupSuggestionService()
	ctx := context.Background()

	pending := models.SuggestionResult{Status: models.SuggestionStatusPending}
	require.NoError(t, c.SetJSON(ctx, cache.SuggestionKey("job-123"), pending))

	result, err := svc.GetSuggestion(ctx, "job-123")

	require.NoError(t, err)
	assert.Equal(t, models.SuggestionStatusPending, result.Status)
	assert.Nil(t, result.SuggestedPrice)
}

func TestGetSuggestionUnknownJob(t *testing.T) {
	svc, _, _, _ := setupSuggestionService()

	_, err := svc.GetSuggestion(context.Background(), "expired-or-bogus")

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
