package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oladanielT/support-system/internal/repository"
	apperrors "github.com/oladanielT/support-system/pkg/util/errorutil"
)

func syncBatch(n int) []CreateComplaintInput {
	items := make([]CreateComplaintInput, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, CreateComplaintInput{
			OfflineID:   strPtr(fmt.Sprintf("tablet-7-%04d", i)),
			Title:       fmt.Sprintf("Offline report %d", i),
			Description: "Captured while the campus network was down",
		})
	}
	return items
}

func TestBulkSyncIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := syncBatch(3)

	first, err := f.complaints.BulkSync(ctx, f.admin, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Created)
	assert.Equal(t, 0, first.Skipped)
	for _, c := range first.Complaints {
		assert.True(t, c.IsSynced)
	}

	second, err := f.complaints.BulkSync(ctx, f.admin, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 3, second.Skipped)
	assert.Empty(t, second.Failed)

	total, err := f.store.Complaints().Count(ctx, repository.ComplaintFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestBulkSyncRecordsFailuresWithoutAbortingBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := syncBatch(7)
	batch[1].Title = "x"

	result, err := f.complaints.BulkSync(ctx, f.user, batch)
	require.NoError(t, err)
	// one invalid item, then the open quota stops the sixth valid one
	assert.Equal(t, 5, result.Created)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.Equal(t, apperrors.CodeValidation, result.Failed[0].Code)
	assert.Equal(t, "tablet-7-0006", result.Failed[1].OfflineID)
	assert.Equal(t, apperrors.CodeQuotaExceeded, result.Failed[1].Code)
}

func TestBulkSyncItemsWithoutOfflineIDAlwaysCreate(t *testing.T) {
	f := newFixture(t)
	item := CreateComplaintInput{Title: "No offline id here", Description: "Typed on a kiosk without storage"}

	result, err := f.complaints.BulkSync(context.Background(), f.admin, []CreateComplaintInput{item, item})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
}

func TestBulkSyncRejectsOversizedBatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.complaints.BulkSync(context.Background(), f.admin, syncBatch(101))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestBulkSyncConcurrentCallsDoNotDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := syncBatch(4)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		skipped int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.complaints.BulkSync(ctx, f.admin, batch)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			created += result.Created
			skipped += result.Skipped
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, created)
	assert.Equal(t, 16, skipped)
	total, err := f.store.Complaints().Count(ctx, repository.ComplaintFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestBulkSyncSkipsComplaintCreatedDirectly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := syncBatch(2)
	_, err := f.complaints.Create(ctx, f.user, batch[0])
	require.NoError(t, err)

	result, err := f.complaints.BulkSync(ctx, f.user, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
}
