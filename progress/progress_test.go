package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Update(t *testing.T) {
	ctx, tracker := WithNewTracker(context.Background(), "run-1", "pipeline.yaml", nil)

	UpdateCtx(ctx, Delta{Stages: 3})
	UpdateCtx(ctx, Delta{StagesCompleted: 1})
	UpdateCtx(ctx, Delta{Cells: 4, CellsCompleted: 2, CellsFailed: 1})

	snapshot := tracker.Snapshot()
	assert.Equal(t, 3, snapshot.TotalStages)
	assert.Equal(t, 1, snapshot.CompletedStages)
	assert.Equal(t, 4, snapshot.TotalCells)
	assert.Equal(t, 2, snapshot.CompletedCells)
	assert.Equal(t, 1, snapshot.FailedCells)
}

func TestProgress_OnChange(t *testing.T) {
	_, tracker := WithNewTracker(context.Background(), "run-1", "pipeline.yaml", nil)
	var seen []int
	tracker.OnChange(func(p Progress) {
		seen = append(seen, p.CompletedStages)
	})
	tracker.Update(Delta{Stages: 2})
	tracker.Update(Delta{StagesCompleted: 1})
	tracker.Update(Delta{StagesCompleted: 1})
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestProgress_NoTracker(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	// no-op without a tracker
	UpdateCtx(context.Background(), Delta{Stages: 1})
}
