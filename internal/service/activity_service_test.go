package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roots-api/internal/repository"
)

func TestActivityServiceRecordMasksSensitiveMetadata(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewActivityService(repository.NewActivityLogRepository(db), testLogger())

	entityID := uint(12)
	recorded, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    3,
		Action:     " Solution.Corrected ",
		EntityType: "Solution",
		EntityID:   &entityID,
		Metadata:   map[string]interface{}{"score": 5, "user_email": "a@example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, "solution.corrected", recorded.Action)
	require.Equal(t, "system", recorded.ActorRole)
	require.Equal(t, "***", recorded.Metadata["user_email"])

	items, total, err := svc.List(context.Background(), repository.ActivityLogFilter{Action: "solution.corrected"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, items, 1)

	_, err = svc.Record(context.Background(), ActivityEntry{EntityType: "solution"})
	require.Error(t, err)
}
