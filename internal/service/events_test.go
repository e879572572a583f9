package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestEventPublisherPublishesToRedisChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, "roots:solutions")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewEventPublisher(client, nil, "roots.solutions", testLogger())
	score := 7
	publisher.Publish(ctx, SolutionEvent{Type: EventSolutionCorrected, SolutionID: 3, UserID: 1, ProblemID: 2, Score: &score})

	select {
	case msg := <-sub.Channel():
		var event SolutionEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		require.Equal(t, EventSolutionCorrected, event.Type)
		require.Equal(t, uint(3), event.SolutionID)
		require.NotNil(t, event.Score)
		require.Equal(t, 7, *event.Score)
		require.False(t, event.OccurredAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event was not published")
	}
}

func TestEventPublisherWithoutBrokersIsNoop(t *testing.T) {
	publisher := NewEventPublisher(nil, nil, "", testLogger())
	require.NotPanics(t, func() {
		publisher.Publish(context.Background(), SolutionEvent{Type: EventSolutionSubmitted})
	})
}
