package app

import (
	"context"
	"fmt"
	"testing"

	"campus_notifier/internal/domain/push"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTokens(n int) []string {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("t%04d", i)
	}
	return tokens
}

func TestChunk(t *testing.T) {
	for _, tt := range []struct {
		n          int
		wantChunks int
	}{
		{0, 0}, {1, 1}, {499, 1}, {500, 1}, {501, 2}, {1000, 2}, {1001, 3},
	} {
		t.Run(fmt.Sprintf("%d tokens", tt.n), func(t *testing.T) {
			tokens := makeTokens(tt.n)
			chunks := Chunk(tokens, push.MaxMulticastTokens)
			require.Len(t, chunks, tt.wantChunks)

			var flat []string
			for _, c := range chunks {
				assert.LessOrEqual(t, len(c), push.MaxMulticastTokens)
				assert.NotEmpty(t, c)
				flat = append(flat, c...)
			}
			if tt.n == 0 {
				assert.Empty(t, flat)
				return
			}
			assert.Equal(t, tokens, flat)
		})
	}
}

func TestDispatch_ChunkFailureIsIsolated(t *testing.T) {
	client := &fakePushClient{failTokens: map[string]bool{"t0600": true}}
	dispatcher := NewPushDispatcher(client, testLogger())

	results := dispatcher.Dispatch(context.Background(), makeTokens(1200), push.Message{Title: "t"})
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, 500, results[0].SuccessCount)
	assert.Error(t, results[1].Err)
	assert.Equal(t, 500, results[1].FailureCount)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 200, results[2].SuccessCount)
	assert.Len(t, client.multicasts, 2)
}

func TestDispatch_RecoversBackendPanic(t *testing.T) {
	client := &fakePushClient{panicOn: "t0001"}
	dispatcher := NewPushDispatcher(client, testLogger())

	results := dispatcher.Dispatch(context.Background(), makeTokens(3), push.Message{})
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Equal(t, 3, results[0].FailureCount)
}

func TestDispatch_NoTokensNoCalls(t *testing.T) {
	client := &fakePushClient{}
	dispatcher := NewPushDispatcher(client, testLogger())

	assert.Empty(t, dispatcher.Dispatch(context.Background(), nil, push.Message{}))
	assert.Empty(t, client.multicasts)
}

func TestBroadcast(t *testing.T) {
	client := &fakePushClient{}
	dispatcher := NewPushDispatcher(client, testLogger())
	require.NoError(t, dispatcher.Broadcast(context.Background(), "polls", push.Message{}))
	assert.Equal(t, []string{"polls"}, client.topics)

	client.topicErr = fmt.Errorf("quota exceeded")
	err := dispatcher.Broadcast(context.Background(), "polls", push.Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "polls")
}
