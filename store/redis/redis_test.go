package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakegraph/kgqa/store"
)

func TestSessionStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewSessionStore(RedisOptions{Addr: mr.Addr()})
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	h, err := s.History(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, h)

	ts := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, "sess-1",
		store.Message{ID: "1", Message: "太湖有多大？", Timestamp: ts, Type: store.MessageUser},
		store.Message{ID: "2", Message: "约2400平方公里。", Timestamp: ts, Type: store.MessageAssistant},
	))
	require.NoError(t, s.Append(ctx, "sess-1", store.Message{ID: "3", Message: "谢谢", Timestamp: ts, Type: store.MessageUser}))
	require.NoError(t, s.Append(ctx, "sess-1"))

	h, err = s.History(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{h[0].ID, h[1].ID, h[2].ID})
	assert.Equal(t, "太湖有多大？", h[0].Message)
	assert.True(t, ts.Equal(h[1].Timestamp))
	assert.True(t, mr.Exists("kgqa:session:sess-1:messages"))
	assert.Zero(t, mr.TTL("kgqa:session:sess-1:messages"))

	require.NoError(t, s.Clear(ctx, "sess-1"))
	h, err = s.History(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestSessionStore_TTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewSessionStore(RedisOptions{Addr: mr.Addr(), Prefix: "test:", TTL: time.Hour})
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "a", store.Message{ID: "1", Message: "hi", Type: store.MessageUser}))
	assert.Equal(t, time.Hour, mr.TTL("test:session:a:messages"))

	mr.FastForward(2 * time.Hour)
	h, err := s.History(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestSessionStore_CorruptEntry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	_, err = mr.Push("kgqa:session:bad:messages", "not json")
	require.NoError(t, err)

	s := NewSessionStore(RedisOptions{Addr: mr.Addr()})
	defer s.Close()
	_, err = s.History(context.Background(), "bad")
	assert.Error(t, err)
}
