package faqstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"
	"github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

func newMockStore(t *testing.T) (*ValkeyStore, *mock.Client) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	return NewValkeyStore(client, "test"), client
}

func TestValkeyStoreVectorRoundTrip(t *testing.T) {
	store, client := newMockStore(t)
	ctx := context.Background()
	vec := []float32{0.6, -0.8, 0, 1e-7}
	payload := valkey.VectorString32(vec)

	client.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "test:vec:model:abc", payload, "EX", "90")).
		Return(mock.Result(mock.ValkeyString("OK")))
	client.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "test:vec:model:abc")).
		Return(mock.Result(mock.ValkeyBlobString(payload)))

	require.NoError(t, store.SaveVector(ctx, "model:abc", vec, 90*time.Second))
	got, ok, err := store.GetVector(ctx, "model:abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, vec, got)
}

func TestValkeyStoreVectorMissAndCorruptPayload(t *testing.T) {
	store, client := newMockStore(t)
	ctx := context.Background()

	client.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "test:vec:missing")).
		Return(mock.Result(mock.ValkeyNil()))
	client.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "test:vec:short")).
		Return(mock.Result(mock.ValkeyBlobString("abcde")))

	got, ok, err := store.GetVector(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)

	_, ok, err = store.GetVector(ctx, "short")
	require.ErrorContains(t, err, "invalid length 5")
	require.False(t, ok)
}

func TestValkeyStoreShortTTLRoundsUpToOneSecond(t *testing.T) {
	store, client := newMockStore(t)
	payload := valkey.VectorString32([]float32{1})

	client.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "test:vec:k", payload, "EX", "1")).
		Return(mock.Result(mock.ValkeyString("OK")))

	require.NoError(t, store.SaveVector(context.Background(), "k", []float32{1}, 10*time.Millisecond))
}

func TestValkeyStoreTrending(t *testing.T) {
	store, client := newMockStore(t)
	ctx := context.Background()

	client.EXPECT().
		Do(gomock.Any(), mock.Match("ZINCRBY", "test:trending", "1", "reset password")).
		Return(mock.Result(mock.ValkeyFloat64(1)))
	client.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "test:display:reset password", "Reset password?", "NX")).
		Return(mock.Result(mock.ValkeyString("OK")))
	require.NoError(t, store.IncrementQuery(ctx, "reset password", "Reset password?"))
	require.NoError(t, store.IncrementQuery(ctx, "", "ignored"))

	client.EXPECT().
		Do(gomock.Any(), mock.Match("ZREVRANGE", "test:trending", "0", "1", "WITHSCORES")).
		Return(mock.Result(mock.ValkeyArray(
			mock.ValkeyArray(mock.ValkeyBlobString("reset password"), mock.ValkeyFloat64(3)),
			mock.ValkeyArray(mock.ValkeyBlobString("refund"), mock.ValkeyFloat64(1)),
		)))
	client.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "test:display:reset password")).
		Return(mock.Result(mock.ValkeyBlobString("Reset password?")))
	client.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "test:display:refund")).
		Return(mock.Result(mock.ValkeyNil()))

	top, err := store.TopQueries(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []faq.TrendingQuery{
		{Query: "Reset password?", Count: 3},
		{Query: "refund", Count: 1},
	}, top)
}
