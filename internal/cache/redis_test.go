package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Status string `json:"status"`
	Seq    int    `json:"seq"`
}

func TestRedisCacheSave(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(client, time.Hour)

	mock.ExpectSet(SnapshotKey, []byte(`{"status":"OPEN","seq":3}`), time.Hour).SetVal("OK")

	require.NoError(t, c.Save(context.Background(), SnapshotKey, doc{Status: "OPEN", Seq: 3}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheSaveError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(client, time.Hour)

	mock.ExpectSet(SnapshotKey, []byte(`{"status":"OPEN","seq":0}`), time.Hour).SetErr(assert.AnError)

	err := c.Save(context.Background(), SnapshotKey, doc{Status: "OPEN"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRedisCacheLoad(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(client, time.Hour)

	mock.ExpectGet(SnapshotKey).SetVal(`{"status":"CLOSED","seq":7}`)

	var got doc
	require.NoError(t, c.Load(context.Background(), SnapshotKey, &got))
	assert.Equal(t, doc{Status: "CLOSED", Seq: 7}, got)
}

func TestRedisCacheLoadMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(client, time.Hour)

	mock.ExpectGet(SnapshotKey).RedisNil()

	var got doc
	assert.ErrorIs(t, c.Load(context.Background(), SnapshotKey, &got), ErrMiss)
}

func TestRedisCacheLoadCorrupt(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(client, time.Hour)

	mock.ExpectGet(SnapshotKey).SetVal(`{not json`)

	var got doc
	err := c.Load(context.Background(), SnapshotKey, &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestRedisCachePing(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(client, time.Hour)

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, c.Ping(context.Background()))

	mock.ExpectPing().SetErr(assert.AnError)
	assert.ErrorIs(t, c.Ping(context.Background()), assert.AnError)
}
