package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisClient_SAdd(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := &redisClient{client: db}
	ctx := context.TODO()

	// Success
	mock.ExpectSAdd("documents:processed:uploaded", "7:bucket/key").SetVal(1)
	val, err := client.SAdd(ctx, "documents:processed:uploaded", "7:bucket/key")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), val)

	// Error
	mock.ExpectSAdd("documents:processed:uploaded", "7:bucket/key").SetErr(errors.New("redis error"))
	_, err = client.SAdd(ctx, "documents:processed:uploaded", "7:bucket/key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis sadd failure")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRedisClient_SIsMember(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := &redisClient{client: db}
	ctx := context.TODO()

	// Success
	mock.ExpectSIsMember("documents:processed:uploaded", "7:bucket/key").SetVal(true)
	val, err := client.SIsMember(ctx, "documents:processed:uploaded", "7:bucket/key")
	assert.NoError(t, err)
	assert.True(t, val)

	// Error
	mock.ExpectSIsMember("documents:processed:uploaded", "7:bucket/key").SetErr(errors.New("redis error"))
	_, err = client.SIsMember(ctx, "documents:processed:uploaded", "7:bucket/key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis sismember failure")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
