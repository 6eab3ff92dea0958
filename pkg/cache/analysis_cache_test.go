package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PromptOps/PromptForge/pkg/domain/prompt"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func analysisKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("promptforge:analysis:%s", hex.EncodeToString(sum[:]))
}

func TestAnalysisCache_Hit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewAnalysisCache(client, time.Hour, testLogger())

	stored := prompt.Metrics{TokenCount: 12, Clarity: 0.7, Safety: 1.0}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)

	mock.ExpectGet(analysisKey("summarize this")).SetVal(string(raw))

	got, ok := c.Get(context.Background(), "summarize this")
	assert.True(t, ok)
	assert.Equal(t, stored, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisCache_Miss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewAnalysisCache(client, time.Hour, testLogger())

	mock.ExpectGet(analysisKey("unknown")).RedisNil()

	_, ok := c.Get(context.Background(), "unknown")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisCache_CorruptEntry(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewAnalysisCache(client, time.Hour, testLogger())

	mock.ExpectGet(analysisKey("bad")).SetVal("{not json")

	_, ok := c.Get(context.Background(), "bad")
	assert.False(t, ok)
}

func TestAnalysisCache_Set(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewAnalysisCache(client, time.Minute, testLogger())

	m := prompt.Metrics{TokenCount: 3, Safety: 1.0}
	raw, err := json.Marshal(m)
	require.NoError(t, err)

	mock.ExpectSet(analysisKey("short prompt"), string(raw), time.Minute).SetVal("OK")

	c.Set(context.Background(), "short prompt", m)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisCache_NilClientDisables(t *testing.T) {
	c := NewAnalysisCache(nil, time.Hour, testLogger())

	_, ok := c.Get(context.Background(), "anything")
	assert.False(t, ok)

	// writes are silently dropped
	c.Set(context.Background(), "anything", prompt.Metrics{TokenCount: 1})
}
