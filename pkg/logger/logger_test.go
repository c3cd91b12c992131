package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestErrorKeepsContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithOrderID(context.Background(), "order-123")
	log.Error(ctx, "boom", errors.New("store down"))

	assert.Contains(t, buf.String(), `"order_id":"order-123"`)
	assert.Contains(t, buf.String(), `"error":"store down"`)
	assert.Contains(t, buf.String(), `"service":"test"`)
}

func TestLevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: buf})

	log.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	log.Info(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
}
