package app

import (
	"context"
	"testing"

	"github.com/kapu/gamegen-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildRequiresConfigAndLogger(t *testing.T) {
	_, err := Build(context.Background(), nil, zap.NewNop())
	assert.Error(t, err)

	_, err = Build(context.Background(), &config.Config{}, nil)
	assert.Error(t, err)
}

func TestBuildRequiresGeminiKey(t *testing.T) {
	_, err := Build(context.Background(), &config.Config{}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestCloseRunsClosersInReverse(t *testing.T) {
	var order []int
	c := &Container{closers: []func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	}}

	c.Close()
	c.Close()
	assert.Equal(t, []int{2, 1}, order)

	var nilContainer *Container
	assert.NotPanics(t, nilContainer.Close)
}
