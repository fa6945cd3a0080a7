package builders

import (
	"context"
	"testing"

	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/stretchr/testify/require"
)

func TestTelegramBuilder_EmptyToken(t *testing.T) {
	log := createTestLogger(t)
	mb := bus.New(10, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, mb.Start(ctx))
	defer func() { _ = mb.Stop() }()

	tg, err := NewTelegramBuilder(&config.Config{}, log, mb).Build(ctx)

	require.Error(t, err)
	require.Nil(t, tg)
	require.Contains(t, err.Error(), "failed to start telegram connector")
}
