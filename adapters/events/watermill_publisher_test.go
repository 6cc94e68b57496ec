package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatermillPublisher_Topics(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	logins, err := bus.Subscribe(ctx, LoginTopic)
	require.NoError(t, err)
	logouts, err := bus.Subscribe(ctx, LogoutTopic)
	require.NoError(t, err)

	pub := NewWatermillPublisher(bus)
	require.NoError(t, pub.PublishLogin(ctx, "addr1", "jti-1"))
	require.NoError(t, pub.PublishLogout(ctx, "addr1", "jti-1"))

	select {
	case msg := <-logins:
		msg.Ack()
		assert.Equal(t, "jti-1", msg.UUID)

		var event AuthEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "addr1", event.Address)
		assert.Equal(t, "jti-1", event.TokenID)
		assert.False(t, event.At.IsZero())
	case <-ctx.Done():
		t.Fatal("no login event")
	}

	select {
	case msg := <-logouts:
		msg.Ack()
		assert.Equal(t, "jti-1", msg.UUID)
	case <-ctx.Done():
		t.Fatal("no logout event")
	}
}

func TestNewPublisher_Drivers(t *testing.T) {
	logger := NewZapLogger(zap.NewNop())

	pub, closeFn, err := NewPublisher(DriverNone, nil, logger)
	require.NoError(t, err)
	assert.NoError(t, pub.PublishLogin(context.Background(), "addr1", "jti"))
	assert.NoError(t, closeFn())

	pub, closeFn, err = NewPublisher(DriverGoChannel, nil, logger)
	require.NoError(t, err)
	assert.NoError(t, pub.PublishLogout(context.Background(), "addr1", "jti"))
	assert.NoError(t, closeFn())

	_, _, err = NewPublisher(DriverRedis, nil, logger)
	assert.Error(t, err)

	_, _, err = NewPublisher("kafka", nil, logger)
	assert.Error(t, err)
}
