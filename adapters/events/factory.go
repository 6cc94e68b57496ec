package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/layer-3/flowkey/ports"
	"github.com/redis/go-redis/v9"
)

const (
	DriverNone      = "none"
	DriverGoChannel = "gochannel"
	DriverRedis     = "redis"
)

// NewPublisher builds the event publisher for driver. The returned closer
// releases the underlying watermill publisher.
func NewPublisher(driver string, client *redis.Client, logger watermill.LoggerAdapter) (ports.EventPublisher, func() error, error) {
	var pub message.Publisher

	switch driver {
	case DriverNone, "":
		return NopPublisher{}, func() error { return nil }, nil
	case DriverGoChannel:
		pub = gochannel.NewGoChannel(gochannel.Config{}, logger)
	case DriverRedis:
		if client == nil {
			return nil, nil, fmt.Errorf("redis event driver needs a redis client")
		}
		p, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: client}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis publisher: %w", err)
		}
		pub = p
	default:
		return nil, nil, fmt.Errorf("unknown event driver %q", driver)
	}

	return NewWatermillPublisher(pub), pub.Close, nil
}
