package app

import (
	"context"

	"github.com/milankatira/uptime-sub000/pkg/rabbitmq"
)

func StartConsumer(ctx context.Context, c *Container) {

	checkHandler := rabbitmq.NewCheckHandler(c.pipeline)

	// runs as a separate goroutine, Consume ranges over the delivery channel
	go func() {
		if err := c.Consumer.Consume(ctx, checkHandler); err != nil {
			c.Logger.Error().
				Err(err).
				Msg("rabbitmq consumer stopped")
		}
	}()
}
