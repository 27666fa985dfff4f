package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"go.uber.org/multierr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/stantonsupply/backoffice/pkg/config"
	"github.com/stantonsupply/backoffice/pkg/logger"
)

const publishTimeout = 10 * time.Second

// PubSubPublisher emits events to a Google Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logg      *logger.Logger

	wg sync.WaitGroup
}

// NewPubSubPublisher connects to Pub/Sub and resolves the domain topic.
func NewPubSubPublisher(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*PubSubPublisher, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errors.New("gcp project id is required")
	}
	if strings.TrimSpace(cfg.DomainTopic) == "" {
		return nil, errors.New("domain topic is required")
	}

	client, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	topic := cfg.DomainTopic
	if !strings.HasPrefix(topic, "projects/") {
		topic = fmt.Sprintf("projects/%s/topics/%s", gcp.ProjectID, topic)
	}

	if logg != nil {
		logg.Info(ctx, "pubsub publisher initialized")
	}

	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(topic),
		logg:      logg,
	}, nil
}

// Publish serializes the event and hands it to the broker without
// waiting for the server ack on the request path.
func (p *PubSubPublisher) Publish(ctx context.Context, event Event) {
	payload, err := event.marshal()
	if err != nil {
		p.logError(ctx, "marshaling domain event", err)
		return
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": event.Type.String(),
		},
	})

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if _, err := result.Get(waitCtx); err != nil {
			// v2 surfaces gRPC errors; NotFound means the topic was never created.
			if status.Code(err) == codes.NotFound {
				p.logError(waitCtx, "domain topic does not exist", err)
				return
			}
			p.logError(waitCtx, "publishing domain event", err)
		}
	}()
}

// Close waits for in-flight publishes and releases the client.
func (p *PubSubPublisher) Close() error {
	p.wg.Wait()
	var errs error
	if p.publisher != nil {
		p.publisher.Stop()
	}
	if p.client != nil {
		errs = multierr.Append(errs, p.client.Close())
	}
	return errs
}

func (p *PubSubPublisher) logError(ctx context.Context, msg string, err error) {
	if p.logg == nil {
		return
	}
	p.logg.Error(ctx, msg, err)
}
