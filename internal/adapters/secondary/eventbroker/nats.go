package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
)

const (
	StreamName     = "CHEFFY"
	SubjectPrefix  = "cheffy."
	SubjectPattern = SubjectPrefix + ">" // Tous les events cheffy.*
)

type NatsBroker struct {
	js jetstream.JetStream
}

// NewNatsBroker s'assure que le Stream existe (idempotent).
func NewNatsBroker(ctx context.Context, nc *nats.Conn) (*NatsBroker, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPattern},
		Storage:  jetstream.FileStorage,
		Replicas: 1,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsBroker{js: js}, nil
}

// Subject renvoie le sujet NATS d'un type d'event (cheffy.recipe.voted, ...).
func Subject(t domain.EventType) string {
	return SubjectPrefix + string(t)
}

func (n *NatsBroker) PublishEngagement(ctx context.Context, event domain.EngagementEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: Subject(event.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	// Propagation du trace context de la requête HTTP vers les consommateurs
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	// Msg-Id : déduplication côté serveur si le publish est rejoué
	ack, err := n.js.PublishMsg(ctx, msg, jetstream.WithMsgID(uuid.NewString()))
	if err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}

	slog.DebugContext(ctx, "📢 engagement event published", "subject", msg.Subject, "seq", ack.Sequence)
	return nil
}
