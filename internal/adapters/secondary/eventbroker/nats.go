package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

const (
	StreamName = "IDENTITY"
	SubjectPattern = "identity.>"
	welcomeSubject = "identity.mail.welcome"
)

// NatsBroker implements ports.Mailer over NATS JetStream: each call
// publishes a durably-persisted message for an out-of-process mail
// worker to consume, rather than sending mail itself. Fire-and-forget:
// failures must not block the caller.
type NatsBroker struct {
	js jetstream.JetStream
}

// NewNatsBroker connects to url and ensures the identity stream exists.
func NewNatsBroker(url string) (*NatsBroker, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name: StreamName,
		Subjects: []string{SubjectPattern},
		Storage: jetstream.FileStorage,
		Replicas: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsBroker{js: js}, nil
}

// welcomeMessage is the payload published on welcomeSubject for a mail
// worker (out of scope here) to render and deliver.
type welcomeMessage struct {
	Email string `json:"email"`
	Locale string `json:"locale"`
	Username string `json:"username"`
}

// SendWelcome publishes a welcome notification. The caller treats any
// returned error as non-fatal and continues the use case.
func (n *NatsBroker) SendWelcome(ctx context.Context, email domain.EmailAddress, locale, username string) error {
	data, err := json.Marshal(welcomeMessage{Email: email.String(), Locale: locale, Username: username})
	if err != nil {
		return fmt.Errorf("marshal welcome message: %w", err)
	}

	if _, err := n.js.Publish(ctx, welcomeSubject, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

var _ ports.Mailer = (*NatsBroker)(nil)
