package natsclient

import (
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects served and published by the upsolve service.
const (
	SubjectResolveRequest = "upsolve.resolve.request"
	SubjectExtractRequest = "upsolve.extract.request"
	SubjectResolved       = "upsolve.candidates.resolved"

	// QueueGroup spreads requests across service replicas.
	QueueGroup = "upsolve-workers"
)

type NatsClient struct {
	Conn *nats.Conn
}

func NewNatsClient(natsURL string) (*NatsClient, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("upsolve"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NatsClient{Conn: nc}, nil
}

func (n *NatsClient) Close() {
	if n.Conn != nil {
		n.Conn.Close()
	}
}

// Drain lets in-flight handlers finish before closing.
func (n *NatsClient) Drain() error {
	if n.Conn == nil {
		return nil
	}
	return n.Conn.Drain()
}

func (n *NatsClient) Publish(subject string, data []byte) error {
	return n.Conn.Publish(subject, data)
}

func (n *NatsClient) Request(subject string, data []byte, timeout time.Duration) (*nats.Msg, error) {
	return n.Conn.Request(subject, data, timeout)
}

func (n *NatsClient) Subscribe(subject string, handler func(*nats.Msg)) (*nats.Subscription, error) {
	return n.Conn.Subscribe(subject, handler)
}

func (n *NatsClient) QueueSubscribe(subject, queue string, handler func(*nats.Msg)) (*nats.Subscription, error) {
	return n.Conn.QueueSubscribe(subject, queue, handler)
}
