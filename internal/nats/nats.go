package nats

import (
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

const defaultUrl = nats.DefaultURL

type Nats struct {
	Url   string
	Token string
	Conn  *nats.Conn
}

// Connect dials the NATS server named by NATS_URL. Round updates and
// settlement signals ride this connection, so it reconnects forever
// rather than giving up.
func Connect() (*Nats, error) {
	n := &Nats{
		Url:   os.Getenv("NATS_URL"),
		Token: os.Getenv("NATS_TOKEN"),
	}

	if n.Url == "" {
		n.Url = defaultUrl
	}

	opts := []nats.Option{
		nats.Name("myteer backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}

	if n.Token != "" {
		opts = append(opts, nats.Token(n.Token))
	}

	conn, err := nats.Connect(n.Url, opts...)
	if err != nil {
		return nil, err
	}

	n.Conn = conn

	return n, nil
}
