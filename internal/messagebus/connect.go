package messagebus

import (
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const embeddedStartTimeout = 5 * time.Second

// Connect dials url. With an empty url an in-process server is started and the
// returned close func shuts it down together with the connection.
func Connect(url, name string, log *slog.Logger) (*nats.Conn, func(), error) {
	if log == nil {
		log = slog.Default()
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	}

	if url != "" {
		nc, err := nats.Connect(url, opts...)
		if err != nil {
			return nil, nil, errors.Join(err, errors.New("failed to connect to NATS"))
		}
		log.Info("Connected to NATS", slog.String("url", url))
		return nc, nc.Close, nil
	}

	ns, err := server.NewServer(&server.Options{DontListen: true, NoSigs: true})
	if err != nil {
		return nil, nil, errors.Join(err, errors.New("failed to create embedded NATS server"))
	}
	ns.Start()
	if !ns.ReadyForConnections(embeddedStartTimeout) {
		ns.Shutdown()
		return nil, nil, errors.New("embedded NATS server did not become ready")
	}

	nc, err := nats.Connect("", append(opts, nats.InProcessServer(ns))...)
	if err != nil {
		ns.Shutdown()
		return nil, nil, errors.Join(err, errors.New("failed to connect to embedded NATS server"))
	}

	log.Info("Started embedded NATS server")
	return nc, func() {
		nc.Close()
		ns.Shutdown()
	}, nil
}
