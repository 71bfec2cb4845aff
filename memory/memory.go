package memory

import (
	"log/slog"

	"github.com/next-trace/scg-banking-services/adapters/inmemory"
	"github.com/next-trace/scg-banking-services/contract/broker"
)

// New constructs a broker backed by the in-memory adapter and returns it as a
// contract broker.Broker along with a cleanup function that closes it.
// Handy for tests and local wiring where no AMQP server is available.
func New(logger *slog.Logger) (broker.Broker, func()) { //nolint:ireturn
	b := inmemory.New(logger)
	cleanup := func() { _ = b.Close() }

	return b, cleanup
}
