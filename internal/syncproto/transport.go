package syncproto

import "context"

// RemotePeer is the transport callback the host supplies: a typed,
// in-process stand-in for "send(message_bytes) -> response_bytes" across
// the wire. A real host implementation marshals these to/from a network
// connection; the CLI's `sync` subcommand and this package's tests use
// remote.go's in-process Store pairing instead.
type RemotePeer interface {
	Hello(ctx context.Context, req HelloRequest) (HelloResponse, error)
	Nodes(ctx context.Context, req NodesRequest) (NodesResponse, error)
	Ack(ctx context.Context) (AckMessage, error)
}
