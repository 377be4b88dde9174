// Package grpc hosts the court's gRPC transport: request metadata, caller
// identity, interceptors and the court and token services.
package grpc
