// Package rpcserver exposes the judger's pipeline over gRPC: a
// server-streamed Judge call that turns one request into a sequence of
// case-started and case-result frames, and a JudgerInfo call that
// reports the loaded languages, memory capacity and monitor accuracy.
//
// Authentication is an optional shared secret compared in constant
// time from request metadata (config.toml's `secret` field), applied
// by a unary and a streaming interceptor rather than mTLS: the judger
// is meant to sit behind a trusted backend, not to terminate client
// connections directly.
//
// Transport cancellation on the Judge stream reaches the pipeline
// through the stream's context, which the pipeline already treats as
// its cancellation signal for dropping a compiled runner mid-request.
package rpcserver
