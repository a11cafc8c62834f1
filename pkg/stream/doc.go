// ABOUTME: Websocket transport for live laser signals
// ABOUTME: Package docs for the stream server sink and client source
// Package stream carries an encoded laser signal over a websocket.
//
// A Server is an output sink: every sample written to it is broadcast to the
// connected clients as raw PCM chunks. A Client is an input source that
// decodes the chunks back into normalized samples.
//
// Protocol, all JSON messages wrapped as {"type": ..., "payload": ...}:
//
//	client -> server  client/hello   {client_id, name, version}
//	server -> client  server/hello   {server_id, name, version}
//	server -> client  stream/start   {stream_id, sample_rate, channels, bit_depth, mapping}
//	server -> client  binary chunks  [type:1][first sample index:8 BE][PCM LE]
//	server -> client  stream/end     {stream_id, samples}
//
// The server closes the connection normally after stream/end.
package stream
