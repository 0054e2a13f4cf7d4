// Package protocol defines the wire model for the agent backend's event
// stream: tagged frame variants, action/observation type tags, the agent
// lifecycle state enum, and security risk levels.
//
// # Frames
//
// Every inbound WebSocket frame is a single UTF-8 JSON object. Decode turns
// raw bytes into exactly one of four variants, discriminated in a fixed
// precedence order:
//
//  1. TokenFrame — carries a "token" field (credential rotation)
//  2. ActionFrame — carries an "action" field
//  3. StatusFrame — carries a "status_update" field
//  4. ObservationFrame — everything else
//
// The precedence is load-bearing: a frame is never double-handled, so the
// dispatcher can switch exhaustively over the returned variant.
package protocol
