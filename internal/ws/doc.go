// Package ws provides WebSocket handling for state-change streaming.
//
// Connected clients are read-only observers of the engine's state. The
// server pushes a payloadless notification whenever the backing store
// changes; clients then re-read the state they render. Signals are
// coalesced, so one notification may cover several writes.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - get_state: Request a full state push
//
// Message Types (Server → Client):
//   - hello: Connection accepted, carries the client id
//   - state_changed: The store changed, re-read state
//   - state: Full state, response to get_state
//   - pong: Keep-alive reply
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(eng, store, logger, metrics)
//	router.GET("/stream", handler.HandleConnection)
package ws
