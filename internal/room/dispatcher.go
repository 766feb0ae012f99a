package room

import (
	"encoding/json"
	"log/slog"
)

type Dispatcher struct {
	logger   *slog.Logger
	registry *Registry
}

func NewDispatcher(logger *slog.Logger, registry *Registry) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With("component", "dispatcher"),
		registry: registry,
	}
}

// Broadcast - looks the room up and sends msg to its current writable members.
// Room state changes do not go through here: they use Deliver from the room's Publish callback.
func (that *Dispatcher) Broadcast(roomID string, msg any) int {
	room, err := that.registry.GetRoom(roomID)
	if err != nil {
		that.logger.Debug("broadcast to missing room", "room_id", roomID)
		return 0
	}

	return that.Deliver(room.Members(), msg)
}

// Deliver - marshals msg once and enqueues it for each writable member.
// Send failures are dropped; the closing connection cleans up after itself.
func (that *Dispatcher) Deliver(members []Member, msg any) int {
	log := that.logger.With("method", "Deliver")

	if len(members) == 0 {
		return 0
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal message", "error", err)
		return 0
	}

	sent := 0
	for _, member := range members {
		if member.Conn == nil || !member.Conn.Writable() {
			continue
		}

		if err = member.Conn.Send(payload); err != nil {
			log.Debug("dropped message", "client_id", member.ID, "error", err)
			continue
		}

		sent++
	}

	return sent
}
