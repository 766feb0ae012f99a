package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/room"
)

type matchRecorder interface {
	RecordMatch(ctx context.Context, match *entity.Match) error
}

type Handler struct {
	logger     *slog.Logger
	registry   *room.Registry
	dispatcher *room.Dispatcher
	recorder   matchRecorder

	handlers map[string]func(ctx context.Context, sess *Session, msg *Message) error
}

// NewHandler - recorder may be nil when match history is not kept.
func NewHandler(logger *slog.Logger, registry *room.Registry, dispatcher *room.Dispatcher, recorder matchRecorder) *Handler {
	handler := &Handler{
		logger:     logger.With("component", "session"),
		registry:   registry,
		dispatcher: dispatcher,
		recorder:   recorder,

		handlers: make(map[string]func(context.Context, *Session, *Message) error),
	}

	handler.handlers[TypeCreate] = handler.handleCreate
	handler.handlers[TypeJoin] = handler.handleJoin
	handler.handlers[TypeMove] = handler.handleMove
	handler.handlers[TypeReset] = handler.handleReset
	handler.handlers[TypeLeave] = handler.handleLeave

	return handler
}

// Connect - greets a freshly opened connection with its identity.
func (that *Handler) Connect(sess *Session) {
	that.logger.Debug("client connected", "client_id", sess.ID)
	that.unicast(sess, Response{Type: TypeConnected, ClientID: sess.ID})
}

// Handle - processes one inbound frame. Never fails the connection.
func (that *Handler) Handle(ctx context.Context, sess *Session, frame []byte) {
	log := that.logger.With("method", "Handle", "client_id", sess.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered from panic", "panic", r)
		}
	}()

	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil || msg.Type == "" {
		log.Debug("invalid message", "error", err)
		that.Reject(sess)
		return
	}

	handle, ok := that.handlers[msg.Type]
	if !ok {
		log.Debug("unknown message type", "type", msg.Type)
		that.unicast(sess, errorResponse(errUnknownType))
		return
	}

	if err := handle(ctx, sess, &msg); err != nil {
		log.Error("failed to handle message", "type", msg.Type, "error", err)
	}
}

// Reject - reports a frame that could not be parsed.
func (that *Handler) Reject(sess *Session) {
	that.unicast(sess, errorResponse(errInvalidFormat))
}

// Disconnect - implicit leave. Safe to call more than once.
func (that *Handler) Disconnect(ctx context.Context, sess *Session) {
	if !sess.closed.CompareAndSwap(false, true) {
		return
	}

	that.logger.Debug("client disconnected", "client_id", sess.ID)
	that.leave(ctx, sess)
}

func (that *Handler) handleCreate(_ context.Context, sess *Session, _ *Message) error {
	if that.currentRoom(sess) != nil {
		that.unicast(sess, errorResponse(errAlreadyInRoom))
		return nil
	}

	created, err := that.registry.CreateRoom()
	if err != nil {
		that.unicast(sess, errorResponse(errCreateFailed))
		return fmt.Errorf("failed to create room: %w", err)
	}

	publish := func(state entity.GameState, members []room.Member) {
		that.dispatcher.Deliver(members, stateResponse(TypeCreated, created.ID(), state))
	}

	if err = created.AddCreator(sess.ID, sess.Conn, publish); err != nil {
		that.registry.RemoveRoom(created.ID())
		that.unicast(sess, errorResponse(errCreateFailed))
		return fmt.Errorf("failed to add creator: %w", err)
	}

	sess.setRoomID(created.ID())

	that.logger.Info("room created", "room_id", created.ID(), "client_id", sess.ID)

	return nil
}

func (that *Handler) handleJoin(_ context.Context, sess *Session, msg *Message) error {
	if that.currentRoom(sess) != nil {
		that.unicast(sess, errorResponse(errAlreadyInRoom))
		return nil
	}

	roomID := strings.ToUpper(strings.TrimSpace(msg.RoomID))

	target, err := that.registry.GetRoom(roomID)
	if err != nil {
		that.unicast(sess, errorResponse(errRoomNotFound))
		return nil
	}

	publish := func(state entity.GameState, members []room.Member) {
		that.dispatcher.Deliver(members, stateResponse(TypeJoined, target.ID(), state))
	}

	err = target.AddJoiner(sess.ID, sess.Conn, publish)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrRoomFull):
		that.unicast(sess, errorResponse(errRoomFull))
		return nil
	case errors.Is(err, apperror.ErrRoomNotFound):
		that.unicast(sess, errorResponse(errRoomNotFound))
		return nil
	case errors.Is(err, apperror.ErrAlreadyInRoom):
		that.unicast(sess, errorResponse(errAlreadyInRoom))
		return nil
	default:
		return fmt.Errorf("failed to join room: %w", err)
	}

	sess.setRoomID(target.ID())

	that.logger.Info("room joined", "room_id", target.ID(), "client_id", sess.ID)

	return nil
}

func (that *Handler) handleMove(ctx context.Context, sess *Session, msg *Message) error {
	log := that.logger.With("method", "handleMove", "client_id", sess.ID)

	if msg.Index == nil {
		return nil
	}

	current := that.currentRoom(sess)
	if current == nil {
		return nil
	}

	var finished *entity.GameState
	publish := func(state entity.GameState, members []room.Member) {
		that.dispatcher.Deliver(members, stateResponse(TypeState, "", state))
		if state.IsFinished() {
			finished = &state
		}
	}

	if err := current.ApplyMove(sess.ID, *msg.Index, publish); err != nil {
		log.Debug("move rejected", "room_id", current.ID(), "index", *msg.Index, "error", err)
		return nil
	}

	if finished != nil {
		that.recordMatch(ctx, current.ID(), *finished)
	}

	return nil
}

func (that *Handler) handleReset(_ context.Context, sess *Session, _ *Message) error {
	current := that.currentRoom(sess)
	if current == nil {
		return nil
	}

	publish := func(state entity.GameState, members []room.Member) {
		that.dispatcher.Deliver(members, stateResponse(TypeState, "", state))
	}

	if err := current.Reset(sess.ID, publish); err != nil {
		that.logger.Debug("reset ignored", "room_id", current.ID(), "client_id", sess.ID, "error", err)
	}

	return nil
}

func (that *Handler) handleLeave(ctx context.Context, sess *Session, _ *Message) error {
	that.leave(ctx, sess)
	return nil
}

// leave - destroys the session's room and tells the opponent.
func (that *Handler) leave(_ context.Context, sess *Session) {
	roomID := sess.takeRoomID()
	if roomID == "" {
		return
	}

	current, err := that.registry.GetRoom(roomID)
	if err != nil {
		return
	}

	// the code may already belong to a newer room
	remaining, err := current.RemoveMember(sess.ID)
	if err != nil {
		return
	}

	that.registry.RemoveRoom(roomID)

	that.dispatcher.Deliver(remaining, Response{Type: TypeLeft, ClientID: sess.ID})

	that.logger.Info("room closed", "room_id", roomID, "client_id", sess.ID)
}

// currentRoom - the live room the session belongs to. Drops stale references.
func (that *Handler) currentRoom(sess *Session) *room.Room {
	roomID := sess.RoomID()
	if roomID == "" {
		return nil
	}

	current, err := that.registry.GetRoom(roomID)
	if err != nil || !current.IsMember(sess.ID) {
		sess.setRoomID("")
		return nil
	}

	return current
}

func (that *Handler) recordMatch(ctx context.Context, roomID string, state entity.GameState) {
	if that.recorder == nil {
		return
	}

	if err := that.recorder.RecordMatch(ctx, entity.NewMatch(roomID, state, time.Now())); err != nil {
		that.logger.Error("failed to record match", "room_id", roomID, "error", err)
	}
}

func (that *Handler) unicast(sess *Session, msg Response) {
	that.dispatcher.Deliver([]room.Member{sess.member()}, msg)
}
