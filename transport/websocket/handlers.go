package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-series/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-series/internal/entity"
)

func (that *Server) handleGet(ctx context.Context, conn *connection, msg *Message) error {
	view, err := that.series.GetOrCreate(ctx, conn.sessionID)
	return that.reply(conn, msg.Action, view, err)
}

func (that *Server) handleSetup(ctx context.Context, conn *connection, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		that.sendError(conn, msg.Action, "invalid payload")
		return err
	}

	var view entity.View

	switch {
	case payload.Players != nil && payload.BestOf != nil:
		view, err = that.series.Setup(ctx, conn.sessionID, entity.SeriesConfig{Players: *payload.Players, BestOf: *payload.BestOf})
	case payload.Players != nil:
		view, err = that.series.Configure(ctx, conn.sessionID, *payload.Players)
	case payload.BestOf != nil:
		view, err = that.series.SelectBestOf(ctx, conn.sessionID, *payload.BestOf)
	default:
		that.sendError(conn, msg.Action, "players or best_of is required")
		return nil
	}

	return that.reply(conn, msg.Action, view, err)
}

func (that *Server) handleStart(ctx context.Context, conn *connection, msg *Message) error {
	view, err := that.series.Start(ctx, conn.sessionID)
	return that.reply(conn, msg.Action, view, err)
}

func (that *Server) handleMove(ctx context.Context, conn *connection, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		that.sendError(conn, msg.Action, "invalid payload")
		return err
	}

	if payload.Cell == nil {
		that.sendError(conn, msg.Action, "cell is required")
		return nil
	}

	view, err := that.series.Play(ctx, conn.sessionID, *payload.Cell)
	return that.reply(conn, msg.Action, view, err)
}

func (that *Server) handleNext(ctx context.Context, conn *connection, msg *Message) error {
	view, err := that.series.NextRound(ctx, conn.sessionID)
	return that.reply(conn, msg.Action, view, err)
}

func (that *Server) handleAck(ctx context.Context, conn *connection, msg *Message) error {
	view, err := that.series.Acknowledge(ctx, conn.sessionID)
	return that.reply(conn, msg.Action, view, err)
}

func (that *Server) handleReset(ctx context.Context, conn *connection, msg *Message) error {
	view, err := that.series.Reset(ctx, conn.sessionID)
	return that.reply(conn, msg.Action, view, err)
}

// reply answers the sender with the snapshot after its action. Rejected
// setups are also sent as a notice.
func (that *Server) reply(conn *connection, action string, view entity.View, err error) error {
	switch {
	case err == nil:
		return that.sendMessage(conn, action, ResponsePayload{Series: &view})
	case errors.Is(err, apperror.ErrInvalidSetup):
		if sendErr := that.sendMessage(conn, actionNotice, ResponsePayload{Notice: view.Notice}); sendErr != nil {
			return sendErr
		}
		return that.sendMessage(conn, action, ResponsePayload{Series: &view})
	case errors.Is(err, entity.ErrInvalidCell):
		return that.sendMessage(conn, action, ResponsePayload{Series: &view, Error: err.Error()})
	default:
		that.sendError(conn, action, "internal error")
		return fmt.Errorf("failed to handle %s: %w", action, err)
	}
}

func decodePayload(msg *Message) (Payload, error) {
	var payload Payload
	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}
