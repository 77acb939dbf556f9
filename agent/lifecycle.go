package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/voxflow/voxflow/llm"
	"github.com/voxflow/voxflow/types"
)

// RoomSession is the transport the agent lives inside for one conversation.
// Turns returns a stable channel of history snapshots; the agent fetches it
// once and ranges over it until the channel closes or the context ends.
type RoomSession interface {
	// Connect establishes the transport.
	Connect(ctx context.Context) error

	// Turns delivers one history snapshot per conversation turn. The
	// channel closes when the remote side disconnects.
	Turns(ctx context.Context) <-chan []types.Message

	// Send delivers one response chunk to the remote side.
	Send(ctx context.Context, chunk llm.StreamChunk) error

	// Disconnect tears down the transport.
	Disconnect() error
}

// Run drives the full lifecycle of one conversation: connect, answer each
// turn as it arrives, and disconnect when the turn channel closes or the
// context is cancelled.
func (a *VoiceAgent) Run(ctx context.Context, room RoomSession) error {
	if err := room.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := room.Disconnect(); err != nil {
			a.logger.Warn("disconnect failed", zap.Error(err))
		}
	}()

	turns := room.Turns(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case history, ok := <-turns:
			if !ok {
				a.logger.Info("conversation ended")
				return nil
			}
			if err := a.answer(ctx, room, history); err != nil {
				return err
			}
		}
	}
}

// answer streams one turn's response back into the room.
func (a *VoiceAgent) answer(ctx context.Context, room RoomSession, history []types.Message) error {
	stream := a.Respond(ctx, history)
	defer stream.Close()

	for chunk := range stream.Chunks() {
		if err := room.Send(ctx, chunk); err != nil {
			a.logger.Warn("failed to send chunk", zap.Error(err))
			return err
		}
	}
	return nil
}
