package event

import (
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"github.com/pusher/pusher-http-go/v5"
	"golang.org/x/exp/slog"
)

const (
	SessionChannel = "session-channel"
	RaffleChannel  = "raffle-channel"

	SessionStartedEvent = "session-started"
	SeedRevealedEvent   = "seed-revealed"
	WinnersDrawnEvent   = "winners-drawn"
	RootPublishedEvent  = "root-published"
)

type PusherEvent struct {
	log    *slog.Logger
	pusher *pusher.Client
}

func NewPusherEvent(log *slog.Logger, pusherClient *pusher.Client) *PusherEvent {
	return &PusherEvent{
		log:    log,
		pusher: pusherClient,
	}
}

func (p *PusherEvent) TriggerEvent(channel string, eventName string, data map[string]interface{}) error {
	if err := p.pusher.Trigger(channel, eventName, data); err != nil {
		p.log.Error("failed to trigger pusher event",
			sl.String("channel", channel),
			sl.String("event", eventName),
			sl.Err(err))

		return err
	}

	return nil
}
