package requests

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/staffbot/internal/boards"
)

// Outcome names what an event handler did with an event.
type Outcome string

const (
	OutcomeUnconfigured    Outcome = "unconfigured"
	OutcomeLookupFailed    Outcome = "lookup_failed"
	OutcomeNoticeRemoved   Outcome = "notice_removed"
	OutcomeMarked          Outcome = "marked"
	OutcomeIrrelevantEmoji Outcome = "irrelevant_emoji"
	OutcomeNoIdentity      Outcome = "no_identity"
	OutcomeOwnReaction     Outcome = "own_reaction"
	OutcomeMessageGone     Outcome = "message_gone"
	OutcomeNotPermitted    Outcome = "not_permitted"
	OutcomeResolved        Outcome = "resolved"
)

// BoardLookup finds the board configured for a request channel.
type BoardLookup interface {
	Get(ctx context.Context, requestsChannelID string) (*boards.ChannelPair, error)
}

// Engine turns message and reaction events on request boards into marker
// placement and archiving. It holds no per-request state: the message on the
// platform is the only record of an open request, and every event reads the
// board configuration afresh.
type Engine struct {
	boards  BoardLookup
	gateway Gateway
}

func NewEngine(lookup BoardLookup, gateway Gateway) *Engine {
	return &Engine{boards: lookup, gateway: gateway}
}

// HandleNewMessage opens a request by attaching the approve and reject
// markers, or removes the platform's thread-created notice.
func (e *Engine) HandleNewMessage(ctx context.Context, ev NewMessage) Outcome {
	logger := zerolog.Ctx(ctx)

	if _, outcome := e.board(ctx, ev.ChannelID); outcome != "" {
		return outcome
	}

	if ev.ThreadCreated {
		if err := e.gateway.DeleteMessage(ctx, ev.ChannelID, ev.MessageID); err != nil {
			logger.Warn().Err(err).Msg("Failed to delete thread notice")
		}
		return OutcomeNoticeRemoved
	}

	for _, marker := range Markers {
		if err := e.gateway.AttachMarker(ctx, ev.ChannelID, ev.MessageID, marker); err != nil {
			// the message is usually gone already; nothing left to track
			logger.Debug().Err(err).Str("marker", string(marker)).Msg("Failed to attach marker")
		}
	}
	logger.Debug().Msg("Request opened")
	return OutcomeMarked
}

// HandleResolutionReaction closes a request when an approve or reject
// marker is used by its author or a manager: the thread is archived, an
// archive record is posted and the request message is deleted. Each side
// effect is best-effort and later steps run regardless of earlier failures.
func (e *Engine) HandleResolutionReaction(ctx context.Context, ev ResolutionReaction) Outcome {
	logger := zerolog.Ctx(ctx)

	marker, ok := MarkerFromEmoji(ev.Emoji)
	if !ok {
		return OutcomeIrrelevantEmoji
	}

	self, err := e.gateway.CurrentUserID(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to resolve current user")
		return OutcomeNoIdentity
	}
	if ev.ActorID == self {
		return OutcomeOwnReaction
	}

	pair, outcome := e.board(ctx, ev.ChannelID)
	if outcome != "" {
		return outcome
	}

	msg, err := e.gateway.FetchMessage(ctx, ev.ChannelID, ev.MessageID)
	if err != nil {
		// already resolved by a concurrent or earlier reaction
		logger.Debug().Err(err).Msg("Request message unavailable")
		return OutcomeMessageGone
	}

	if !CanResolve(ev.ActorID, ev.ActorRoleIDs, msg.Author.ID, pair.ManagerRoleID) {
		logger.Debug().Str("actor_id", ev.ActorID).Msg("Actor may not resolve request")
		return OutcomeNotPermitted
	}

	if msg.HasThread() {
		if err := e.gateway.ArchiveThread(ctx, msg.ThreadID); err != nil {
			logger.Warn().Err(err).Str("thread_id", msg.ThreadID).Msg("Failed to archive thread")
		}
	}

	record := Compose(msg, marker, UserMention(ev.ActorID))
	if err := e.gateway.PostRecord(ctx, pair.ArchiveChannelID, record); err != nil {
		logger.Warn().Err(err).Str("archive_channel", pair.ArchiveChannelID).Msg("Failed to post archive record")
	}

	if err := e.gateway.DeleteMessage(ctx, ev.ChannelID, ev.MessageID); err != nil {
		logger.Warn().Err(err).Msg("Failed to delete resolved request")
	}

	logger.Info().
		Str("actor_id", ev.ActorID).
		Str("resolution", record.Title).
		Msg("Request resolved")
	return OutcomeResolved
}

// board returns the board for channelID, or the outcome to stop with.
func (e *Engine) board(ctx context.Context, channelID string) (*boards.ChannelPair, Outcome) {
	pair, err := e.boards.Get(ctx, channelID)
	if err != nil {
		if errors.Is(err, boards.ErrNotFound) {
			return nil, OutcomeUnconfigured
		}
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to look up request board")
		return nil, OutcomeLookupFailed
	}
	return pair, ""
}
