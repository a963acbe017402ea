package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/convohq/messaging-service/internal/metrics"
	"github.com/convohq/messaging-service/internal/models"
	"github.com/convohq/messaging-service/internal/store"
	"github.com/convohq/messaging-service/pkg/apperr"
)

// EventSink receives domain events after a mutation commits. All methods
// are fire-and-forget.
type EventSink interface {
	ConversationCreated(ctx context.Context, c *models.Conversation)
	ConversationDeleted(ctx context.Context, conversationID string)
	MessageSent(ctx context.Context, m *models.Message)
}

// Service is the data-access layer over the record store. Multi-record
// writes run as sagas: on partial failure the completed steps are
// compensated best-effort, and steps left committed are reported through
// a PARTIAL_FAILURE error rather than silently orphaned.
type Service struct {
	store   store.Store
	events  EventSink // may be nil
	log     *zap.SugaredLogger
	timeout time.Duration
}

func NewService(st store.Store, events EventSink, log *zap.SugaredLogger, timeout time.Duration) *Service {
	return &Service{store: st, events: events, log: log, timeout: timeout}
}

// callCtx bounds a single store interaction. Every backend call runs
// under an explicit deadline; a hung backend fails the call instead of
// hanging the operation forever.
func (s *Service) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// CreateConversation creates a conversation and binds both users to it.
// If a participant insert fails, the records created so far are deleted
// again before the error is returned.
func (s *Service) CreateConversation(ctx context.Context, title, userID, otherUserID string) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.InvalidArg("title must not be empty")
	}
	if userID == "" || otherUserID == "" {
		return nil, apperr.InvalidArg("both user ids are required")
	}
	if userID == otherUserID {
		return nil, apperr.InvalidArg("participants must be distinct users")
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()
	conv, err := s.store.CreateConversation(cctx, &models.Conversation{Title: title})
	if err != nil {
		return nil, apperr.CreateFailed("failed to create conversation", err)
	}
	if conv == nil {
		return nil, apperr.CreateFailed("backend returned no conversation record", nil)
	}

	participants := make([]*models.Participant, 2)
	g, gctx := errgroup.WithContext(cctx)
	for i, uid := range []string{userID, otherUserID} {
		g.Go(func() error {
			p, err := s.store.CreateParticipant(gctx, &models.Participant{
				ConversationID: conv.ID,
				UserID:         uid,
			})
			if err != nil {
				return fmt.Errorf("participant for user %s: %w", uid, err)
			}
			if p == nil {
				return fmt.Errorf("participant for user %s: backend returned no record", uid)
			}
			participants[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.compensateCreate(conv, participants, err)
	}

	if s.events != nil {
		s.events.ConversationCreated(ctx, conv)
	}
	metrics.ConversationsCreated.Inc()
	return conv, nil
}

// compensateCreate undoes a half-finished conversation create. Runs on a
// fresh context: the group context that observed the failure is already
// canceled.
func (s *Service) compensateCreate(conv *models.Conversation, participants []*models.Participant, cause error) error {
	ctx, cancel := s.callCtx(context.Background())
	defer cancel()

	var committed []string
	for _, p := range participants {
		if p == nil {
			continue
		}
		if err := s.store.DeleteParticipant(ctx, p.ID); err != nil {
			s.log.Errorw("rollback participant", "participant_id", p.ID, "err", err)
			committed = append(committed, "participant:"+p.ID)
		}
	}
	if err := s.store.DeleteConversation(ctx, conv.ID); err != nil {
		s.log.Errorw("rollback conversation", "conversation_id", conv.ID, "err", err)
		committed = append(committed, "conversation:"+conv.ID)
	}
	if len(committed) > 0 {
		return apperr.PartialFailure("participant create failed and rollback left records behind", committed, cause)
	}
	return apperr.ParticipantCreateFailed("failed to add participants", cause)
}

// FetchMessages returns every message of the conversation in ascending
// creation order. The store's ordering is not trusted; the slice is
// re-sorted here.
func (s *Service) FetchMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	if conversationID == "" {
		return nil, apperr.InvalidArg("conversation id is required")
	}
	cctx, cancel := s.callCtx(ctx)
	defer cancel()
	msgs, err := s.store.ListMessagesByConversation(cctx, conversationID)
	if err != nil {
		return nil, apperr.Internal("failed to list messages", err)
	}
	sortMessages(msgs)
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return msgs, nil
}

func sortMessages(msgs []*models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

// FetchConversations lists the conversations the user belongs to, most
// recently updated first. Participant rows pointing at a conversation
// that no longer resolves are dropped.
func (s *Service) FetchConversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	if userID == "" {
		return nil, apperr.InvalidArg("user id is required")
	}
	cctx, cancel := s.callCtx(ctx)
	defer cancel()
	parts, err := s.store.ListParticipantsByUser(cctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to list participants", err)
	}

	resolved := make([]*models.Conversation, len(parts))
	var g errgroup.Group
	for i, p := range parts {
		g.Go(func() error {
			conv, err := s.store.GetConversation(cctx, p.ConversationID)
			if err != nil {
				// dangling reference or transient miss: drop, don't fail
				s.log.Warnw("conversation lookup failed", "conversation_id", p.ConversationID, "err", err)
				return nil
			}
			resolved[i] = conv
			return nil
		})
	}
	_ = g.Wait()

	convs := make([]*models.Conversation, 0, len(resolved))
	for _, c := range resolved {
		if c != nil {
			convs = append(convs, c)
		}
	}
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

// DeleteConversation removes the conversation and every message and
// participant referencing it. Children are deleted first; the parent row
// is only removed once no child remains, so a failure can never orphan
// children under a missing parent.
func (s *Service) DeleteConversation(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return apperr.InvalidArg("conversation id is required")
	}
	cctx, cancel := s.callCtx(ctx)
	defer cancel()
	graph, err := s.store.GetConversationGraph(cctx, conversationID)
	if err != nil {
		return apperr.Internal("failed to load conversation", err)
	}
	if graph == nil {
		return apperr.NotFound("conversation not found")
	}

	var deleted deletedSet
	g, gctx := errgroup.WithContext(cctx)
	for _, m := range graph.Messages {
		g.Go(func() error {
			if err := s.store.DeleteMessage(gctx, m.ID); err != nil {
				return fmt.Errorf("message %s: %w", m.ID, err)
			}
			deleted.add("message:" + m.ID)
			return nil
		})
	}
	for _, p := range graph.Participants {
		g.Go(func() error {
			if err := s.store.DeleteParticipant(gctx, p.ID); err != nil {
				return fmt.Errorf("participant %s: %w", p.ID, err)
			}
			deleted.add("participant:" + p.ID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return apperr.PartialFailure("child deletion failed, conversation retained", deleted.list(), err)
	}

	if err := s.store.DeleteConversation(cctx, conversationID); err != nil {
		return apperr.PartialFailure("children deleted but conversation remains", deleted.list(), err)
	}
	if s.events != nil {
		s.events.ConversationDeleted(ctx, conversationID)
	}
	metrics.ConversationsDeleted.Inc()
	return nil
}

// deletedSet records which child deletions committed; sibling deletions
// run concurrently.
type deletedSet struct {
	mu    sync.Mutex
	steps []string
}

func (d *deletedSet) add(step string) {
	d.mu.Lock()
	d.steps = append(d.steps, step)
	d.mu.Unlock()
}

func (d *deletedSet) list() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.steps...)
}

// SendMessage posts trimmed content into the conversation.
func (s *Service) SendMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if conversationID == "" || senderID == "" {
		return nil, apperr.InvalidArg("conversation id and sender id are required")
	}
	if content == "" {
		return nil, apperr.InvalidArg("message content must not be blank")
	}
	cctx, cancel := s.callCtx(ctx)
	defer cancel()
	msg, err := s.store.CreateMessage(cctx, &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	})
	if err != nil {
		return nil, apperr.CreateFailed("failed to create message", err)
	}
	if msg == nil {
		return nil, apperr.CreateFailed("backend returned no message record", nil)
	}
	if s.events != nil {
		s.events.MessageSent(ctx, msg)
	}
	metrics.MessagesSent.Inc()
	return msg, nil
}
