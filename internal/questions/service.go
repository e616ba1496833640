package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raisemyhand/backend/internal/models"
	"github.com/raisemyhand/backend/internal/realtime"
	"github.com/raisemyhand/backend/pkg/queue"
)

// maxQuestionLen bounds submitted question text.
const maxQuestionLen = 2000

// Broadcaster is the slice of the hub the service needs.
type Broadcaster interface {
	Publish(ev realtime.Event)
}

// AuditQueue receives moderation decisions for asynchronous audit
// persistence. May be nil; audit is best-effort and never blocks or
// fails a mutation.
type AuditQueue interface {
	EnqueueModerationAudit(ctx context.Context, payload queue.ModerationAuditPayload) error
}

// Classifier matches moderation.Classifier; declared here so the service
// can be wired with any verdict source.
type Classifier interface {
	Classify(ctx context.Context, text string) (bool, error)
}

// Service implements the question state machine and vote ledger on top
// of a Store, and hands committed changes to the hub.
type Service struct {
	store      Store
	sessions   SessionGetter
	classifier Classifier
	censor     func(string) string
	hub        Broadcaster
	audit      AuditQueue
	logger     *zap.Logger
	attempts   int
}

// NewService creates a question service. attempts bounds the optimistic
// sequence-number retry loop; values below 1 are clamped to 1.
func NewService(store Store, sessions SessionGetter, classifier Classifier, censor func(string) string,
	hub Broadcaster, audit AuditQueue, logger *zap.Logger, attempts int) *Service {
	if attempts < 1 {
		attempts = 1
	}
	return &Service{
		store:      store,
		sessions:   sessions,
		classifier: classifier,
		censor:     censor,
		hub:        hub,
		audit:      audit,
		logger:     logger,
		attempts:   attempts,
	}
}

// Create submits a question: classifies the text, assigns the next
// sequence number via bounded optimistic retry, and broadcasts the
// committed question. A classifier failure flags the question rather
// than approving unreviewed content.
func (s *Service) Create(ctx context.Context, sessionID uuid.UUID, voterToken, text string) (*models.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: question text is required", models.ErrValidation)
	}
	if len(text) > maxQuestionLen {
		return nil, fmt.Errorf("%w: question text exceeds %d characters", models.ErrValidation, maxQuestionLen)
	}

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State != models.SessionActive {
		return nil, models.ErrSessionClosed
	}

	status := models.StatusApproved
	flagged, err := s.classifier.Classify(ctx, text)
	if err != nil {
		s.logger.Warn("classifier unavailable, flagging question", zap.Error(err))
		flagged = true
	}
	if flagged {
		status = models.StatusFlagged
	}

	q := &models.Question{
		SessionID:  sessionID,
		VoterToken: voterToken,
		Text:       text,
		Status:     status,
	}
	if err := s.insertWithRetry(ctx, q); err != nil {
		return nil, err
	}

	s.hub.Publish(realtime.Event{
		Name:        realtime.EventQuestionCreated,
		SessionID:   sessionID,
		QuestionID:  q.ID,
		Status:      q.Status,
		Moderator:   s.moderatorView(q),
		Participant: s.participantView(q),
	})
	if flagged {
		s.enqueueAudit(ctx, q, "flagged")
	}
	return q, nil
}

// insertWithRetry assigns sequence numbers optimistically: read the
// current max, insert at max+1, and re-read on a uniqueness conflict.
// Exhausting the attempt budget surfaces ErrNumberingContention, which
// callers may retry with backoff.
func (s *Service) insertWithRetry(ctx context.Context, q *models.Question) error {
	for attempt := 0; attempt < s.attempts; attempt++ {
		max, err := s.store.MaxSequence(ctx, q.SessionID)
		if err != nil {
			return err
		}
		q.SequenceNumber = max + 1
		err = s.store.Insert(ctx, q)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrSequenceConflict) {
			return err
		}
	}
	s.logger.Warn("sequence numbering contention exhausted retries",
		zap.String("session_id", q.SessionID.String()),
		zap.Int("attempts", s.attempts),
	)
	return models.ErrNumberingContention
}

// Moderate applies a moderator action to a question. callerSession scopes
// the moderator's token: questions outside it read as not found.
func (s *Service) Moderate(ctx context.Context, id uuid.UUID, action models.ModerationAction, callerSession uuid.UUID) (*models.Question, error) {
	q, err := s.getScoped(ctx, id, callerSession)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(q.Status, action) {
		return nil, fmt.Errorf("%w: cannot %s a %s question", models.ErrInvalidTransition, action, q.Status)
	}

	switch action {
	case models.ActionDelete:
		if err := s.store.Delete(ctx, id); err != nil {
			return nil, err
		}
		// Status carries the pre-delete state so the removal reaches
		// exactly the roles that could see the question.
		s.hub.Publish(realtime.Event{
			Name:        realtime.EventQuestionDeleted,
			SessionID:   q.SessionID,
			QuestionID:  q.ID,
			Status:      q.Status,
			Moderator:   deletedPayload(q),
			Participant: deletedPayload(q),
		})
		s.enqueueAudit(ctx, q, string(action))
		return q, nil

	case models.ActionApprove:
		updated, err := s.store.SetStatus(ctx, id, models.StatusApproved)
		if err != nil {
			return nil, err
		}
		// Participants see the question for the first time here, so the
		// event carries the full (censored) body.
		s.hub.Publish(realtime.Event{
			Name:        realtime.EventQuestionUpdated,
			SessionID:   updated.SessionID,
			QuestionID:  updated.ID,
			Status:      updated.Status,
			Moderator:   s.moderatorView(updated),
			Participant: s.participantView(updated),
		})
		s.enqueueAudit(ctx, updated, string(action))
		return updated, nil

	case models.ActionReject:
		wasVisible := models.VisibleTo(models.RoleParticipant, q.Status)
		updated, err := s.store.SetStatus(ctx, id, models.StatusRejected)
		if err != nil {
			return nil, err
		}
		s.hub.Publish(realtime.Event{
			Name:       realtime.EventQuestionUpdated,
			SessionID:  updated.SessionID,
			QuestionID: updated.ID,
			Status:     updated.Status,
			Moderator:  s.moderatorView(updated),
		})
		if wasVisible {
			// Participants saw the question while approved; tell them to
			// drop it. Gated on the pre-reject status.
			s.hub.Publish(realtime.Event{
				Name:        realtime.EventQuestionDeleted,
				SessionID:   updated.SessionID,
				QuestionID:  updated.ID,
				Status:      q.Status,
				Participant: deletedPayload(updated),
			})
		}
		s.enqueueAudit(ctx, updated, string(action))
		return updated, nil

	case models.ActionUnflag:
		updated, err := s.store.SetStatus(ctx, id, models.StatusFlagged)
		if err != nil {
			return nil, err
		}
		s.hub.Publish(realtime.Event{
			Name:       realtime.EventQuestionUpdated,
			SessionID:  updated.SessionID,
			QuestionID: updated.ID,
			Status:     updated.Status,
			Moderator:  s.moderatorView(updated),
		})
		s.enqueueAudit(ctx, updated, string(action))
		return updated, nil
	}
	return nil, fmt.Errorf("%w: unknown action %q", models.ErrValidation, action)
}

// ToggleAnswered flips the answered-in-session flag.
func (s *Service) ToggleAnswered(ctx context.Context, id uuid.UUID, callerSession uuid.UUID) (*models.Question, error) {
	if _, err := s.getScoped(ctx, id, callerSession); err != nil {
		return nil, err
	}
	updated, err := s.store.ToggleAnswered(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishUpdated(updated)
	return updated, nil
}

// PublishAnswer stores a written answer and marks the question answered.
func (s *Service) PublishAnswer(ctx context.Context, id uuid.UUID, text string, callerSession uuid.UUID) (*models.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: answer text is required", models.ErrValidation)
	}
	if _, err := s.getScoped(ctx, id, callerSession); err != nil {
		return nil, err
	}
	updated, err := s.store.SetAnswer(ctx, id, text)
	if err != nil {
		return nil, err
	}
	s.publishUpdated(updated)
	return updated, nil
}

// CastVote toggles the caller's upvote on a question. The same voter
// token twice is a round trip back to the original count.
func (s *Service) CastVote(ctx context.Context, id uuid.UUID, voterToken string, callerSession uuid.UUID) (int, error) {
	q, err := s.getScoped(ctx, id, callerSession)
	if err != nil {
		return 0, err
	}
	sess, err := s.sessions.GetByID(ctx, q.SessionID)
	if err != nil {
		return 0, err
	}
	if sess.State != models.SessionActive {
		return 0, models.ErrSessionClosed
	}
	if !sess.VotingEnabled {
		return 0, models.ErrVotingClosed
	}

	votes, _, err := s.store.ToggleVote(ctx, id, voterToken)
	if err != nil {
		return 0, err
	}
	body := map[string]interface{}{"question_id": q.ID, "vote_count": votes}
	s.hub.Publish(realtime.Event{
		Name:        realtime.EventVoteUpdated,
		SessionID:   q.SessionID,
		QuestionID:  q.ID,
		Status:      q.Status,
		Moderator:   body,
		Participant: body,
	})
	return votes, nil
}

// List returns the session's questions visible to the role, censored for
// participants. This is the reconciliation read for reconnecting clients.
func (s *Service) List(ctx context.Context, sessionID uuid.UUID, role models.Role) ([]Payload, error) {
	all, err := s.store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	list := make([]Payload, 0, len(all))
	for i := range all {
		q := &all[i]
		if !models.VisibleTo(role, q.Status) {
			continue
		}
		if role == models.RoleModerator {
			list = append(list, s.moderatorView(q))
		} else {
			list = append(list, s.participantView(q))
		}
	}
	return list, nil
}

func (s *Service) getScoped(ctx context.Context, id, callerSession uuid.UUID) (*models.Question, error) {
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.SessionID != callerSession {
		return nil, models.ErrNotFound
	}
	return q, nil
}

func (s *Service) publishUpdated(q *models.Question) {
	s.hub.Publish(realtime.Event{
		Name:        realtime.EventQuestionUpdated,
		SessionID:   q.SessionID,
		QuestionID:  q.ID,
		Status:      q.Status,
		Moderator:   s.moderatorView(q),
		Participant: s.participantView(q),
	})
}

// moderatorView carries the raw submitted text.
func (s *Service) moderatorView(q *models.Question) Payload {
	return Payload{
		ID:             q.ID,
		SessionID:      q.SessionID,
		SequenceNumber: q.SequenceNumber,
		Text:           q.Text,
		Status:         q.Status,
		VoteCount:      q.VoteCount,
		IsAnswered:     q.IsAnswered,
		AnswerText:     q.AnswerText,
		CreatedAt:      q.CreatedAt,
	}
}

// participantView censors the text. Applied unconditionally: even
// approved questions reach participants with profane tokens masked.
func (s *Service) participantView(q *models.Question) Payload {
	p := s.moderatorView(q)
	p.Text = s.censor(q.Text)
	return p
}

func deletedPayload(q *models.Question) map[string]interface{} {
	return map[string]interface{}{"id": q.ID, "session_id": q.SessionID}
}

func (s *Service) enqueueAudit(ctx context.Context, q *models.Question, action string) {
	if s.audit == nil {
		return
	}
	err := s.audit.EnqueueModerationAudit(ctx, queue.ModerationAuditPayload{
		QuestionID: q.ID,
		SessionID:  q.SessionID,
		Action:     action,
		Status:     string(q.Status),
		DecidedAt:  time.Now(),
	})
	if err != nil {
		s.logger.Warn("enqueue moderation audit failed",
			zap.String("question_id", q.ID.String()), zap.Error(err))
	}
}
