// Package turn orchestrates one chat turn: policy evaluation, upstream
// streaming, persistence and enrichment dispatch.
package turn

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/promptgate/promptgate/pkg/app/orgcontext"
	"github.com/promptgate/promptgate/pkg/domain/chat"
	"github.com/promptgate/promptgate/pkg/domain/connection"
	domain "github.com/promptgate/promptgate/pkg/domain/errors"
	"github.com/promptgate/promptgate/pkg/domain/rule"
	"github.com/promptgate/promptgate/pkg/infra/metrics"
	"github.com/promptgate/promptgate/pkg/infra/streaming"
	"github.com/promptgate/promptgate/pkg/infra/tasks"
	"github.com/promptgate/promptgate/pkg/policy"
	"github.com/promptgate/promptgate/pkg/proxy"
)

const (
	outcomeBlocked   = "blocked"
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeCancelled = "cancelled"

	eventMessageBlocked = "message_blocked"
	eventMessageSent    = "message_sent"

	publishTimeout = 5 * time.Second
)

// Request is one inbound chat turn.
type Request struct {
	Schema    string
	UserID    uuid.UUID
	SessionID uuid.UUID // zero value starts a new session
	Provider  string
	Message   string
}

// Event is one unit of the turn's outbound stream. Err and Done are
// terminal; Blocked turns carry no Done event.
type Event struct {
	Chunk     string
	Blocked   bool
	Reason    string
	Err       error
	Done      bool
	SessionID uuid.UUID
}

//go:generate mockery --name=Orchestrator --dir=. --output=./mocks --filename=orchestrator_mock.go --case=underscore --with-expecter

type Orchestrator interface {
	// CompleteTurn validates the request and runs the turn. Validation
	// failures (unknown provider, foreign session) return an error;
	// everything after that arrives on the event channel.
	CompleteTurn(ctx context.Context, req Request) (<-chan Event, error)
}

type orchestrator struct {
	rules      rule.Repository
	chats      chat.Repository
	evaluator  policy.Evaluator
	proxy      proxy.Proxy
	orgContext orgcontext.Provider
	publisher  tasks.Publisher
	logger     *logrus.Logger
}

func NewOrchestrator(
	rules rule.Repository,
	chats chat.Repository,
	evaluator policy.Evaluator,
	proxy proxy.Proxy,
	orgContext orgcontext.Provider,
	publisher tasks.Publisher,
	logger *logrus.Logger,
) Orchestrator {
	return &orchestrator{
		rules:      rules,
		chats:      chats,
		evaluator:  evaluator,
		proxy:      proxy,
		orgContext: orgContext,
		publisher:  publisher,
		logger:     logger,
	}
}

func (o *orchestrator) CompleteTurn(ctx context.Context, req Request) (<-chan Event, error) {
	if !connection.IsSupported(req.Provider) {
		return nil, domain.NewUnsupportedProviderError(req.Provider)
	}

	session, err := o.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(chan Event)
	go o.run(ctx, req, session, out)
	return out, nil
}

func (o *orchestrator) resolveSession(ctx context.Context, req Request) (*chat.Session, error) {
	if req.SessionID != uuid.Nil {
		return o.chats.GetSession(ctx, req.Schema, req.SessionID, req.UserID)
	}

	session := chat.NewSession(req.UserID, req.Provider)
	if err := o.chats.SaveSession(ctx, req.Schema, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (o *orchestrator) run(ctx context.Context, req Request, session *chat.Session, out chan<- Event) {
	defer close(out)

	log := o.logger.WithFields(logrus.Fields{
		"schema":     req.Schema,
		"session_id": session.ID,
		"provider":   req.Provider,
	})

	rules, err := o.rules.Active(ctx, req.Schema)
	if err != nil {
		log.WithError(err).Error("failed to load filtering rules")
		o.fail(ctx, out, err)
		return
	}

	verdict := o.evaluator.Evaluate(ctx, req.Message, rules)

	if verdict.IsBlock() {
		o.blockTurn(ctx, req, session, verdict, out, log)
		return
	}

	contentToSend := req.Message
	if verdict.IsModify() {
		contentToSend = verdict.ModifiedContent
	}

	// The stored message keeps the original content; only the upstream
	// copy is modified.
	userMessage := chat.NewMessage(session.ID, chat.RoleUser, req.Message, req.Provider)
	if err := o.chats.SaveMessage(ctx, req.Schema, userMessage); err != nil {
		log.WithError(err).Error("failed to persist user message")
		o.fail(ctx, out, err)
		return
	}

	history, err := o.chats.History(ctx, req.Schema, session.ID)
	if err != nil {
		log.WithError(err).Error("failed to load history")
		o.fail(ctx, out, err)
		return
	}
	messages := toWireMessages(history)
	if len(messages) > 0 {
		messages[len(messages)-1].Content = contentToSend
	}

	oc := o.orgContext.Context(ctx, req.Schema, req.UserID)

	stream, err := o.proxy.Open(ctx, req.Schema, req.Provider, messages, oc.SystemPrompt)
	if err != nil {
		log.WithError(err).Error("failed to open upstream stream")
		o.fail(ctx, out, err)
		return
	}

	var assistant []byte
	for chunk := range stream {
		if chunk.Err != nil {
			log.WithError(chunk.Err).Error("upstream stream failed")
			o.fail(ctx, out, chunk.Err)
			return
		}
		assistant = append(assistant, chunk.Text...)
		select {
		case <-ctx.Done():
			metrics.TurnsTotal.WithLabelValues(outcomeCancelled).Inc()
			return
		case out <- Event{Chunk: chunk.Text}:
		}
	}

	select {
	case <-ctx.Done():
		metrics.TurnsTotal.WithLabelValues(outcomeCancelled).Inc()
		return
	default:
	}

	assistantMessage := chat.NewMessage(session.ID, chat.RoleAssistant, string(assistant), req.Provider)
	if err := o.chats.SaveMessage(ctx, req.Schema, assistantMessage); err != nil {
		log.WithError(err).Error("failed to persist assistant message")
	}
	if err := o.chats.TouchSession(ctx, req.Schema, session.ID); err != nil {
		log.WithError(err).Warn("failed to touch session")
	}

	metrics.TurnsTotal.WithLabelValues(outcomeCompleted).Inc()
	select {
	case <-ctx.Done():
		return
	case out <- Event{Done: true, SessionID: session.ID}:
	}

	o.enrich(req, session, oc, log)
}

func (o *orchestrator) blockTurn(
	ctx context.Context,
	req Request,
	session *chat.Session,
	verdict policy.Verdict,
	out chan<- Event,
	log *logrus.Entry,
) {
	blocked := chat.NewBlockedMessage(session.ID, req.Message, req.Provider, verdict.Reason)
	if err := o.chats.SaveMessage(ctx, req.Schema, blocked); err != nil {
		log.WithError(err).Error("failed to persist blocked message")
	}

	o.publish(tasks.Job{
		Type:   tasks.JobProcessAnalytics,
		Schema: req.Schema,
		Payload: map[string]interface{}{
			"event_type": eventMessageBlocked,
			"user_id":    req.UserID.String(),
			"session_id": session.ID.String(),
			"metadata":   map[string]interface{}{"reason": verdict.Reason},
		},
	}, log)

	metrics.TurnsTotal.WithLabelValues(outcomeBlocked).Inc()
	select {
	case <-ctx.Done():
	case out <- Event{Blocked: true, Reason: verdict.Reason, SessionID: session.ID}:
	}
}

// enrich queues the post-turn jobs. The turn already finished; failures
// here are logged and dropped.
func (o *orchestrator) enrich(req Request, session *chat.Session, oc orgcontext.Context, log *logrus.Entry) {
	o.publish(tasks.Job{
		Type:   tasks.JobProcessAnalytics,
		Schema: req.Schema,
		Payload: map[string]interface{}{
			"event_type": eventMessageSent,
			"user_id":    req.UserID.String(),
			"session_id": session.ID.String(),
			"metadata":   map[string]interface{}{"provider": req.Provider},
		},
	}, log)

	o.publish(tasks.Job{
		Type:   tasks.JobGenerateSuggestions,
		Schema: req.Schema,
		Payload: map[string]interface{}{
			"session_id":  session.ID.String(),
			"user_id":     req.UserID.String(),
			"vertical":    oc.Vertical,
			"doc_context": oc.DocContext,
		},
	}, log)

	o.publish(tasks.Job{
		Type:   tasks.JobGenerateSessionTitle,
		Schema: req.Schema,
		Payload: map[string]interface{}{
			"session_id": session.ID.String(),
		},
	}, log)
}

func (o *orchestrator) publish(job tasks.Job, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := o.publisher.Publish(ctx, job); err != nil {
		log.WithError(err).WithField("job_type", job.Type).Error("failed to publish job")
	}
}

func (o *orchestrator) fail(ctx context.Context, out chan<- Event, err error) {
	metrics.TurnsTotal.WithLabelValues(outcomeFailed).Inc()
	select {
	case <-ctx.Done():
	case out <- Event{Err: err}:
	}
}

func toWireMessages(history []chat.Message) []streaming.Message {
	messages := make([]streaming.Message, len(history))
	for i, m := range history {
		messages[i] = streaming.Message{Role: m.Role, Content: m.Content}
	}
	return messages
}
