package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/llm"
	"saarthi-chat/internal/metrics"
	"saarthi-chat/internal/storage"
)

const persistTimeout = 10 * time.Second

var (
	ErrEmptyTurn         = fmt.Errorf("%w: message content or attachments required", domain.ErrValidation)
	ErrForeignAttachment = fmt.Errorf("%w: attachments must be uploaded by the same user", domain.ErrValidation)
	ErrThreadCreate      = fmt.Errorf("%w: could not create thread", domain.ErrProvider)
	// ErrEmptyCompletion: el modelo terminó sin texto, p. ej. al agotar los pasos de herramientas.
	ErrEmptyCompletion = fmt.Errorf("%w: model finished without an answer", domain.ErrProvider)
)

type TurnEventType string

const (
	TurnEventThread       TurnEventType = "thread"
	TurnEventUserMessage  TurnEventType = "user-message"
	TurnEventText         TurnEventType = "text"
	TurnEventReasoning    TurnEventType = "reasoning"
	TurnEventTool         TurnEventType = "tool"
	TurnEventFinish       TurnEventType = "finish"
	TurnEventPersistError TurnEventType = "persist-error"
	TurnEventError        TurnEventType = "error"
	TurnEventSuggestions  TurnEventType = "suggestions"
)

// TurnEvent es una notificación del turno hacia el cliente. Solo se llenan
// los campos que corresponden a Type.
type TurnEvent struct {
	Type        TurnEventType
	Thread      *domain.Thread
	Message     *domain.ThreadMessage
	Delta       string
	Tool        *domain.ToolInvocation
	Label       string
	Suggestions []string
	Error       string
}

type TurnInput struct {
	ThreadID      string
	Content       string
	Attachments   []domain.Attachment
	ModelID       string
	SearchEnabled bool
	Geo           GeoHints
}

// TurnResult es la vista en memoria del thread al terminar el turno. Incluye
// los mensajes aunque su escritura haya fallado.
type TurnResult struct {
	Thread      domain.Thread
	Assistant   *domain.ThreadMessage
	Failed      bool
	Suggestions []string
}

type profileHinter interface {
	Hints(ctx context.Context, ident domain.Identity) UserHints
}

// TurnService ejecuta la máquina de estados de un turno:
// IDLE -> SUBMITTING -> STREAMING -> SETTLING -> IDLE, con ERROR ante fallas
// del proveedor.
type TurnService struct {
	logger      *zap.Logger
	threads     *ThreadService
	completions *CompletionService
	suggestions *SuggestionService
	profiles    profileHinter
	tracker     *TurnTracker
	limiter     RateLimiter
	locker      TurnLocker
	metrics     *metrics.Chat
	now         func() time.Time
}

func NewTurnService(
	logger *zap.Logger,
	threads *ThreadService,
	completions *CompletionService,
	suggestions *SuggestionService,
	profiles profileHinter,
	tracker *TurnTracker,
	m *metrics.Chat,
) *TurnService {
	if tracker == nil {
		tracker = NewTurnTracker()
	}
	return &TurnService{
		logger:      logger,
		threads:     threads,
		completions: completions,
		suggestions: suggestions,
		profiles:    profiles,
		tracker:     tracker,
		metrics:     m,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithLimiter aplica un límite de turnos por usuario.
func (s *TurnService) WithLimiter(l RateLimiter) *TurnService {
	s.limiter = l
	return s
}

// WithLocker agrega un lock por thread compartido entre instancias.
func (s *TurnService) WithLocker(l TurnLocker) *TurnService {
	s.locker = l
	return s
}

func (s *TurnService) State(threadID string) TurnState {
	return s.tracker.State(threadID)
}

// Stop cancela el stream en vuelo del thread.
func (s *TurnService) Stop(ident domain.Identity, threadID string) error {
	return s.tracker.Stop(threadID, ident.UserID)
}

// Run procesa un turno completo. Los errores de admisión y de creación del
// thread se devuelven antes de emitir nada; una falla del proveedor se
// reporta como evento "error" y Run devuelve nil. Si el cliente corta o se
// pide stop, devuelve ErrTurnCanceled y no persiste la respuesta parcial.
func (s *TurnService) Run(ctx context.Context, ident domain.Identity, in TurnInput, emit func(TurnEvent) error) (TurnResult, error) {
	start := s.now()
	model, userMsg, err := s.admit(ident, in, start)
	if err != nil {
		return TurnResult{}, err
	}

	turnCtx, release, err := s.tracker.Begin(ctx, in.ThreadID, ident.UserID)
	if err != nil {
		s.metrics.TurnFinished(metrics.OutcomeRejected, 0)
		return TurnResult{}, err
	}
	defer release()
	if s.locker != nil {
		unlock, err := s.locker.Lock(turnCtx, in.ThreadID)
		if err != nil {
			s.metrics.TurnFinished(metrics.OutcomeRejected, 0)
			return TurnResult{}, err
		}
		defer unlock()
	}

	out := &turnSink{emit: emit}
	log := s.logger.With(zap.String("thread_id", in.ThreadID), zap.String("user_id", ident.UserID), zap.String("model", model.ID))

	thread, err := s.submit(turnCtx, ident, in.ThreadID, userMsg, out, log)
	if err != nil {
		s.tracker.set(in.ThreadID, TurnError)
		s.metrics.TurnFinished(metrics.OutcomeError, s.now().Sub(start))
		return TurnResult{}, err
	}

	s.tracker.set(in.ThreadID, TurnStreaming)
	hints := UserHints{}
	if s.profiles != nil {
		hints = s.profiles.Hints(turnCtx, ident)
	}
	req, err := s.completions.Prepare(CompletionRequest{
		ModelID:       model.ID,
		Messages:      threadHistory(thread.Messages),
		SearchEnabled: in.SearchEnabled,
		User:          hints,
		Geo:           in.Geo,
	})
	var result llm.Result
	if err == nil {
		result, err = s.completions.Stream(turnCtx, req, func(ev llm.Event) error {
			return out.send(TurnEventFromStream(ev))
		})
	}
	if err != nil {
		if turnCtx.Err() != nil || out.err != nil {
			log.Info("turn canceled")
			s.metrics.TurnFinished(metrics.OutcomeCanceled, s.now().Sub(start))
			return TurnResult{Thread: thread}, ErrTurnCanceled
		}
		return s.fail(turnCtx, in.ThreadID, model, thread, err, out, log, start), nil
	}
	if strings.TrimSpace(result.Text) == "" {
		log.Warn("completion produced no text", zap.Int("steps", result.Steps), zap.String("finish_reason", result.FinishReason))
		return s.fail(turnCtx, in.ThreadID, model, thread, ErrEmptyCompletion, out, log, start), nil
	}

	s.tracker.set(in.ThreadID, TurnSettling)
	assistant := domain.ThreadMessage{
		Message: domain.Message{
			ID:        uuid.NewString(),
			Role:      domain.RoleAssistant,
			Content:   result.Text,
			CreatedAt: s.now(),
		},
		Metadata: &domain.MessageMetadata{
			Model:          model.ID,
			TokenCount:     result.TokenCount,
			ProcessingTime: s.now().Sub(start).Milliseconds(),
		},
	}
	stored := s.persist(turnCtx, in.ThreadID, &thread, assistant, out, log)
	_ = out.send(TurnEvent{Type: TurnEventFinish, Message: &stored})

	res := TurnResult{Thread: thread, Assistant: &stored}
	if s.suggestions != nil && out.err == nil && turnCtx.Err() == nil {
		res.Suggestions = s.suggestions.Suggest(turnCtx, TurnsFromMessages(thread.Messages))
		_ = out.send(TurnEvent{Type: TurnEventSuggestions, Suggestions: res.Suggestions})
	}
	s.metrics.TurnFinished(metrics.OutcomeOK, s.now().Sub(start))
	return res, nil
}

func (s *TurnService) admit(ident domain.Identity, in TurnInput, now time.Time) (llm.Model, domain.ThreadMessage, error) {
	if err := domain.ValidateThreadID(in.ThreadID); err != nil {
		return llm.Model{}, domain.ThreadMessage{}, err
	}
	model, err := llm.ResolveModel(in.ModelID)
	if err != nil {
		return llm.Model{}, domain.ThreadMessage{}, err
	}
	msg := domain.ThreadMessage{Message: domain.Message{
		ID:          uuid.NewString(),
		Role:        domain.RoleUser,
		Content:     in.Content,
		Attachments: in.Attachments,
		CreatedAt:   now,
	}}
	if !msg.HasContent() {
		return llm.Model{}, domain.ThreadMessage{}, ErrEmptyTurn
	}
	for _, a := range in.Attachments {
		if objectPath, ok := storage.ObjectPathFromURL(a.URL); !ok || !storage.OwnedBy(objectPath, ident.UserID) {
			return llm.Model{}, domain.ThreadMessage{}, ErrForeignAttachment
		}
	}
	if s.limiter != nil && !s.limiter.Allow(ident.UserID) {
		s.metrics.TurnFinished(metrics.OutcomeRejected, 0)
		return llm.Model{}, domain.ThreadMessage{}, ErrRateLimited
	}
	return model, msg, nil
}

// submit crea el thread con el mensaje del usuario o lo agrega a uno existente.
func (s *TurnService) submit(ctx context.Context, ident domain.Identity, threadID string, msg domain.ThreadMessage, out *turnSink, log *zap.Logger) (domain.Thread, error) {
	thread, err := s.threads.Get(ctx, ident, threadID)
	if isMissing(err) {
		thread, err = s.threads.Create(ctx, ident, threadID, msg)
		if err != nil {
			log.Error("thread creation failed", zap.Error(err))
			return domain.Thread{}, fmt.Errorf("%w: %v", ErrThreadCreate, err)
		}
		first := thread.Messages[0]
		_ = out.send(TurnEvent{Type: TurnEventThread, Thread: &thread})
		_ = out.send(TurnEvent{Type: TurnEventUserMessage, Message: &first})
		return thread, nil
	}
	if err != nil {
		return domain.Thread{}, err
	}
	stored := s.persist(ctx, threadID, &thread, msg, out, log)
	_ = out.send(TurnEvent{Type: TurnEventUserMessage, Message: &stored})
	return thread, nil
}

// persist agrega msg al thread guardado y a la copia en memoria. Si la
// escritura falla se avisa con persist-error y la conversación sigue.
func (s *TurnService) persist(ctx context.Context, threadID string, thread *domain.Thread, msg domain.ThreadMessage, out *turnSink, log *zap.Logger) domain.ThreadMessage {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	stored, err := s.threads.Append(pctx, threadID, msg)
	if err != nil {
		log.Error("message persistence failed", zap.String("role", string(msg.Role)), zap.Error(err))
		stored = thread.Append(msg, s.now())
		_ = out.send(TurnEvent{Type: TurnEventPersistError, Message: &stored, Error: "Failed to save message"})
		return stored
	}
	thread.Messages = append(thread.Messages, stored)
	thread.Recompute()
	thread.UpdatedAt = stored.UpdatedAt
	return stored
}

// fail deja visible la falla como mensaje del asistente.
func (s *TurnService) fail(ctx context.Context, threadID string, model llm.Model, thread domain.Thread, cause error, out *turnSink, log *zap.Logger, start time.Time) TurnResult {
	s.tracker.set(threadID, TurnError)
	log.Error("completion failed", zap.Error(cause))

	notice := FailureNotice(cause)
	msg := domain.ThreadMessage{
		Message: domain.Message{
			ID:        uuid.NewString(),
			Role:      domain.RoleAssistant,
			Content:   notice,
			CreatedAt: s.now(),
		},
		Metadata: &domain.MessageMetadata{Model: model.ID},
	}
	stored := s.persist(ctx, threadID, &thread, msg, out, log)
	_ = out.send(TurnEvent{Type: TurnEventError, Message: &stored, Error: notice})
	s.metrics.TurnFinished(metrics.OutcomeError, s.now().Sub(start))
	return TurnResult{Thread: thread, Assistant: &stored, Failed: true}
}

// FailureNotice es el texto que ve el usuario cuando el modelo no responde.
func FailureNotice(err error) string {
	const prefix = "Sorry, I couldn't generate a response: "
	switch {
	case errors.Is(err, ErrEmptyCompletion):
		return prefix + "the model did not produce an answer. Please try again."
	case errors.Is(err, domain.ErrNetwork):
		return prefix + "the model provider could not be reached. Please try again."
	case errors.Is(err, domain.ErrValidation):
		return prefix + "the request was not accepted by the model."
	default:
		return prefix + "the model provider returned an error. Please try again."
	}
}

// TurnEventFromStream traduce un evento del proveedor a su evento de turno.
func TurnEventFromStream(ev llm.Event) TurnEvent {
	switch ev.Type {
	case llm.EventReasoning:
		return TurnEvent{Type: TurnEventReasoning, Delta: ev.Text}
	case llm.EventTool:
		te := TurnEvent{Type: TurnEventTool, Tool: ev.Tool}
		if ev.Tool != nil {
			te.Label = domain.ToolLabel(ev.Tool.Name, ev.Tool.State)
		}
		return te
	default:
		return TurnEvent{Type: TurnEventText, Delta: ev.Text}
	}
}

// turnSink recuerda el primer error de emit: a partir de ahí el cliente se
// considera desconectado.
type turnSink struct {
	emit func(TurnEvent) error
	err  error
}

func (t *turnSink) send(ev TurnEvent) error {
	if t.err != nil {
		return t.err
	}
	if t.emit == nil {
		return nil
	}
	if err := t.emit(ev); err != nil {
		t.err = err
		return err
	}
	return nil
}
