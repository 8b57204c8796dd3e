package service

import (
	"context"
	"errors"
	"sync"
)

// TurnState es el estado de la máquina de turnos de un thread.
type TurnState string

const (
	TurnIdle       TurnState = "IDLE"
	TurnSubmitting TurnState = "SUBMITTING"
	TurnStreaming  TurnState = "STREAMING"
	TurnSettling   TurnState = "SETTLING"
	TurnError      TurnState = "ERROR"
)

var (
	ErrTurnInProgress = errors.New("turn already in progress")
	ErrTurnCanceled   = errors.New("turn canceled")
	ErrNoActiveTurn   = errors.New("no active turn")
)

type activeTurn struct {
	ownerID string
	state   TurnState
	cancel  context.CancelFunc
}

// TurnTracker admite un solo turno en vuelo por thread dentro del proceso y
// guarda su cancel para el endpoint de stop.
type TurnTracker struct {
	mu    sync.Mutex
	turns map[string]*activeTurn
}

func NewTurnTracker() *TurnTracker {
	return &TurnTracker{turns: make(map[string]*activeTurn)}
}

// Begin registra el turno en SUBMITTING. El contexto devuelto se cancela con
// Stop o con release; release debe llamarse siempre.
func (t *TurnTracker) Begin(ctx context.Context, threadID, ownerID string) (context.Context, func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.turns[threadID]; busy {
		return nil, nil, ErrTurnInProgress
	}
	turnCtx, cancel := context.WithCancel(ctx)
	turn := &activeTurn{ownerID: ownerID, state: TurnSubmitting, cancel: cancel}
	t.turns[threadID] = turn
	release := func() {
		cancel()
		t.mu.Lock()
		if t.turns[threadID] == turn {
			delete(t.turns, threadID)
		}
		t.mu.Unlock()
	}
	return turnCtx, release, nil
}

func (t *TurnTracker) set(threadID string, state TurnState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if turn, ok := t.turns[threadID]; ok {
		turn.state = state
	}
}

// State devuelve el estado actual; IDLE si no hay turno en vuelo.
func (t *TurnTracker) State(threadID string) TurnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if turn, ok := t.turns[threadID]; ok {
		return turn.state
	}
	return TurnIdle
}

// Stop cancela el turno en vuelo del thread si pertenece a ownerID.
func (t *TurnTracker) Stop(threadID, ownerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	turn, ok := t.turns[threadID]
	if !ok {
		return ErrNoActiveTurn
	}
	if turn.ownerID != ownerID {
		return ErrThreadForbidden
	}
	turn.cancel()
	return nil
}
