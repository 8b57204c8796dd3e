package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TurnLocker serializa turnos del mismo thread entre instancias.
type TurnLocker interface {
	Lock(ctx context.Context, threadID string) (unlock func(), err error)
}

// Borra la clave solo si sigue siendo nuestra.
const redisUnlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Extiende el TTL solo si la clave sigue siendo nuestra.
const redisExtendScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`

type redisLocker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisTurnLocker struct {
	client redisLocker
	ttl    time.Duration
	// renewEvery es el intervalo de renovación; cero usa ttl/3.
	renewEvery time.Duration
	prefix     string
	logger     *zap.Logger
}

// NewRedisTurnLocker usa SET NX PX y renueva el TTL mientras el turno sigue en
// curso. ttl acota cuánto sobrevive un lock si la instancia muere a mitad de turno.
func NewRedisTurnLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) TurnLocker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &redisTurnLocker{client: client, ttl: ttl, prefix: "chat:turn:", logger: logger}
}

// Lock falla abierto si Redis no responde: el tracker en proceso sigue protegiendo
// la instancia local.
func (l *redisTurnLocker) Lock(ctx context.Context, threadID string) (func(), error) {
	key := l.prefix + threadID
	token := uuid.NewString()

	setCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	ok, err := l.client.SetNX(setCtx, key, token, l.ttl).Result()
	if err != nil {
		l.warn("turn lock unavailable", threadID, err)
		return func() {}, nil
	}
	if !ok {
		return nil, ErrTurnInProgress
	}
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.renew(stop, key, token, threadID)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			delCtx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
			defer cancel()
			if err := l.client.Eval(delCtx, redisUnlockScript, []string{key}, token).Err(); err != nil {
				l.warn("turn unlock failed", threadID, err)
			}
		})
	}, nil
}

// renew mantiene vivo el lock mientras dure el turno. Termina al cerrarse stop
// o si la clave ya no es nuestra.
func (l *redisTurnLocker) renew(stop <-chan struct{}, key, token, threadID string) {
	every := l.renewEvery
	if every <= 0 {
		every = l.ttl / 3
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		n, err := l.client.Eval(ctx, redisExtendScript, []string{key}, token, l.ttl.Milliseconds()).Int64()
		cancel()
		switch {
		case err != nil:
			l.warn("turn lock renewal failed", threadID, err)
		case n == 0:
			l.warn("turn lock lost", threadID, nil)
			return
		}
	}
}

func (l *redisTurnLocker) warn(msg, threadID string, err error) {
	if l.logger == nil {
		return
	}
	fields := []zap.Field{zap.String("thread_id", threadID)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.logger.Warn(msg, fields...)
}
