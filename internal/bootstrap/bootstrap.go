// Package bootstrap arma las dependencias compartidas por los binarios de cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"saarthi-chat/internal/config"
	"saarthi-chat/internal/db"
	"saarthi-chat/internal/llm"
	"saarthi-chat/internal/repository"
	"saarthi-chat/internal/search"
	"saarthi-chat/internal/storage"
)

// Stores agrupa los repositorios del backend elegido y su cierre.
type Stores struct {
	Threads repository.ThreadRepository
	Users   repository.UserRepository
	Close   func()
}

// FirebaseApp inicializa Firebase solo si hay proyecto configurado.
func FirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	if cfg.FirebaseProjectID == "" {
		return nil, nil
	}
	return db.NewFirebaseApp(ctx, cfg)
}

// OpenStores abre los repositorios según STORE_BACKEND.
func OpenStores(ctx context.Context, cfg *config.Config, app *firebase.App, logger *zap.Logger) (Stores, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return Stores{}, err
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return Stores{}, err
		}
		logger.Info("using postgres store")
		return Stores{
			Threads: repository.NewPgThreadRepository(pool),
			Users:   repository.NewPgUserRepository(pool),
			Close:   pool.Close,
		}, nil
	case config.StoreFirestore:
		if app == nil {
			return Stores{}, fmt.Errorf("bootstrap: firestore store needs a firebase app")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return Stores{}, fmt.Errorf("bootstrap: opening firestore: %w", err)
		}
		logger.Info("using firestore store", zap.String("project_id", cfg.FirebaseProjectID))
		return Stores{
			Threads: repository.NewFirestoreThreadRepository(client),
			Users:   repository.NewFirestoreUserRepository(client),
			Close:   func() { _ = client.Close() },
		}, nil
	default:
		logger.Warn("using in-memory store, data is lost on restart")
		return Stores{
			Threads: repository.NewInMemoryThreadRepository(),
			Users:   repository.NewInMemoryUserRepository(),
			Close:   func() {},
		}, nil
	}
}

// ObjectStore devuelve nil si no hay bucket configurado.
func ObjectStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.ObjectStore, func(), error) {
	if cfg.StorageBucket == "" {
		logger.Warn("STORAGE_BUCKET not set, attachments disabled")
		return nil, func() {}, nil
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: opening storage: %w", err)
	}
	return storage.NewGCSStore(client, cfg.StorageBucket), func() { _ = client.Close() }, nil
}

// Providers registra un cliente por proveedor con API key. El generador de
// objetos (sugerencias) usa OpenAI; sin key queda nil.
func Providers(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*llm.Router, llm.ObjectGenerator, error) {
	router := llm.NewRouter()
	var gen llm.ObjectGenerator
	if cfg.OpenAIAPIKey != "" {
		openai := llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		router.Register(llm.ProviderOpenAI, openai)
		gen = openai
	} else {
		logger.Warn("OPENAI_API_KEY not set, openai models and suggestions disabled")
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiBaseURL)
		if err != nil {
			return nil, nil, err
		}
		router.Register(llm.ProviderGoogle, gemini)
	} else {
		logger.Warn("GEMINI_API_KEY not set, gemini models disabled")
	}
	return router, gen, nil
}

// SearchTool arma la herramienta de búsqueda; sin credenciales responde vacío.
func SearchTool(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.Tool, error) {
	google, err := search.NewGoogleSearcher(ctx, cfg.SearchAPIKey, cfg.SearchEngineID)
	if err != nil {
		return nil, err
	}
	var inner search.Searcher
	if google != nil {
		inner = google
	}
	return search.NewTool(search.NewDegraded(inner, logger)), nil
}

// Redis conecta al cliente opcional. Devuelve nil si no hay dirección o si el
// ping falla; los componentes caen a sus versiones en memoria.
func Redis(ctx context.Context, cfg *config.Config, logger *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, falling back to in-memory components", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
