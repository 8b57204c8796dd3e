package db

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"

	"saarthi-chat/internal/config"
)

// NewFirebaseApp inicializa la app de Firebase con las credenciales por defecto del entorno.
func NewFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.FirebaseProjectID,
		StorageBucket: cfg.StorageBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("db: initializing firebase: %w", err)
	}
	return app, nil
}
