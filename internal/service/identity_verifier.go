package service

import (
	"context"
	"errors"

	"firebase.google.com/go/v4/auth"

	"saarthi-chat/internal/domain"
)

// IdentityVerifier convierte un bearer token en la identidad de la petición.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

var ErrIdentityInvalid = errors.New("identity token invalid")

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier valida ID tokens de Firebase Auth.
type FirebaseVerifier struct {
	client idTokenVerifier
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, ErrIdentityInvalid
	}
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return domain.Identity{}, ErrIdentityInvalid
	}
	provider := tok.Firebase.SignInProvider
	ident := domain.Identity{
		UserID:      tok.UID,
		Email:       claimString(tok.Claims, "email"),
		DisplayName: claimString(tok.Claims, "name"),
		AvatarURL:   claimString(tok.Claims, "picture"),
		Provider:    provider,
		Anonymous:   provider == domain.ProviderAnonymous,
	}
	if ident.UserID == "" {
		return domain.Identity{}, ErrIdentityInvalid
	}
	return ident, nil
}

func claimString(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return v
}
