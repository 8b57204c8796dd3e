package http

import (
	"net/http"
	"strings"
	"testing"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/service"
)

func TestUserHandlerAnonymous_CreatesProfile(t *testing.T) {
	app := newTestApp(t)
	s := app.signIn(t)

	if s.UserID == "" || s.AccessToken == "" || s.RefreshToken == "" {
		t.Fatalf("expected user and tokens, got %+v", s)
	}
	rec := app.do(http.MethodGet, "/api/me", s.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		User domain.User `json:"user"`
	}
	decodeBody(t, rec, &resp)
	if resp.User.ID != s.UserID || !resp.User.IsAnonymous {
		t.Fatalf("unexpected profile: %+v", resp.User)
	}
}

func TestUserHandlerRefreshToken_RotatesOnce(t *testing.T) {
	app := newTestApp(t)
	s := app.signIn(t)

	rec := app.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": s.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	rec = app.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": s.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected reused refresh token to fail, got %d", rec.Code)
	}
}

func TestUserHandlerRefreshToken_InvalidRequest(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestUserHandlerLogout_RevokesRefresh(t *testing.T) {
	app := newTestApp(t)
	s := app.signIn(t)

	rec := app.do(http.MethodPost, "/api/auth/logout", "", map[string]string{"refresh_token": s.RefreshToken})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	rec = app.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": s.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to fail, got %d", rec.Code)
	}
}

func TestUserHandlerFederate_UpgradesInPlace(t *testing.T) {
	app := newTestApp(t)
	s := app.signIn(t)

	rec := app.do(http.MethodPost, "/api/auth/federate", s.AccessToken, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without provider, got %d", rec.Code)
	}

	rec = app.do(http.MethodPost, "/api/auth/federate", s.AccessToken, map[string]string{
		"provider":    "google.com",
		"email":       "Dev@Example.com",
		"displayName": "Dev",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		User   domain.User       `json:"user"`
		Tokens service.TokenPair `json:"tokens"`
	}
	decodeBody(t, rec, &resp)
	if resp.User.ID != s.UserID || resp.User.IsAnonymous || resp.User.Email != "dev@example.com" {
		t.Fatalf("expected in-place upgrade, got %+v", resp.User)
	}
	if resp.Tokens.AccessToken == "" {
		t.Fatalf("expected a fresh token pair")
	}

	rec = app.do(http.MethodPost, "/api/auth/federate", resp.Tokens.AccessToken, map[string]string{"provider": "github"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected already-federated account to be rejected, got %d", rec.Code)
	}
}

func TestUserHandlerUpdateSettings(t *testing.T) {
	app := newTestApp(t)
	s := app.signIn(t)

	rec := app.do(http.MethodPatch, "/api/me/settings", s.AccessToken, map[string]string{
		"name":        "Ada",
		"occupation":  strings.Repeat("o", 70),
		"preferences": "Short answers",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		User domain.User `json:"user"`
	}
	decodeBody(t, rec, &resp)
	if resp.User.DisplayName != "Ada" || len(resp.User.Occupation) != domain.OccupationMaxRunes {
		t.Fatalf("expected capped settings, got %+v", resp.User)
	}
}

func TestUserHandlerSync_KeepsExistingProfile(t *testing.T) {
	app := newTestApp(t)
	s := app.signIn(t)

	rec := app.do(http.MethodPost, "/api/me/sync", s.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		User domain.User `json:"user"`
	}
	decodeBody(t, rec, &resp)
	if resp.User.ID != s.UserID || !resp.User.IsAnonymous {
		t.Fatalf("unexpected profile after sync: %+v", resp.User)
	}
}
