package http

import (
	"net/http"
	"strings"
	"testing"

	"saarthi-chat/internal/domain"
)

// startThread crea un thread con un turno completo por la API.
func startThread(t *testing.T, app *testApp, s session, id, content string) {
	t.Helper()
	rec := app.do(http.MethodPost, "/api/threads/"+id+"/turns", s.AccessToken, map[string]any{"content": content})
	if rec.Code != http.StatusOK {
		t.Fatalf("turn on %s: expected 200, got %d", id, rec.Code)
	}
}

func TestThreadHandlerGet(t *testing.T) {
	app := newTestApp(t)
	owner := app.signIn(t)
	other := app.signIn(t)
	startThread(t, app, owner, "t1", "Hello")

	t.Run("owner", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/threads/t1", owner.AccessToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var resp struct {
			Thread domain.Thread `json:"thread"`
		}
		decodeBody(t, rec, &resp)
		if resp.Thread.MessageCount != len(resp.Thread.Messages) || resp.Thread.MessageCount != 2 {
			t.Fatalf("unexpected thread: %+v", resp.Thread)
		}
	})

	t.Run("non-owner is sent home", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/threads/t1", other.AccessToken, nil)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
			t.Fatalf("expected 303 to /, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
		if strings.Contains(rec.Body.String(), "Hello") {
			t.Fatalf("thread content leaked to non-owner")
		}
	})

	t.Run("missing", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/threads/nope", owner.AccessToken, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestThreadHandlerListAndGrouped(t *testing.T) {
	app := newTestApp(t)
	s := app.signIn(t)
	startThread(t, app, s, "t1", "first")
	startThread(t, app, s, "t2", "second")

	rec := app.do(http.MethodGet, "/api/threads", s.AccessToken, nil)
	var list struct {
		Threads []domain.Thread `json:"threads"`
	}
	decodeBody(t, rec, &list)
	if len(list.Threads) != 2 || list.Threads[0].ID != "t2" {
		t.Fatalf("expected most recent first, got %+v", list.Threads)
	}

	rec = app.do(http.MethodGet, "/api/threads?grouped=true", s.AccessToken, nil)
	var groups domain.ThreadGroups
	decodeBody(t, rec, &groups)
	if len(groups.Today) != 2 {
		t.Fatalf("expected both threads today, got %+v", groups)
	}
}

func TestThreadHandlerUpdate(t *testing.T) {
	app := newTestApp(t)
	s := app.signIn(t)
	other := app.signIn(t)
	startThread(t, app, s, "t1", "Hello")

	rec := app.do(http.MethodPatch, "/api/threads/t1", s.AccessToken, map[string]any{"title": "Renamed", "isPinned": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		Thread domain.Thread `json:"thread"`
	}
	decodeBody(t, rec, &resp)
	if resp.Thread.Title != "Renamed" || !resp.Thread.IsPinned {
		t.Fatalf("unexpected thread after update: %+v", resp.Thread)
	}

	if rec := app.do(http.MethodPatch, "/api/threads/t1", s.AccessToken, map[string]any{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected empty patch to fail, got %d", rec.Code)
	}
	if rec := app.do(http.MethodPatch, "/api/threads/t1", s.AccessToken, map[string]any{"title": "  "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected blank title to fail, got %d", rec.Code)
	}
	if rec := app.do(http.MethodPatch, "/api/threads/t1", other.AccessToken, map[string]any{"title": "x"}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected non-owner rename to be forbidden, got %d", rec.Code)
	}
}

func TestThreadHandlerShare(t *testing.T) {
	app := newTestApp(t)
	s := app.signIn(t)
	startThread(t, app, s, "t1", "Hello")

	rec := app.do(http.MethodPost, "/api/threads/t1/share", s.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var share struct {
		ShareID string `json:"shareId"`
		URL     string `json:"url"`
	}
	decodeBody(t, rec, &share)
	if share.ShareID == "" || share.URL != "https://chat.example.com/share/"+share.ShareID {
		t.Fatalf("unexpected share response: %+v", share)
	}

	rec = app.do(http.MethodGet, "/api/share/"+share.ShareID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected public read, got %d", rec.Code)
	}
	var shared struct {
		Thread domain.Thread `json:"thread"`
	}
	decodeBody(t, rec, &shared)
	if shared.Thread.ID != "t1" || shared.Thread.UserID != "" {
		t.Fatalf("unexpected snapshot: %+v", shared.Thread)
	}

	if rec := app.do(http.MethodGet, "/api/share/unknown", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown share id, got %d", rec.Code)
	}
}

func TestThreadHandlerDelete(t *testing.T) {
	app := newTestApp(t)
	s := app.signIn(t)
	other := app.signIn(t)
	startThread(t, app, s, "t1", "Hello")

	if rec := app.do(http.MethodDelete, "/api/threads/t1", other.AccessToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected non-owner delete to be forbidden, got %d", rec.Code)
	}
	if rec := app.do(http.MethodDelete, "/api/threads/t1", s.AccessToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec := app.do(http.MethodGet, "/api/threads/t1", s.AccessToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}
