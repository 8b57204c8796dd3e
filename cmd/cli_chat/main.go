package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"saarthi-chat/internal/bootstrap"
	"saarthi-chat/internal/config"
	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/llm"
	"saarthi-chat/internal/service"
)

// Chat por consola sobre el mismo TurnService que expone la API.
// Comandos: /new, /model <id>, /search, /threads, /quit.
func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	fbApp, err := bootstrap.FirebaseApp(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	stores, err := bootstrap.OpenStores(ctx, cfg, fbApp, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer stores.Close()

	router, objectGen, err := bootstrap.Providers(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	searchTool, err := bootstrap.SearchTool(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	userSvc := service.NewUserService(logger, stores.Users)
	threadSvc := service.NewThreadService(logger, stores.Threads, nil)
	completionSvc := service.NewCompletionService(logger, router, searchTool, nil)
	suggestionSvc := service.NewSuggestionService(logger, objectGen, cfg.SuggestionModel, nil)
	turnSvc := service.NewTurnService(logger, threadSvc, completionSvc, suggestionSvc, userSvc, service.NewTurnTracker(), nil)

	user, err := userSvc.CreateAnonymous(ctx)
	if err != nil {
		log.Fatalf("crear usuario: %v", err)
	}
	ident := domain.Identity{UserID: user.ID, Anonymous: true}

	session := cliSession{
		threadID: uuid.NewString(),
		modelID:  llm.DefaultModel().ID,
	}
	fmt.Printf("Usuario anónimo %s. Modelo: %s\n", user.ID, session.modelID)

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := session.command(ctx, line, threadSvc, ident); quit {
				return
			}
			continue
		}
		runTurn(ctx, turnSvc, ident, &session, line)
	}
}

type cliSession struct {
	threadID string
	modelID  string
	search   bool
}

func (s *cliSession) command(ctx context.Context, line string, threads *service.ThreadService, ident domain.Identity) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/new":
		s.threadID = uuid.NewString()
		fmt.Println("Nuevo thread:", s.threadID)
	case "/model":
		if len(fields) < 2 {
			for _, m := range llm.Models() {
				fmt.Printf("  %s (%s)\n", m.ID, m.Name)
			}
			return false
		}
		if _, err := llm.ResolveModel(fields[1]); err != nil {
			fmt.Println("Modelo inválido:", fields[1])
			return false
		}
		s.modelID = fields[1]
		fmt.Println("Modelo:", s.modelID)
	case "/search":
		s.search = !s.search
		fmt.Println("Búsqueda web:", s.search)
	case "/threads":
		list, err := threads.List(ctx, ident)
		if err != nil {
			fmt.Println("Error:", err)
			return false
		}
		for _, t := range list {
			fmt.Printf("  %s  %s (%d mensajes)\n", t.ID, t.Title, t.MessageCount)
		}
	default:
		fmt.Println("Comandos: /new, /model <id>, /search, /threads, /quit")
	}
	return false
}

// runTurn corre un turno; Ctrl+C lo detiene sin salir del programa.
func runTurn(ctx context.Context, turns *service.TurnService, ident domain.Identity, s *cliSession, content string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	_, err := turns.Run(turnCtx, ident, service.TurnInput{
		ThreadID:      s.threadID,
		Content:       content,
		ModelID:       s.modelID,
		SearchEnabled: s.search,
	}, printEvent)
	fmt.Println()
	switch {
	case errors.Is(err, service.ErrTurnCanceled):
		fmt.Println("[detenido]")
	case err != nil:
		fmt.Println("Error:", err)
	}
}

func printEvent(ev service.TurnEvent) error {
	switch ev.Type {
	case service.TurnEventThread:
		fmt.Printf("[thread %q]\n", ev.Thread.Title)
	case service.TurnEventText:
		fmt.Print(ev.Delta)
	case service.TurnEventReasoning:
		fmt.Print("\x1b[2m" + ev.Delta + "\x1b[0m")
	case service.TurnEventTool:
		fmt.Printf("\n[%s]\n", ev.Label)
	case service.TurnEventPersistError, service.TurnEventError:
		fmt.Printf("\n[%s] %s\n", ev.Type, ev.Error)
	case service.TurnEventSuggestions:
		fmt.Println("\nSugerencias:")
		for _, sug := range ev.Suggestions {
			fmt.Println("  -", sug)
		}
	}
	return nil
}
