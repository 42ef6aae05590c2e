package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"counseling-rag-be/internal/bootstrap"
	"counseling-rag-be/internal/config"
	"counseling-rag-be/internal/entity"
	"counseling-rag-be/pkg/database"
	"counseling-rag-be/pkg/rag"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	defer container.Logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := &entity.ChatSession{
		UserId: uuid.New(),
		Title:  "콘솔 상담",
	}
	if err := container.Sessions.Create(ctx, session); err != nil {
		log.Fatal("Error: Failed to create chat session:", err)
	}

	bot := color.New(color.FgCyan)
	debug := color.New(color.FgYellow)
	prompt := color.New(color.FgGreen, color.Bold)

	fmt.Println("상담을 시작합니다. 종료하려면 /quit 을 입력하세요.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		prompt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "/quit" {
			break
		}

		for chunk := range container.Pipeline.Stream(ctx, session.Id, query) {
			switch chunk.Type {
			case rag.ChunkDebug:
				debug.Printf("[debug] intent=%s rewritten=%q\n", chunk.Debug.Intent, chunk.Debug.RewrittenQuery)
				for _, c := range chunk.Debug.Candidates {
					marker := "keep"
					if !c.Kept {
						marker = "drop"
					}
					debug.Printf("[debug]   %.4f %s %s\n", c.Distance, marker, c.Content)
				}
			case rag.ChunkContent:
				bot.Print(chunk.Content)
			case rag.ChunkDone:
				fmt.Println()
			}
		}

		if ctx.Err() != nil {
			break
		}
	}

	fmt.Println("상담을 종료합니다.")
}
