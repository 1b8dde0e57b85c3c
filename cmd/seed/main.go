// Seeds the report corpus: reads per-year JSONL files, publishes one summary
// chunk per page plus its split fragments, and waits for the embedding
// consumer to persist everything.
//
// Corpus layout: $CORPUS_DIR/report_<year>.jsonl, one page per line:
//
//	{"year": 2024, "page": 12, "summary": "...", "content": "..."}
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"survey-chat-be/internal/config"
	"survey-chat-be/internal/dto"
	"survey-chat-be/internal/pkg/logger"
	"survey-chat-be/internal/repository/implementation"
	"survey-chat-be/internal/service"
	"survey-chat-be/pkg/database"
	"survey-chat-be/pkg/embedding"
	"survey-chat-be/pkg/embedding/jina"
	"survey-chat-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	fragmentChunkSize = 800
	fragmentOverlap   = 100
	settleTimeout     = 30 * time.Minute
)

type corpusPage struct {
	Year    int    `json:"year"`
	Page    int    `json:"page"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
	}

	chunkRepo := implementation.NewReportChunkRepository(gormDB)

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	publisher := service.NewPublisherService(cfg.Chat.EmbedTopic, pubSub)
	consumer := service.NewConsumerService(pubSub, cfg.Chat.EmbedTopic, chunkRepo, embeddingProvider, sysLogger)

	ctx := context.Background()
	if err := consumer.Consume(ctx); err != nil {
		log.Fatalf("Failed to start consumer: %v", err)
	}

	for year, sourceId := range cfg.ReportSources() {
		path := filepath.Join(cfg.Chat.CorpusDir, sourceId+".jsonl")
		pages, err := loadCorpusFile(path)
		if err != nil {
			log.Printf("[WARN] Skipping %s: %v", path, err)
			continue
		}

		log.Printf("[INFO] Reseeding %s (%d pages)", sourceId, len(pages))
		if err := chunkRepo.DeleteBySourceId(ctx, sourceId); err != nil {
			log.Fatalf("Failed to clear old chunks for %s: %v", sourceId, err)
		}

		published := 0
		for _, page := range pages {
			if page.Year == 0 {
				page.Year = year
			}
			published += publishPage(publisher, sourceId, page)
		}

		waitForSettle(ctx, chunkRepo, sourceId, published)
	}

	log.Println("[INFO] Seeding complete")
}

// publishPage emits one summary chunk and its fragments. Returns how many
// messages were published.
func publishPage(publisher service.IPublisherService, sourceId string, page corpusPage) int {
	parentId := fmt.Sprintf("%s_p%d", sourceId, page.Page)

	messages := []*dto.EmbedReportChunkMessage{{
		SourceId: sourceId,
		Year:     page.Year,
		Page:     page.Page,
		ParentId: parentId,
		DocType:  "summary",
		Content:  page.Summary,
	}}

	for i, fragment := range utils.SplitText(page.Content, fragmentChunkSize, fragmentOverlap) {
		messages = append(messages, &dto.EmbedReportChunkMessage{
			SourceId:      sourceId,
			Year:          page.Year,
			Page:          page.Page,
			ParentId:      parentId,
			DocType:       "fragment",
			FragmentIndex: i,
			Content:       fragment,
		})
	}

	for _, msg := range messages {
		if err := publisher.PublishChunk(msg); err != nil {
			log.Fatalf("Failed to publish chunk (%s p.%d): %v", sourceId, page.Page, err)
		}
	}
	return len(messages)
}

func loadCorpusFile(path string) ([]corpusPage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var pages []corpusPage
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var page corpusPage
		if err := json.Unmarshal(line, &page); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		pages = append(pages, page)
	}
	return pages, scanner.Err()
}

// waitForSettle polls the chunk count until every published message is
// persisted or the timeout passes.
func waitForSettle(ctx context.Context, chunkRepo interface {
	CountBySourceId(ctx context.Context, sourceId string) (int64, error)
}, sourceId string, expected int) {
	deadline := time.Now().Add(settleTimeout)
	for time.Now().Before(deadline) {
		count, err := chunkRepo.CountBySourceId(ctx, sourceId)
		if err == nil && count >= int64(expected) {
			log.Printf("[INFO] %s settled: %d chunks", sourceId, count)
			return
		}
		time.Sleep(2 * time.Second)
	}
	log.Printf("[WARN] %s did not settle within %s (expected %d chunks)", sourceId, settleTimeout, expected)
}
