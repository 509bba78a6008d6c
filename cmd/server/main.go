package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tidymind/tidymind/pkg/ai"
	"github.com/tidymind/tidymind/pkg/api"
	"github.com/tidymind/tidymind/pkg/db"
	"github.com/tidymind/tidymind/pkg/export"
	"github.com/tidymind/tidymind/pkg/integration/calendar"
	"github.com/tidymind/tidymind/pkg/integration/discord"
	"github.com/tidymind/tidymind/pkg/integration/drive"
	"github.com/tidymind/tidymind/pkg/integration/gmail"
	"github.com/tidymind/tidymind/pkg/integration/google"
	"github.com/tidymind/tidymind/pkg/integration/telegram"
	"github.com/tidymind/tidymind/pkg/jobs"
	"github.com/tidymind/tidymind/pkg/notes"
	pkgsync "github.com/tidymind/tidymind/pkg/sync"
)

func main() {
	dbPath := flag.String("db", "tidymind.db", "Path to SQLite DB")
	port := flag.String("port", "8080", "HTTP Port")
	exportDir := flag.String("export", "", "Directory for markdown note exports (optional)")
	aiProvider := flag.String("ai-provider", "groq", "AI provider: groq or gemini")
	flag.Parse()

	// Initialize DB
	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		log.Fatalf("Failed to init schema: %v", err)
	}

	repo := db.NewRepository(database)

	if err := repo.SeedCategories(notes.DefaultColors); err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	// Initialize AI Client
	var aiClient ai.Generator
	switch *aiProvider {
	case "groq":
		key := os.Getenv("GROQ_API_KEY")
		if key == "" {
			log.Fatal("GROQ_API_KEY environment variable is required when using groq provider")
		}
		aiClient = ai.NewGroqClient(key)
	case "gemini":
		key := os.Getenv("GEMINI_API_KEY")
		if key == "" {
			log.Fatal("GEMINI_API_KEY environment variable is required when using gemini provider")
		}
		ctx := context.Background()
		geminiClient, err := ai.NewClient(ctx, key)
		if err != nil {
			log.Fatalf("Failed to create AI client: %v", err)
		}
		defer geminiClient.Close()
		aiClient = geminiClient
	default:
		log.Fatalf("Unknown AI provider: %s", *aiProvider)
	}

	classifier := ai.NewClassifier(aiClient)
	svc := notes.NewService(repo, classifier)

	// Initialize Router
	router := api.NewRouter(svc, classifier, repo)

	// Initialize Job Scheduler
	scheduler := jobs.NewService(repo, 15*time.Second, 10)
	scheduler.RegisterAction(jobs.ActionProcessPending, func(ctx context.Context, def db.JobDefinition) (string, error) {
		merged, err := svc.Merge(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("merged %d notes", merged), nil
	})

	if *exportDir != "" {
		exporter := export.NewExporter(*exportDir)
		gitManager := pkgsync.NewGitManager(*exportDir)

		scheduler.RegisterAction(jobs.ActionExportNotes, func(ctx context.Context, def db.JobDefinition) (string, error) {
			list, err := svc.List(ctx, "")
			if err != nil {
				return "", err
			}
			written, err := exporter.ExportAll(list)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("exported %d notes", written), nil
		})
		scheduler.RegisterAction(jobs.ActionGitSync, func(ctx context.Context, def db.JobDefinition) (string, error) {
			if err := gitManager.Sync(""); err != nil {
				return "", err
			}
			return "synced", nil
		})
	}

	scheduler.Start()
	defer scheduler.Stop()

	// Google integrations (Optional)
	credentialsFile := os.Getenv("GOOGLE_CREDENTIALS_FILE")
	if credentialsFile != "" {
		ctx := context.Background()

		folderID := os.Getenv("DRIVE_FOLDER_ID")
		if folderID != "" {
			driveSvc, err := drive.NewService(ctx, credentialsFile, folderID)
			if err != nil {
				log.Printf("Failed to create Drive service: %v", err)
			} else {
				watcher := drive.NewWatcher(driveSvc, repo, svc, 5*time.Minute)
				if err := watcher.Start(); err != nil {
					log.Printf("Failed to start Drive watcher: %v", err)
				} else {
					log.Println("Drive watcher started")
					defer watcher.Stop()
				}

				if *exportDir != "" {
					backup := drive.NewBackup(driveSvc, repo, *exportDir, 15*time.Minute)
					if err := backup.Start(); err != nil {
						log.Printf("Failed to start Drive backup: %v", err)
					} else {
						log.Println("Drive backup started")
						defer backup.Stop()
					}
				}
			}
		}

		calendarID := os.Getenv("CALENDAR_ID")
		if calendarID != "" {
			calSvc, err := calendar.NewService(ctx, credentialsFile, calendarID)
			if err != nil {
				log.Printf("Failed to create Calendar service: %v", err)
			} else {
				syncer := calendar.NewSyncer(calSvc, repo, svc, 10*time.Minute, 14*24*time.Hour)
				if err := syncer.Start(); err != nil {
					log.Printf("Failed to start Calendar syncer: %v", err)
				} else {
					log.Println("Calendar syncer started")
					defer syncer.Stop()
				}
			}
		}

		httpClient, err := google.NewHTTPClient(ctx, credentialsFile, "https://www.googleapis.com/auth/gmail.modify")
		if err != nil {
			log.Printf("Failed to create Gmail HTTP client: %v", err)
		} else {
			gmailSvc, err := gmail.NewService(ctx, httpClient)
			if err != nil {
				log.Printf("Failed to create Gmail service: %v", err)
			} else {
				poller := gmail.NewPoller(gmailSvc, 5*time.Minute, func(subject, body string) error {
					content := subject
					if body != "" {
						content = subject + "\n\n" + body
					}
					return svc.Capture(content, "", 0)
				})
				go poller.Start()
				log.Println("Gmail poller started")
				defer poller.Stop()
			}
		}
	}

	// Initialize Discord Bot (Optional)
	discordToken := os.Getenv("DISCORD_TOKEN")
	if discordToken != "" {
		bot, err := discord.NewBot(discordToken, svc)
		if err != nil {
			log.Printf("Failed to create Discord bot: %v", err)
		} else {
			if err := bot.Start(); err != nil {
				log.Printf("Failed to start Discord bot: %v", err)
			} else {
				log.Println("Discord Bot started")
				defer bot.Stop()
			}
		}
	}

	// Initialize Telegram Bot (Optional)
	telegramToken := os.Getenv("TELEGRAM_TOKEN")
	if telegramToken != "" {
		tgBot, err := telegram.NewBot(telegramToken, svc)
		if err != nil {
			log.Printf("Failed to create Telegram bot: %v", err)
		} else {
			if err := tgBot.Start(); err != nil {
				log.Printf("Failed to start Telegram bot: %v", err)
			} else {
				log.Println("Telegram Bot started")
				defer tgBot.Stop()
			}
		}
	}

	log.Printf("Starting server on :%s", *port)
	if err := http.ListenAndServe(":"+*port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
