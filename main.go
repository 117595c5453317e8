package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/agents/concierge"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/agents/registry"
	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	llmx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/llm"
	promptx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/prompt"
	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/steps"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/tool"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/transcript"
	configx "github.com/tanpawarit/Rocket-Approval-Concierge/pkg/config"
	contactsx "github.com/tanpawarit/Rocket-Approval-Concierge/pkg/contacts"
	_ "github.com/tanpawarit/Rocket-Approval-Concierge/pkg/logger/autoload"
	rocketx "github.com/tanpawarit/Rocket-Approval-Concierge/pkg/rocket"
)

type AppConfig struct {
	StateStore    string `envconfig:"STATE_STORE" default:"memory"`
	ContactsURL   string `envconfig:"CONTACTS_URL"`
	TranscriptDSN string `envconfig:"TRANSCRIPT_DSN"`
	OpenRouterKey string `envconfig:"OPENROUTER_API_KEY"`
}

func main() {
	ctx := context.Background()
	appCfg := configx.MustNew[AppConfig]("")

	rocketCfg := configx.MustNew[rocketx.Config]("ROCKET")
	backend := rocketx.MustNew(*rocketCfg)

	executor, err := steps.NewExecutor(backend)
	if err != nil {
		log.Fatal().Err(err).Msg("create step executor")
	}

	store := buildStore(appCfg)
	archive := buildArchive(ctx, appCfg)
	tools := buildTools(appCfg)
	models := buildRegistry(ctx, appCfg, tools)

	service, err := concierge.New(store, models, executor, steps.NewCatalog(), tools, archive)
	if err != nil {
		log.Fatal().Err(err).Msg("create concierge")
	}

	runConsole(ctx, service, store, backend)
}

func buildStore(cfg *AppConfig) statex.Store {
	switch strings.ToLower(strings.TrimSpace(cfg.StateStore)) {
	case "redis":
		redisCfg := configx.MustNew[statex.RedisConfig]("REDIS")
		store, err := statex.NewRedisStore(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("create redis store")
		}
		return store
	case "upstash":
		upstashCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*upstashCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("create upstash store")
		}
		return store
	default:
		return statex.NewMemoryStore()
	}
}

func buildArchive(ctx context.Context, cfg *AppConfig) contractx.TranscriptArchive {
	if strings.TrimSpace(cfg.TranscriptDSN) == "" {
		return transcript.Noop{}
	}

	archive, err := transcript.New(transcript.Config{DSN: cfg.TranscriptDSN})
	if err != nil {
		log.Fatal().Err(err).Msg("create transcript archive")
	}
	if err := archive.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("init transcript archive")
	}
	return archive
}

func buildTools(cfg *AppConfig) *tool.Gateway {
	var searcher tool.ContactSearcher
	if strings.TrimSpace(cfg.ContactsURL) != "" {
		contactsCfg := configx.MustNew[contactsx.Config]("CONTACTS")
		searcher = contactsx.MustNew(*contactsCfg)
	}
	return tool.NewGateway(searcher)
}

func buildRegistry(ctx context.Context, cfg *AppConfig, tools *tool.Gateway) contractx.Registry {
	if strings.TrimSpace(cfg.OpenRouterKey) == "" {
		log.Info().Msg("no openrouter key configured, using the keyword classifier")
		return registry.NewRuleBased(tools)
	}

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	models, err := registry.New(ctx, *llmCfg, tools)
	if err != nil {
		log.Fatal().Err(err).Msg("create model registry")
	}
	return models
}

func runConsole(ctx context.Context, service *concierge.Concierge, store statex.Store, backend *rocketx.Client) {
	threadID := uuid.NewString()
	prompts := promptx.LoadPromptSet()

	fmt.Println(prompts.Greeting)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "/status" {
			printStatus(ctx, store, backend, threadID)
			continue
		}

		result, err := service.Advance(ctx, threadID, line)
		if err != nil {
			if errors.Is(err, concierge.ErrTurnInFlight) {
				fmt.Println("One moment, still working on your last message.")
				continue
			}
			log.Error().Err(err).Str("thread_id", threadID).Msg("turn failed")
			fmt.Println("Something went wrong on our side. Please try again.")
			continue
		}

		fmt.Println(result.DisplayText)
		if result.Terminal {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("read input")
	}
}

func printStatus(ctx context.Context, store statex.Store, backend *rocketx.Client, threadID string) {
	st, err := store.Load(ctx, threadID)
	if err != nil || st.LoanID == "" {
		fmt.Println("No application has been started yet.")
		return
	}

	resp, err := backend.Status(ctx, st.LoanID, st.SessionToken)
	if err != nil {
		log.Error().Err(err).Str("loan_id", st.LoanID).Msg("fetch application status")
		fmt.Println("Could not reach the application record right now.")
		return
	}

	if msg, ok := resp["message"].(string); ok && msg != "" {
		fmt.Println(msg)
		return
	}
	fmt.Printf("Application %s is on step %s.\n", st.LoanID, st.CurrentStep)
}
