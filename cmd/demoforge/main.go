// Command demoforge runs an interactive planning session that turns a chat
// about a demo app into an instrumentation plan and a scaffolded project.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/demoforge/demoforge/pkg/chat"
	"github.com/demoforge/demoforge/pkg/config"
	"github.com/demoforge/demoforge/pkg/generate"
	"github.com/demoforge/demoforge/pkg/github"
	"github.com/demoforge/demoforge/pkg/history"
	"github.com/demoforge/demoforge/pkg/interfaces"
	"github.com/demoforge/demoforge/pkg/llm/anthropic"
	"github.com/demoforge/demoforge/pkg/llm/openai"
	"github.com/demoforge/demoforge/pkg/logging"
	"github.com/demoforge/demoforge/pkg/plan"
	"github.com/demoforge/demoforge/pkg/runner"
	"github.com/demoforge/demoforge/pkg/sandbox"
	"github.com/demoforge/demoforge/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	appName := flag.String("app", "demo-app", "name of the demo application")
	platform := flag.String("platform", "web", "target platform (web, mobile, python)")
	outDir := flag.String("out", "generated", "directory for scaffolded projects")
	flag.Parse()

	if err := run(*configPath, *appName, plan.Platform(*platform), *outDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, appName string, platform plan.Platform, outDir string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := logging.New(logging.WithLevel(cfg.LogLevel))

	model, err := buildLLM(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Tracing.Langfuse.Enabled {
		tracer := tracing.NewLangfuseTracer(tracing.LangfuseConfig{
			Enabled:     true,
			Environment: cfg.Tracing.Langfuse.Environment,
		})
		defer func() {
			if err := tracer.Flush(); err != nil {
				logger.Warn(context.Background(), "Failed to flush tracer", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
		model = tracing.NewLLMMiddleware(model, tracer, tracing.WithLogger(logger))
	}

	if cfg.Tracing.OTel.Enabled {
		otelTracer, err := tracing.NewOTelTracer(tracing.OTelConfig{
			Enabled:           true,
			ServiceName:       cfg.Tracing.OTel.ServiceName,
			CollectorEndpoint: cfg.Tracing.OTel.CollectorEndpoint,
		})
		if err != nil {
			return err
		}
		model = tracing.NewLLMOTelMiddleware(model, otelTracer)
	}

	transcript, err := buildTranscript(cfg)
	if err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}

	planner := chat.NewPlanner(model, chat.WithLogger(logger), chat.WithTranscript(transcript))
	generator := generate.NewGenerator(model, generate.WithLogger(logger))

	ctx := chat.NewSessionContext(context.Background())
	sessionPlan := plan.NewPlan(appName, platform)

	fmt.Printf("Planning session for %s (%s). Describe the demo app; /help lists commands.\n", appName, platform)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := handleCommand(ctx, line, cfg, logger, planner, generator, store, sessionPlan, outDir)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			if done {
				break
			}
			continue
		}

		reply, err := planner.Send(ctx, sessionPlan, line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Println(reply)
	}

	return scanner.Err()
}

func buildLLM(cfg *config.Config, logger logging.Logger) (interfaces.LLM, error) {
	switch cfg.LLM.Provider {
	case "openai":
		apiKey := config.OpenAIAPIKey()
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		options := []openai.Option{openai.WithLogger(logger)}
		if cfg.LLM.Model != "" {
			options = append(options, openai.WithModel(cfg.LLM.Model))
		}
		return openai.NewClient(apiKey, options...), nil
	case "anthropic":
		apiKey := config.AnthropicAPIKey()
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		options := []anthropic.Option{anthropic.WithLogger(logger)}
		if cfg.LLM.Model != "" {
			options = append(options, anthropic.WithModel(cfg.LLM.Model))
		}
		return anthropic.NewClient(apiKey, options...), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLM.Provider)
	}
}

// buildStore keeps plans in memory when no plans directory is configured
func buildStore(cfg *config.Config) (plan.Store, error) {
	if cfg.PlansDir == "" {
		return plan.NewMemoryStore(), nil
	}
	return plan.NewFileStore(cfg.PlansDir)
}

func buildTranscript(cfg *config.Config) (interfaces.ChatHistory, error) {
	if cfg.Redis.Addr == "" {
		return history.NewBuffer(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	options := []history.RedisOption{}
	if cfg.Redis.TTL != "" {
		ttl, err := time.ParseDuration(cfg.Redis.TTL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis ttl: %w", err)
		}
		options = append(options, history.WithTTL(ttl))
	}

	return history.NewRedisHistory(client, options...), nil
}

func handleCommand(ctx context.Context, line string, cfg *config.Config, logger logging.Logger, planner *chat.Planner, generator *generate.Generator, store plan.Store, sessionPlan *plan.Plan, outDir string) (bool, error) {
	command, rest := line, ""
	if i := strings.IndexByte(line, ' '); i >= 0 {
		command, rest = line[:i], strings.TrimSpace(line[i+1:])
	}

	switch command {
	case "/help":
		fmt.Println(`Commands:
  /plan <description>  generate a structured plan from a description
  /show                print the current plan
  /save                persist the current plan
  /plans               list persisted plans
  /scaffold            write the project files to disk
  /service <path>      generate the backend service into the given file
  /refine <path> <how> rewrite a generated file per the instruction
  /screens <desc>      propose screens for the app
  /suggest             suggest plan improvements
  /run                 install dependencies and start the dev server
  /preview             upload the project to the sandbox
  /publish             push the project to GitHub
  /quit                exit`)
		return false, nil

	case "/plan":
		if rest == "" {
			return false, fmt.Errorf("usage: /plan <description>")
		}
		generated, err := planner.GeneratePlan(ctx, sessionPlan.AppName, sessionPlan.Platform, rest)
		if err != nil {
			return false, err
		}
		for _, span := range generated.Spans {
			if !sessionPlan.HasSpan(span.Name) {
				sessionPlan.Spans = append(sessionPlan.Spans, span)
			}
		}
		fmt.Printf("Plan now has %d spans.\n", len(sessionPlan.Spans))
		return false, nil

	case "/show":
		printPlan(sessionPlan)
		return false, nil

	case "/save":
		if err := store.Save(sessionPlan); err != nil {
			return false, err
		}
		fmt.Printf("Saved plan %s.\n", sessionPlan.ID)
		return false, nil

	case "/plans":
		plans, err := store.List()
		if err != nil {
			return false, err
		}
		if len(plans) == 0 {
			fmt.Println("No saved plans.")
			return false, nil
		}
		for _, p := range plans {
			fmt.Printf("  %s  %s (%s), %d spans\n", p.ID, p.AppName, p.Platform, len(p.Spans))
		}
		return false, nil

	case "/service":
		if rest == "" {
			return false, fmt.Errorf("usage: /service <path>")
		}
		if strings.Contains(rest, "..") {
			return false, fmt.Errorf("invalid path: %s", rest)
		}
		code, err := generator.GenerateService(ctx, sessionPlan)
		if err != nil {
			return false, err
		}
		path := filepath.Join(outDir, sessionPlan.AppName, rest)
		if err := writeFiles(filepath.Dir(path), []generate.File{{Path: filepath.Base(path), Content: code}}); err != nil {
			return false, err
		}
		fmt.Printf("Wrote service to %s.\n", path)
		return false, nil

	case "/refine":
		target, instruction := rest, ""
		if i := strings.IndexByte(rest, ' '); i >= 0 {
			target, instruction = rest[:i], strings.TrimSpace(rest[i+1:])
		}
		if target == "" || instruction == "" {
			return false, fmt.Errorf("usage: /refine <path> <instruction>")
		}
		if strings.Contains(target, "..") {
			return false, fmt.Errorf("invalid path: %s", target)
		}
		path := filepath.Join(outDir, sessionPlan.AppName, target)
		source, err := os.ReadFile(path) // #nosec G304 - path is rooted in the output directory
		if err != nil {
			return false, fmt.Errorf("failed to read %s: %w", path, err)
		}
		refined, err := generator.RefineCode(ctx, string(source), instruction)
		if err != nil {
			return false, err
		}
		if err := os.WriteFile(path, []byte(refined), 0600); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Printf("Refined %s.\n", path)
		return false, nil

	case "/scaffold":
		files, err := generate.Scaffold(sessionPlan)
		if err != nil {
			return false, err
		}
		dir := filepath.Join(outDir, sessionPlan.AppName)
		if err := writeFiles(dir, files); err != nil {
			return false, err
		}
		fmt.Printf("Wrote %d files to %s.\n", len(files), dir)
		return false, nil

	case "/screens":
		if rest == "" {
			return false, fmt.Errorf("usage: /screens <description>")
		}
		screens, err := generator.GenerateScreens(ctx, rest, sessionPlan.Platform)
		if err != nil {
			return false, err
		}
		for _, screen := range screens {
			fmt.Printf("  %s: %s\n", screen.Name, screen.Purpose)
		}
		return false, nil

	case "/suggest":
		suggestions, err := generator.SuggestImprovements(ctx, sessionPlan)
		if err != nil {
			return false, err
		}
		for _, s := range suggestions {
			fmt.Printf("  - %s\n", s)
		}
		return false, nil

	case "/run":
		dir := filepath.Join(outDir, sessionPlan.AppName)
		r := runner.New(dir, runner.WithLogger(logger))
		if err := r.InstallDeps(ctx, sessionPlan.Platform); err != nil {
			return false, err
		}
		cmd, err := r.StartDevServer(ctx, sessionPlan.Platform)
		if err != nil {
			return false, err
		}
		fmt.Printf("Dev server running (pid %d).\n", cmd.Process.Pid)
		return false, nil

	case "/preview":
		if cfg.Sandbox.BaseURL == "" {
			return false, fmt.Errorf("sandbox base_url is not configured")
		}
		files, err := generate.Scaffold(sessionPlan)
		if err != nil {
			return false, err
		}
		client := sandbox.NewClient(cfg.Sandbox.BaseURL, 30*time.Second)
		if apiKey := config.SandboxAPIKey(); apiKey != "" {
			client.SetHeader("Authorization", "Bearer "+apiKey)
		}
		preview, err := client.UploadProject(ctx, sessionPlan.AppName, files)
		if err != nil {
			return false, err
		}
		fmt.Printf("Preview: %s\n", preview.PreviewURL)
		return false, nil

	case "/publish":
		token := config.GitHubToken()
		if token == "" {
			return false, fmt.Errorf("GITHUB_TOKEN is not set")
		}
		if cfg.GitHub.Owner == "" {
			return false, fmt.Errorf("github owner is not configured")
		}
		files, err := generate.Scaffold(sessionPlan)
		if err != nil {
			return false, err
		}
		publisher := github.NewPublisher(token, cfg.GitHub.Owner, github.WithLogger(logger))
		url, err := publisher.PublishProject(ctx, sessionPlan.AppName, "Generated demo application", files)
		if err != nil {
			return false, err
		}
		fmt.Printf("Published: %s\n", url)
		return false, nil

	case "/quit", "/exit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %s", command)
	}
}

func printPlan(p *plan.Plan) {
	fmt.Printf("Plan %s: %s (%s), %d spans\n", p.ID, p.AppName, p.Platform, len(p.Spans))
	for _, span := range p.Spans {
		fmt.Printf("  %s [%s] %s\n", span.Name, span.Layer, span.Description)
		for key, desc := range span.Attributes {
			fmt.Printf("    %s: %s\n", key, desc)
		}
		if len(span.PIIKeys) > 0 {
			fmt.Printf("    pii: %s\n", strings.Join(span.PIIKeys, ", "))
		}
	}
}

func writeFiles(dir string, files []generate.File) error {
	for _, file := range files {
		path := filepath.Join(dir, file.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(file.Content), 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
