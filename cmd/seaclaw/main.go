// Command seaclaw is the agent runtime's entry point (spec.md C1–C9): it
// wires configuration, the provider adapter, the tool registry, and
// whichever front ends are enabled — interactive terminal, one-shot
// query, Telegram bot, WebSocket gateway, and the cron scheduler — into
// one running process.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haeli05/seaclaw/internal/agent"
	"github.com/haeli05/seaclaw/internal/channels/telegram"
	"github.com/haeli05/seaclaw/internal/config"
	"github.com/haeli05/seaclaw/internal/cron"
	"github.com/haeli05/seaclaw/internal/httpclient"
	"github.com/haeli05/seaclaw/internal/promptbuilder"
	"github.com/haeli05/seaclaw/internal/providers"
	"github.com/haeli05/seaclaw/internal/sessions"
	"github.com/haeli05/seaclaw/internal/tools"
	"github.com/haeli05/seaclaw/internal/wsserver"
)

const version = "0.1.0"

var (
	flagConfig      string
	flagWorkspace   string
	flagModel       string
	flagTelegram    bool
	flagGatewayPort int
)

func main() {
	root := &cobra.Command{
		Use:     "seaclaw [prompt]",
		Short:   "seaclaw — a minimal, self-hosted LLM-assistant runtime",
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		RunE:    run,
	}
	root.Flags().StringVar(&flagConfig, "config", "", "config file path")
	root.Flags().StringVar(&flagWorkspace, "workspace", "", "workspace directory")
	root.Flags().StringVar(&flagModel, "model", "", "override model")
	root.Flags().BoolVar(&flagTelegram, "telegram", false, "start the Telegram bot")
	root.Flags().IntVar(&flagGatewayPort, "gateway-port", 0, "WebSocket gateway port override")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Defaults()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if flagConfig != "" {
		if err := config.Load(&cfg, flagConfig, log); err != nil {
			log.Warn("config load failed", "error", err)
		}
	} else if path := config.DefaultPath(); path != "" {
		config.Load(&cfg, path, log) // best-effort; absence is not an error
	}
	config.LoadEnv(&cfg)

	if flagWorkspace != "" {
		cfg.Workspace = flagWorkspace
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagGatewayPort != 0 {
		cfg.GatewayPort = flagGatewayPort
	}
	if cfg.Workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve cwd: %w", err)
		}
		cfg.Workspace = wd
	}

	log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: no API key. Set ANTHROPIC_API_KEY or SEACLAW_API_KEY.")
		os.Exit(1)
	}

	systemPrompt := promptbuilder.Build(cfg.Workspace, cfg.Model)
	registry := tools.NewRegistry(cfg.Workspace)
	httpClient := httpclient.New()
	provider := providers.New(cfg.Provider, httpClient)

	a := &agent.Agent{
		Provider:     provider,
		Tools:        registry,
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		SystemPrompt: systemPrompt,
		Temperature:  cfg.Temperature,
		Log:          log,
	}

	config.Summary(cfg, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	scheduler := cron.NewScheduler(log)
	g.Go(func() error {
		scheduler.Run(gctx)
		return nil
	})

	var wsServer *wsserver.Server
	if cfg.GatewayPort > 0 {
		wsServer = &wsserver.Server{
			Port:      cfg.GatewayPort,
			AuthToken: cfg.GatewayToken,
			Log:       log,
			OnMessage: func(c *wsserver.Conn, payload []byte) bool {
				sessionID := fmt.Sprintf("ws_%s", c.ID())
				session, err := sessions.New(cfg.Workspace, sessionID)
				if err != nil {
					log.Error("ws session load failed", "error", err)
					return true
				}
				reply, err := a.Turn(gctx, session, string(payload), false, nil)
				if err != nil {
					log.Error("ws turn failed", "error", err)
					return true
				}
				if reply != "" {
					c.Send(reply)
				}
				return true
			},
		}
		g.Go(func() error {
			return wsServer.ListenAndServe(gctx)
		})
		log.Info("WebSocket gateway starting", "port", cfg.GatewayPort)
	}

	switch {
	case flagTelegram:
		if cfg.TelegramToken == "" {
			fmt.Fprintln(os.Stderr, "Error: no Telegram token. Set SEACLAW_TELEGRAM_TOKEN.")
			os.Exit(1)
		}
		bot := &telegram.Bot{
			HTTP:    httpClient,
			Token:    cfg.TelegramToken,
			Allowed: cfg.TelegramAllowed,
			Log:     log,
		}
		g.Go(func() error {
			bot.Run(gctx, func(ctx context.Context, msg telegram.Message) string {
				session, err := sessions.New(cfg.Workspace, telegram.SessionID(msg.ChatID))
				if err != nil {
					log.Error("telegram session load failed", "error", err)
					return ""
				}
				reply, err := a.Turn(ctx, session, msg.Text, false, nil)
				if err != nil {
					log.Error("telegram turn failed", "error", err)
					return ""
				}
				return reply
			})
			return nil
		})
		return g.Wait()

	case len(args) == 1:
		session, err := sessions.New(cfg.Workspace, "")
		if err != nil {
			return err
		}
		_, err = a.Turn(ctx, session, args[0], true, stdoutDelta)
		fmt.Println()
		return err

	default:
		return cliMode(ctx, a, cfg.Workspace)
	}
}

func stdoutDelta(text string) bool {
	fmt.Print(text)
	return true
}

// cliMode is the interactive REPL front end (spec.md §4.2's terminal
// front end): one persistent "cli" session, streamed replies, /quit to
// exit.
func cliMode(ctx context.Context, a *agent.Agent, workspace string) error {
	session, err := sessions.New(workspace, "cli")
	if err != nil {
		return err
	}

	fmt.Printf("seaclaw v%s — type /quit to exit\n\n", version)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\033[1;36myou>\033[0m ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			break
		}

		fmt.Print("\033[1;33mseaclaw>\033[0m ")
		if _, err := a.Turn(ctx, session, input, true, stdoutDelta); err != nil {
			fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
		}
		fmt.Print("\n\n")
	}
	return nil
}
