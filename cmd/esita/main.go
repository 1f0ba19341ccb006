package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/esita/esita/pkg/chat"
	"github.com/esita/esita/pkg/config"
	"github.com/esita/esita/pkg/gateway"
	"github.com/esita/esita/pkg/logger"
	"github.com/esita/esita/pkg/web"
)

const version = "1.0.0"

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "esita",
		Short: "Esita chat assistant",
		Long:  "Esita serves a browser chat widget and the chat backend it talks to.",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to config file")

	root.AddCommand(widgetCmd(), gatewayCmd(), initCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	// .env is optional; real environment always wins.
	godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger.Init(cfg.Log.Level)
	return cfg, nil
}

func widgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "widget",
		Short: "Serve the chat widget UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store := chat.NewStore()
			store.Append(chat.RoleAssistant, cfg.Chat.Greeting)

			client := chat.NewClient(cfg.Chat.APIBase,
				cfg.Chat.RequestTimeoutDuration(), cfg.Chat.HealthTimeoutDuration())
			controller := chat.NewController(store, client,
				cfg.Chat.BotName, cfg.Chat.CreatorName, cfg.Chat.HistoryWindow)

			// Startup health probe, independent of the send lifecycle.
			go controller.Probe(ctx)

			server := web.NewServer(cfg.Widget, controller, store)
			if err := server.Start(ctx); err != nil {
				return err
			}

			logger.InfoCF("main", "Widget ready", map[string]interface{}{
				"api_base": cfg.Chat.APIBase,
			})

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Stop(shutdownCtx)
		},
	}
}

func gatewayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Serve the Esita chat backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var replier gateway.Replier
			if cfg.Gateway.GeminiAPIKey != "" {
				g, err := gateway.NewGeminiReplier(ctx, cfg.Gateway.GeminiAPIKey, cfg.Gateway.Model)
				if err != nil {
					return err
				}
				defer g.Close()
				replier = g
			} else {
				logger.WarnCF("main", "GEMINI_API_KEY not set, gateway will answer with a setup hint", nil)
			}

			server := gateway.NewServer(cfg.Gateway, replier)
			if err := server.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Stop(shutdownCtx)
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists", configPath)
			}
			if err := config.SaveConfig(configPath, config.DefaultConfig()); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Println("Wrote " + configPath)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("esita " + version)
		},
	}
}
