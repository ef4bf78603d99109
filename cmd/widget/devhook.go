package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/suPer8Hu/ai-widget/internal/ai"
	"github.com/suPer8Hu/ai-widget/internal/config"
	"github.com/suPer8Hu/ai-widget/internal/httpapi"
	"github.com/suPer8Hu/ai-widget/internal/httpapi/handlers"
	"github.com/suPer8Hu/ai-widget/internal/webhook"
)

func newDevhookCmd(a *app) *cobra.Command {
	var addr, responderName string

	cmd := &cobra.Command{
		Use:   "devhook",
		Short: "Serve a local webhook backend for widget turns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.DevhookAddr
			}
			if responderName != "" {
				a.cfg.DevhookResponder = responderName
			}
			responder, err := newResponder(a.cfg)
			if err != nil {
				return err
			}
			if !a.cfg.Debug {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           httpapi.NewRouter(responder, webhook.NewSigner(a.cfg.WebhookSecret, 0), a.logger),
				ReadHeaderTimeout: 5 * time.Second,
			}
			return serveHTTP(cmd.Context(), srv, a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default DEVHOOK_ADDR)")
	cmd.Flags().StringVar(&responderName, "responder", "", "echo, ollama or openrouter (default DEVHOOK_RESPONDER)")
	return cmd
}

func newResponder(cfg config.Config) (handlers.Responder, error) {
	switch cfg.DevhookResponder {
	case "", "echo":
		return handlers.EchoResponder{}, nil
	case "ollama":
		p := ai.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel)
		return ai.NewResponder(p, cfg.DevhookSystemPrompt, cfg.DevhookContext), nil
	case "openrouter":
		p := ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.OpenRouterModel,
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName)
		return ai.NewResponder(p, cfg.DevhookSystemPrompt, cfg.DevhookContext), nil
	default:
		return nil, errors.Errorf("unknown devhook responder: %s", cfg.DevhookResponder)
	}
}

func serveHTTP(ctx context.Context, srv *http.Server, a *app) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info().Str("addr", srv.Addr).Str("path", httpapi.ChatPath).Msg("devhook listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
