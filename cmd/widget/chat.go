package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/suPer8Hu/ai-widget/internal/history"
	"github.com/suPer8Hu/ai-widget/internal/identity"
	"github.com/suPer8Hu/ai-widget/internal/webhook"
	"github.com/suPer8Hu/ai-widget/internal/widget"
)

const chatHelp = `/open /close   show or hide the chat
/quick N       send quick reply N
/reset         start a new conversation
/quit          exit`

func newChatCmd(a *app) *cobra.Command {
	var startClosed bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run the chat widget in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			logger := a.logger

			var cl closers
			defer cl.close()

			store, err := openStorage(ctx, cfg, logger, &cl)
			if err != nil {
				return err
			}
			sink, err := openEvents(cfg, logger, &cl)
			if err != nil {
				logger.Warn().Err(err).Str("events", cfg.EventsBackend).Msg("turn events disabled")
				sink = nil
			}

			dispatcher := webhook.New(webhook.Options{
				URL:     cfg.WebhookURL,
				Timeout: cfg.RequestTimeout,
				Signer:  webhook.NewSigner(cfg.WebhookSecret, 0),
				Logger:  logger,
			})

			out := cmd.OutOrStdout()
			c, err := widget.New(ctx, widget.Config{
				WelcomeMessage:         cfg.WelcomeMessage,
				ErrorMessage:           cfg.ErrorMessage,
				QuickReplies:           cfg.QuickReplies,
				SessionStorageKey:      cfg.SessionStorageKey,
				ConversationStorageKey: cfg.ConversationStorageKey,
			}, widget.Deps{
				Identity:   identity.NewStore(store, logger),
				History:    history.NewStore(store, cfg.HistoryLimit, logger),
				Dispatcher: dispatcher,
				View:       newTerminalView(out, ""),
				Events:     sink,
				Logger:     logger,
			})
			if err != nil {
				return errors.Wrap(err, "init widget")
			}
			if !startClosed {
				c.Toggle()
			}

			return repl(ctx, c, cmd.InOrStdin(), out)
		},
	}
	cmd.Flags().BoolVar(&startClosed, "closed", false, "start with the chat hidden")
	return cmd
}

// controller is the part of widget.Controller the terminal loop drives.
type controller interface {
	Submit(ctx context.Context, text string) error
	QuickReply(ctx context.Context, i int) error
	Toggle() widget.Visibility
	State() widget.State
	Reset(ctx context.Context) error
}

func repl(ctx context.Context, c controller, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := handleLine(ctx, c, line, out)
			if err != nil {
				fmt.Fprintln(out, err)
			}
			if quit {
				return nil
			}
		}
	}
}

func handleLine(ctx context.Context, c controller, line string, out io.Writer) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(out, chatHelp)
	case "/open":
		if c.State().Visibility() != widget.Open {
			c.Toggle()
		}
	case "/close":
		if c.State().Visibility() != widget.Closed {
			c.Toggle()
		}
	case "/reset":
		return false, c.Reset(ctx)
	case "/quick":
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return false, errors.Errorf("usage: /quick N")
		}
		return false, c.QuickReply(ctx, n-1)
	default:
		return false, c.Submit(ctx, line)
	}
	return false, nil
}
