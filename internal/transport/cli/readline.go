package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/sandevgo/shopclerk/internal/config"
	"github.com/sandevgo/shopclerk/internal/core"
	"github.com/sandevgo/shopclerk/internal/service/agent"
	"github.com/sandevgo/shopclerk/pkg/log"
)

const defaultConversationID = "cli-local"

type ReadLine struct {
	cfg   *config.AppConfig
	agent *agent.Orchestrator
	rl    *readline.Instance
}

func NewReadLine(orchestrator *agent.Orchestrator, cfg *config.AppConfig) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:   cfg,
		agent: orchestrator,
		rl:    rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("ReadLine chat started. Type 'exit' to quit, '/reset' to clear the conversation.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}
		if line == "/reset" {
			r.agent.ClearConversation(defaultConversationID)
			fmt.Fprintln(r.rl.Stdout(), "Conversation cleared.")
			continue
		}

		resp, err := r.agent.ProcessRequest(ctx, core.Request{
			Message:        line,
			ConversationID: defaultConversationID,
		})
		if err != nil {
			logger.Error().Err(err).Msg("request failed")
			fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
			continue
		}

		fmt.Fprintf(r.rl.Stdout(), "%s\n", resp.Message)
		if len(resp.Suggestions) > 0 {
			fmt.Fprintf(r.rl.Stdout(), "\033[38;5;240mTry: %s\033[0m\n", strings.Join(resp.Suggestions, " | "))
		}
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
