package chatbot

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"FantasyChat/internal/backend"
	"FantasyChat/internal/config"
	"FantasyChat/internal/navigator"
	"FantasyChat/internal/session"
	"FantasyChat/internal/telemetry"
	"FantasyChat/internal/ui"
)

// ChatBot represents the main application
type ChatBot struct {
	config config.Config
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter
	client *backend.Client
	nav    *navigator.Navigator

	closeLog       func() error
	closeTelemetry func()
}

// NewChatBot wires logging, telemetry, the backend client and the navigator
// from cfg. cfg must already be validated.
func NewChatBot(cfg config.Config) (*ChatBot, error) {
	opts, err := navigator.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure navigator: %w", err)
	}

	logger, closeLog, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tracer, meter, closeTelemetry, err := telemetry.InitTelemetry(context.Background(), cfg.LogDir, cfg.Telemetry)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}

	client := backend.NewClient(cfg.Endpoint, cfg.RequestTimeout.Duration,
		backend.WithLogger(logger),
		backend.WithTelemetry(tracer, meter),
	)

	logger.Info("chatbot initialized",
		"endpoint", cfg.Endpoint,
		"on_quit", cfg.OnQuit,
		"start_screen", cfg.StartScreen,
		"strict_navigation", cfg.StrictNavigation,
	)

	return &ChatBot{
		config:         cfg,
		logger:         logger,
		tracer:         tracer,
		meter:          meter,
		client:         client,
		nav:            navigator.New(opts, session.NewGenerator()),
		closeLog:       closeLog,
		closeTelemetry: closeTelemetry,
	}, nil
}

// Model returns a fresh UI model bound to this bot.
func (cb *ChatBot) Model() ui.Model {
	return ui.New(cb.nav, cb.client,
		ui.WithLogger(cb.logger),
		ui.WithRequestTimeout(cb.config.RequestTimeout.Duration),
	)
}

// Program builds the Bubble Tea program. opts are appended after the
// alt-screen default.
func (cb *ChatBot) Program(opts ...tea.ProgramOption) *tea.Program {
	all := append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return tea.NewProgram(cb.Model(), all...)
}

// Run starts the interactive UI and blocks until the user exits.
func (cb *ChatBot) Run(opts ...tea.ProgramOption) error {
	defer cb.Close()

	cb.logger.Info("starting ui")
	if _, err := cb.Program(opts...).Run(); err != nil {
		cb.logger.Error("ui exited with error", "error", err)
		return fmt.Errorf("failed to run ui: %w", err)
	}
	cb.logger.Info("ui stopped")
	return nil
}

// Probe sends the connection test request once.
func (cb *ChatBot) Probe(ctx context.Context) error {
	return cb.client.Probe(ctx)
}

// Endpoint returns the chat endpoint in use.
func (cb *ChatBot) Endpoint() string {
	return cb.client.Endpoint()
}

// Close flushes telemetry and closes the log file.
func (cb *ChatBot) Close() {
	if cb.closeTelemetry != nil {
		cb.closeTelemetry()
		cb.closeTelemetry = nil
	}
	if cb.closeLog != nil {
		if err := cb.closeLog(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
		cb.closeLog = nil
	}
}
