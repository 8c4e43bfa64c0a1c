package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"FantasyChat/internal/chatbot"
	"FantasyChat/internal/config"
	"FantasyChat/internal/formatter"
)

const probeTimeout = 10 * time.Second

type rootOptions struct {
	configPath    string
	endpoint      string
	leagueID      string
	vectorStoreID string
	onQuit        string
	startScreen   string
	strict        bool
	noProbe       bool
	debug         bool
}

func newRootCommand() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "fantasychat",
		Short:         "Terminal chat client for the fantasy basketball assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}

			bot, err := chatbot.NewChatBot(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize chatbot: %w", err)
			}
			return bot.Run()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", config.DefaultPath(), "Path to the TOML config file")
	flags.StringVar(&o.endpoint, "endpoint", config.DefaultEndpoint, "Chat endpoint URL")
	flags.StringVar(&o.leagueID, "league-id", "", "League identifier sent with every message")
	flags.StringVar(&o.vectorStoreID, "vector-store-id", "", "Vector store identifier sent with every message")
	flags.StringVar(&o.onQuit, "on-quit", config.QuitReturnToChooser, "Where to go after a session ends (new_session|return_to_chooser)")
	flags.StringVar(&o.startScreen, "start-screen", config.StartInitial, "Screen shown on startup (initial|chat)")
	flags.BoolVar(&o.strict, "strict-navigation", false, "Ignore navigation while a message is in flight")
	flags.BoolVar(&o.noProbe, "no-probe", false, "Skip the connection test on startup")
	flags.BoolVar(&o.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newFormatCommand(), newProbeCommand(o))
	return cmd
}

// load resolves the configuration: defaults, file, .env and environment,
// then any flag the user set explicitly.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config.Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	o.apply(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("endpoint") {
		cfg.Endpoint = o.endpoint
	}
	if changed("league-id") {
		cfg.LeagueID = o.leagueID
	}
	if changed("vector-store-id") {
		cfg.VectorStoreID = o.vectorStoreID
	}
	if changed("on-quit") {
		cfg.OnQuit = o.onQuit
	}
	if changed("start-screen") {
		cfg.StartScreen = o.startScreen
	}
	if changed("strict-navigation") {
		cfg.StrictNavigation = o.strict
	}
	if changed("no-probe") {
		cfg.ProbeOnStart = !o.noProbe
	}
	if changed("debug") {
		cfg.Debug = o.debug
	}
}

func newFormatCommand() *cobra.Command {
	var blocks bool

	cmd := &cobra.Command{
		Use:   "format [text...]",
		Short: "Format a response as the chat window would and print the markup",
		Long: "Reads the response from the arguments, or from stdin when none are given, " +
			"and prints the HTML fragment. With --blocks the parsed block tree is printed instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
				raw = strings.TrimRight(string(data), "\r\n")
			}

			out := cmd.OutOrStdout()
			if blocks {
				fmt.Fprint(out, formatter.Outline(formatter.Blocks(raw)))
				return nil
			}
			fmt.Fprintln(out, formatter.Format(raw))
			return nil
		},
	}

	cmd.Flags().BoolVar(&blocks, "blocks", false, "Print the block tree instead of markup")
	return cmd
}

func newProbeCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Send a test message to the chat endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}

			bot, err := chatbot.NewChatBot(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize chatbot: %w", err)
			}
			defer bot.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
			defer cancel()
			if err := bot.Probe(ctx); err != nil {
				return fmt.Errorf("cannot connect to API at %s: %w", bot.Endpoint(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected to API at %s\n", bot.Endpoint())
			return nil
		},
	}
}
