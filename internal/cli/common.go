package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/xingkaijun/modernnav/client/api"
	"github.com/xingkaijun/modernnav/client/localstore"
	"github.com/xingkaijun/modernnav/client/syncer"
	"github.com/xingkaijun/modernnav/internal/config"
)

// app bundles everything a command needs: the authenticated API client and
// the sync engine over the durable local store.
type app struct {
	config config.Config
	client *api.Client
	engine *syncer.Engine
}

func newApp() (*app, error) {
	_ = godotenv.Load()

	c := config.New()
	log := newLogger()

	store, err := localstore.OpenFile(c.GetStateDir())
	if err != nil {
		return nil, err
	}

	client, err := api.New(c.GetServerURL(), store, log)
	if err != nil {
		return nil, err
	}

	engine := syncer.New(client, store, log)
	engine.SubscribeNotifications(func(n syncer.Notification) {
		if n.Level == "error" {
			PrintWarning(n.Message)
		}
	})

	return &app{config: c, client: client, engine: engine}, nil
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// promptLine reads one line from stdin after printing a prompt.
func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
