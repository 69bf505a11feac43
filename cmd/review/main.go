package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/screensync/backend/bootstrap"
	"github.com/screensync/backend/conf"
	"github.com/screensync/backend/logger"
)

func main() {
	serverUrl := flag.String("server", "", "read submissions from a running server, e.g. http://localhost:8080")
	timeout := flag.Duration("timeout", 15*time.Second, "listing request timeout")
	flag.Parse()

	// the terminal belongs to the ui, logs go to stderr at warn and above
	slog.SetDefault(logger.New("warn", "text"))

	if err := run(*serverUrl, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(serverUrl string, timeout time.Duration) error {
	var load loadFunc
	if serverUrl != "" {
		load = httpSource(&http.Client{Timeout: timeout}, serverUrl)
	} else {
		cfg, err := conf.Load()
		if err != nil {
			return err
		}
		ctx := context.Background()
		deps, err := bootstrap.NewDeps(ctx, cfg, slog.Default())
		if err != nil {
			return err
		}
		defer deps.Close(ctx)
		load = deps.Lister.List
	}

	_, err := tea.NewProgram(newModel(load, timeout)).Run()
	return err
}
