// Command chat is the terminal interface to the Light RAG backend.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/0xcro3dile/lightrag-go/internal/adapters/api"
	"github.com/0xcro3dile/lightrag-go/internal/domain/session"
	"github.com/0xcro3dile/lightrag-go/internal/infrastructure/config"
	"github.com/0xcro3dile/lightrag-go/internal/infrastructure/tui"
)

func main() {
	// The alternate screen owns stdout; anything logged before the log
	// file is open would corrupt it.
	log.SetOutput(io.Discard)

	cfg, err := config.LoadClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logFile, err := tea.LogToFile(cfg.LogFile, "chat")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	backend := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	sess := session.New(backend)
	model := tui.New(sess, backend, tui.Options{RequestTimeout: cfg.RequestTimeout})

	log.Printf("[INFO] Chat client connecting to %s", cfg.APIBaseURL)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running chat: %v\n", err)
		os.Exit(1)
	}
}
