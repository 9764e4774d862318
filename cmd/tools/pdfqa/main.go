package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/pdf-qa/frontend/internal/config"
	"github.com/zhouzirui/pdf-qa/frontend/internal/model/persona"
	"github.com/zhouzirui/pdf-qa/frontend/internal/model/qa"
	"github.com/zhouzirui/pdf-qa/frontend/internal/service/backend"
	"github.com/zhouzirui/pdf-qa/frontend/internal/service/screen"
	"github.com/zhouzirui/pdf-qa/frontend/internal/tui"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env loaded, using system environment: %v", err)
	}

	mode := flag.String("mode", "tui", "run mode: tui or once")
	file := flag.String("file", "", "PDF to upload")
	question := flag.String("question", "", "question to ask (once mode)")
	personaID := flag.String("persona", "", "response persona: formal, friendly or skeptical")
	backendURL := flag.String("backend", "", "backend base URL, overrides PDFQA_BACKEND_URL")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout (once mode)")

	flag.Parse()

	if *backendURL != "" {
		os.Setenv("PDFQA_BACKEND_URL", *backendURL)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personas := persona.NewMemoryStore(persona.Seed())
	client := backend.NewClient(cfg.Backend)
	sc := screen.New("cli", client, personas, cfg.Screen.DefaultPersona)

	if *personaID != "" {
		if err := sc.SelectPersona(*personaID); err != nil {
			log.Fatalf("unknown persona %q", *personaID)
		}
	}

	switch *mode {
	case "tui":
		runTUI(sc, personas, client, *file)
	case "once":
		runOnce(sc, *file, *question, *timeout)
	default:
		flag.Usage()
		log.Fatal("use -mode=tui or -mode=once")
	}
}

func runTUI(sc *screen.Screen, personas persona.Store, client *backend.Client, file string) {
	// Keep backend logs from tearing the alt screen.
	log.SetOutput(io.Discard)

	m := tui.NewModel(sc, personas, client)
	if file != "" {
		m.SetFile(file)
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runOnce(sc *screen.Screen, file, question string, timeout time.Duration) {
	if file == "" || question == "" {
		log.Fatal("once mode needs -file and -question")
	}

	data, err := os.ReadFile(file)
	if err != nil {
		log.Fatalf("failed to read %s: %v", file, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sc.UploadFile(ctx, qa.File{Name: filepath.Base(file), Data: data}); err != nil {
		log.Fatalf("upload failed: %s", sc.View().Error)
	}
	view := sc.View()
	log.Printf("processed %s (session=%s)", view.Filename, view.SessionID)

	sc.SetQuestion(question)
	if err := sc.Ask(ctx); err != nil {
		log.Fatalf("ask failed: %s", sc.View().Error)
	}

	fmt.Println(sc.View().Answer)
}
