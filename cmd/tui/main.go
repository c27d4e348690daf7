package main

import (
	"fmt"
	"io"
	"os"

	"photoedit/config"
	"photoedit/internal/clients/editservice"
	"photoedit/internal/editor"
	"photoedit/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	backendURL string
	outputDir  string
	imagePath  string
	prompt     string
)

var rootCmd = &cobra.Command{
	Use:           "photoedit-tui",
	Short:         "Edit a photo with a natural-language instruction from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if backendURL != "" {
			cfg.Backend.URL = backendURL
		}
		if outputDir != "" {
			cfg.Tui.OutputDir = outputDir
		}
		cfg.Normalize()

		// the terminal belongs to the program; logs only go to a file
		log.SetOutput(io.Discard)
		if os.Getenv("DEBUG") != "" {
			f, err := tea.LogToFile("debug.log", "debug")
			if err != nil {
				return fmt.Errorf("open debug log: %w", err)
			}
			defer f.Close()
			log.SetOutput(f)
			log.SetLevel(log.DebugLevel)
		}

		client := editservice.NewClient(cfg.Backend)
		ed := editor.New(client, nil)
		defer ed.Close()

		m := tui.New(ed, tui.Options{
			Backend:   client.BaseURL(),
			OutputDir: cfg.Tui.OutputDir,
			ImagePath: imagePath,
			Prompt:    prompt,
		})

		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("run editor: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to the yaml config")
	rootCmd.Flags().StringVarP(&backendURL, "backend", "b", "", "image-editing service base URL (overrides config and BACKEND_URL)")
	rootCmd.Flags().StringVarP(&outputDir, "out", "o", "", "folder the edited image is saved to")
	rootCmd.Flags().StringVarP(&imagePath, "image", "i", "", "image to select on start")
	rootCmd.Flags().StringVarP(&prompt, "prompt", "p", "", "editing instruction to start with")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
