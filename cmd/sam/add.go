// ABOUTME: Add command for capturing a raw thought as a structured record.
// ABOUTME: Reads the thought from arguments, a file, stdin, or $EDITOR.

package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/harper/sam/internal/store"
	"github.com/harper/sam/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:     "add [thought...]",
	Aliases: []string{"capture"},
	Short:   "Capture a thought",
	Long: `Turn a raw thought into a structured note or task. The thought can be given
as arguments, via --file, piped on stdin, or written in $EDITOR.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fileFlag, _ := cmd.Flags().GetString("file")
		tagsFlag, _ := cmd.Flags().GetString("tags")

		var text string
		switch {
		case len(args) > 0:
			text = strings.Join(args, " ")
		case fileFlag != "":
			data, err := os.ReadFile(fileFlag) //nolint:gosec // User-specified file path is expected CLI behavior
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			text = string(data)
		case !isatty.IsTerminal(os.Stdin.Fd()):
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			text = string(data)
		default:
			var err error
			text, err = openEditor("")
			if err != nil {
				return fmt.Errorf("failed to open editor: %w", err)
			}
		}

		text = strings.TrimSpace(text)
		if text == "" {
			return fmt.Errorf("thought cannot be empty")
		}

		rec := samApp.Capture(cmd.Context(), text)

		if tagsFlag != "" {
			tags := append(rec.Tags, strings.Split(tagsFlag, ",")...)
			if _, err := samApp.Store.Update(rec.ID, store.Patch{Tags: &tags}); err != nil {
				return fmt.Errorf("failed to add tags: %w", err)
			}
		}

		fmt.Println(ui.Success(fmt.Sprintf("Captured %s %s %q", rec.Kind, ui.ShortID(rec.ID), rec.Title)))
		if rec.AIError != "" {
			fmt.Println(ui.Warning("Saved offline: " + rec.AIError))
		} else if !samApp.Inference.Configured() {
			fmt.Println(ui.Warning("GEMINI_API_KEY is not set; saved with local rules"))
		}
		return nil
	},
}

func openEditor(initial string) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}

	tmpFile, err := os.CreateTemp("", "sam-*.md")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = os.Remove(tmpFile.Name()) // Best-effort cleanup
	}()

	if initial != "" {
		if _, err := tmpFile.WriteString(initial); err != nil {
			_ = tmpFile.Close()
			return "", fmt.Errorf("failed to write initial content: %w", err)
		}
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	cmd := exec.Command(editor, tmpFile.Name()) //nolint:gosec // Launching $EDITOR is expected CLI behavior
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func init() {
	addCmd.Flags().String("file", "", "read the thought from a file")
	addCmd.Flags().String("tags", "", "comma-separated tags to add")
	rootCmd.AddCommand(addCmd)
}
