// ABOUTME: Attach command for adding images to records.
// ABOUTME: Provides add and get subcommands for image files.

package main

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/harper/sam/internal/models"
	"github.com/harper/sam/internal/store"
	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach <id-prefix> <image>",
	Short: "Attach an image to a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := samApp.Store.Resolve(args[0])
		if err != nil {
			return fmt.Errorf("failed to get record: %w", err)
		}

		data, err := os.ReadFile(args[1]) //nolint:gosec // User-specified file path is expected CLI behavior
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		mimeType := mime.TypeByExtension(filepath.Ext(args[1]))
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		if !strings.HasPrefix(mimeType, "image/") {
			return fmt.Errorf("%s is not an image (%s)", args[1], mimeType)
		}

		atts := append(rec.Attachments, models.NewAttachment(mimeType, data))
		if _, err := samApp.Store.Update(rec.ID, store.Patch{Attachments: &atts}); err != nil {
			return fmt.Errorf("failed to attach image: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Attached image %d to record %s", len(atts)-1, ui.ShortID(rec.ID))))
		return nil
	},
}

var attachGetCmd = &cobra.Command{
	Use:   "get <id-prefix> <image-index>",
	Short: "Extract an attached image to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath, _ := cmd.Flags().GetString("output")

		rec, err := samApp.Store.Resolve(args[0])
		if err != nil {
			return fmt.Errorf("failed to get record: %w", err)
		}
		index, err := strconv.Atoi(args[1])
		if err != nil || index < 0 || index >= len(rec.Attachments) {
			return fmt.Errorf("record %s has no image %q", ui.ShortID(rec.ID), args[1])
		}
		att := rec.Attachments[index]

		if outputPath == "" {
			ext := ".bin"
			if exts, _ := mime.ExtensionsByType(att.MimeType); len(exts) > 0 {
				ext = exts[0]
			}
			outputPath = ui.ShortID(att.ID) + ext
		}

		if outputPath == "-" {
			_, err = io.Copy(os.Stdout, bytes.NewReader(att.Data))
			return err
		}

		if err := os.WriteFile(outputPath, att.Data, 0600); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Extracted image %d to %s", index, outputPath)))
		return nil
	},
}

func init() {
	attachGetCmd.Flags().StringP("output", "o", "", "output path (default: <image-id><ext>)")
	attachCmd.AddCommand(attachGetCmd)
	rootCmd.AddCommand(attachCmd)
}
