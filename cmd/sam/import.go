// ABOUTME: Import command for restoring records from backup.
// ABOUTME: Supports the JSON export document and markdown files; imports always get new ids.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/sam/internal/models"
	"github.com/harper/sam/internal/store"
	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import records",
	Long: `Import records from a JSON export or a directory of markdown files.
Imported records are added alongside existing ones under new ids.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat path: %w", err)
		}

		var doc *store.Document
		switch {
		case info.IsDir():
			doc, err = readMarkdownDir(path)
		case strings.HasSuffix(path, ".md"):
			var d *store.RecordData
			d, err = readMarkdownFile(path)
			doc = &store.Document{Notes: []*store.RecordData{d}}
		default:
			doc, err = readJSON(path)
		}
		if err != nil {
			return err
		}

		imported, err := samApp.Store.Import(doc)
		if err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Imported %d records", len(imported))))
		return nil
	},
}

func readJSON(path string) (*store.Document, error) {
	f, err := os.Open(path) //nolint:gosec // User-specified file path is expected CLI behavior
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return store.ReadDocument(f)
}

func readMarkdownDir(dir string) (*store.Document, error) {
	doc := &store.Document{Notes: []*store.RecordData{}}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		d, err := readMarkdownFile(path)
		if err != nil {
			logger.Warn("skipping markdown file", "path", path, "err", err)
			return nil
		}
		doc.Notes = append(doc.Notes, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func readMarkdownFile(path string) (*store.RecordData, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-specified file path is expected CLI behavior
	if err != nil {
		return nil, err
	}
	return parseMarkdownRecord(string(data), strings.TrimSuffix(filepath.Base(path), ".md"))
}

// parseMarkdownRecord reads optional YAML frontmatter plus a body. Files without
// frontmatter become notes titled fallbackTitle.
func parseMarkdownRecord(content, fallbackTitle string) (*store.RecordData, error) {
	d := &store.RecordData{}

	if strings.HasPrefix(content, "---\n") {
		parts := strings.SplitN(content, "---\n", 3)
		if len(parts) >= 3 {
			if err := yaml.Unmarshal([]byte(parts[1]), d); err == nil {
				content = parts[2]
			}
		}
	}

	d.Body = strings.TrimSpace(content)
	if d.Body == "" && len(d.Items) == 0 {
		return nil, fmt.Errorf("record content cannot be empty")
	}
	if d.Title == "" {
		d.Title = fallbackTitle
	}
	if !d.Type.Valid() {
		d.Type = models.KindNote
	}
	if d.Timestamp == 0 {
		d.Timestamp = time.Now().UnixMilli()
	}
	return d, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
}
