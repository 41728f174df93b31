// ABOUTME: Export command for backing up records.
// ABOUTME: Supports the JSON export document and markdown files with YAML frontmatter.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/sam/internal/store"
	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records",
	Long:  `Export records to a JSON document or a directory of markdown files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outputPath, _ := cmd.Flags().GetString("output")
		recordPrefix, _ := cmd.Flags().GetString("record")

		doc := samApp.Store.Export()
		if recordPrefix != "" {
			rec, err := samApp.Store.Resolve(recordPrefix)
			if err != nil {
				return fmt.Errorf("failed to get record: %w", err)
			}
			doc.Notes = []*store.RecordData{store.FromModel(rec)}
		}

		switch format {
		case "json":
			return exportJSON(doc, outputPath)
		case "md":
			return exportMarkdown(doc, outputPath)
		default:
			return fmt.Errorf("unknown format: %s", format)
		}
	},
}

func exportJSON(doc *store.Document, outputPath string) error {
	if outputPath == "" || outputPath == "-" {
		return store.WriteDocument(os.Stdout, doc)
	}

	f, err := os.Create(outputPath) //nolint:gosec // User-specified file path is expected CLI behavior
	if err != nil {
		return err
	}
	if err := store.WriteDocument(f, doc); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, ui.Success(fmt.Sprintf("Exported %d records to %s", len(doc.Notes), outputPath)))
	return nil
}

// markdownRecord renders a record as YAML frontmatter followed by its body.
func markdownRecord(d *store.RecordData) ([]byte, error) {
	frontmatter, err := yaml.Marshal(d)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(frontmatter)
	sb.WriteString("---\n\n")
	sb.WriteString(d.Body)
	if !strings.HasSuffix(d.Body, "\n") {
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}

func exportMarkdown(doc *store.Document, outputDir string) error {
	if outputDir == "" {
		outputDir = "export"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for _, d := range doc.Notes {
		data, err := markdownRecord(d)
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", d.Title, err)
		}

		filename := sanitizeFilename(d.Title) + "-" + ui.ShortID(d.ID) + ".md"
		if err := os.WriteFile(filepath.Join(outputDir, filename), data, 0644); err != nil {
			return err
		}
	}

	fmt.Println(ui.Success(fmt.Sprintf("Exported %d records to %s", len(doc.Notes), outputDir)))
	return nil
}

func sanitizeFilename(name string) string {
	// Replace unsafe characters
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-", "|", "-",
	)
	name = replacer.Replace(name)
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

func init() {
	exportCmd.Flags().StringP("format", "f", "json", "export format (json|md)")
	exportCmd.Flags().StringP("output", "o", "", "output path")
	exportCmd.Flags().StringP("record", "r", "", "single record ID to export")
	rootCmd.AddCommand(exportCmd)
}
