// ABOUTME: Remove command for deleting records.
// ABOUTME: Includes confirmation prompt before deletion.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id-prefix>",
	Short: "Remove a record",
	Long:  `Delete a record along with its reminder and images.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		rec, err := samApp.Store.Resolve(args[0])
		if err != nil {
			return fmt.Errorf("failed to get record: %w", err)
		}

		if !force {
			fmt.Printf("Delete %s %q (%s)? [y/N] ", rec.Kind, rec.Title, ui.ShortID(rec.ID))
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := samApp.Store.Delete(rec.ID); err != nil {
			return fmt.Errorf("failed to delete record: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Deleted record %s", ui.ShortID(rec.ID))))
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolP("force", "f", false, "skip confirmation")
	rootCmd.AddCommand(rmCmd)
}
