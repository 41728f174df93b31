// ABOUTME: Sync command for the charm storage backend.
// ABOUTME: Provides manual sync, status, link, unlink, and local reset.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/harper/sam/internal/charm"
	"github.com/harper/sam/internal/ui"
	"github.com/spf13/cobra"
)

var errNotCharm = errors.New(`sync needs the charm backend (set storage.backend: charm)`)

func charmClient() (*charm.Client, error) {
	c, ok := samApp.Charm()
	if !ok {
		return nil, errNotCharm
	}
	return c, nil
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync records with the charm cloud",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := charmClient()
		if err != nil {
			return err
		}
		if err := c.Sync(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		if err := samApp.Store.Load(); err != nil {
			return fmt.Errorf("failed to reload records: %w", err)
		}
		fmt.Println(ui.Success(fmt.Sprintf("Synced %d records", samApp.Store.Len())))
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the linked charm account and last sync time",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := charmClient()
		if err != nil {
			return err
		}

		user, err := c.User()
		if err != nil {
			return fmt.Errorf("failed to get charm user: %w", err)
		}
		fmt.Printf("Charm ID:  %s\n", user.CharmID)
		if user.Name != "" {
			fmt.Printf("Name:      %s\n", user.Name)
		}

		last := c.LastSyncTime()
		if last.IsZero() {
			fmt.Println("Last sync: never")
		} else {
			fmt.Printf("Last sync: %s\n", last.Format("2006-01-02 15:04:05"))
		}
		if c.IsStale() {
			fmt.Println(ui.Warning("Local data is stale; run \"sam sync\""))
		}
		return nil
	},
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Connect this device to Charm cloud",
	Long:  `Charm uses SSH key authentication; linking creates or reuses this machine's key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := charmClient()
		if err != nil {
			return err
		}
		if err := c.Link(); err != nil {
			return fmt.Errorf("link failed: %w", err)
		}
		fmt.Println(ui.Success("Linked to Charm cloud"))
		return nil
	},
}

var syncUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Disconnect this device and drop its local copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := charmClient()
		if err != nil {
			return err
		}
		if err := c.Unlink(); err != nil {
			return fmt.Errorf("unlink failed: %w", err)
		}
		fmt.Println(ui.Success("Unlinked from Charm cloud"))
		return nil
	},
}

var syncResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all local charm data",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		c, err := charmClient()
		if err != nil {
			return err
		}

		if !force {
			fmt.Print("Delete all local records and history? Synced copies are kept. [y/N] ")
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := c.Reset(); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		fmt.Println(ui.Success("Local charm data reset"))
		return nil
	},
}

func init() {
	syncResetCmd.Flags().BoolP("force", "f", false, "skip confirmation")
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncLinkCmd)
	syncCmd.AddCommand(syncUnlinkCmd)
	syncCmd.AddCommand(syncResetCmd)
	rootCmd.AddCommand(syncCmd)
}
