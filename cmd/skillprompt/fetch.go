package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nidhogg/stratai/internal/skill"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	var (
		server    string
		workspace string
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Print the prompt a server composes for a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if workspace == "" {
				return fmt.Errorf("--workspace is required")
			}
			endpoint := strings.TrimRight(server, "/") + "/api/workspaces/" + url.PathEscape(workspace) + "/prompt"

			client := &http.Client{Timeout: 30 * time.Second}
			resp, err := client.Get(endpoint)
			if err != nil {
				return fmt.Errorf("fetch prompt: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var e map[string]string
				json.NewDecoder(resp.Body).Decode(&e)
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, e["error"])
			}

			var inj skill.Injection
			if err := json.NewDecoder(resp.Body).Decode(&inj); err != nil {
				return fmt.Errorf("decode prompt: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), inj.Prompt)
			printClassification(cmd, &inj)
			return nil
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "http://localhost:8080", "StratAI server URL")
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace ID")
	return cmd
}
