package cmd

import (
	"fmt"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/internal/mcp"
	"github.com/huangsam/patrolq/internal/tracking"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [input-csv]",
	Short: "Start the patrolq MCP server",
	Long:  `Launch an MCP server that lets AI agents read clustering results and trigger pipeline runs via standard tools.`,
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(_ *cobra.Command, args []string) error {
		// The input dataset is optional here since run_pipeline can name it.
		// Stdout carries the protocol, so nothing is printed during setup.
		if err := readConfig(args); err != nil {
			return err
		}
		if err := contract.ProcessServerConfig(cfg, input); err != nil {
			return err
		}
		if err := tracking.InitTracking(cfg.TrackingBackend, cfg.TrackingDBConnect, cfg.Influx, cfg.Kafka); err != nil {
			return fmt.Errorf("failed to initialize tracking: %w", err)
		}
		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, trackingManager)
	},
}
