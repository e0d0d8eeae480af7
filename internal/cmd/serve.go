package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/noot-app/food-risk-scanner/internal/auth"
	"github.com/noot-app/food-risk-scanner/internal/config"
	"github.com/noot-app/food-risk-scanner/internal/mcpgo"
	"github.com/noot-app/food-risk-scanner/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewLogger(config.LogModeServer)
			cfg := config.Load()

			if !cfg.IsDevelopment() {
				gin.SetMode(gin.ReleaseMode)
			}

			logger.Info("🌐 Starting Food Risk Scanner API",
				"mode", "http",
				"port", cfg.Port,
				"auth", cfg.APIToken != "",
				"cors_origins", cfg.CORSAllowedOrigins)

			scn, err := server.NewInitializer(cfg, logger).Initialize(cmd.Context())
			if err != nil {
				logger.Error("Failed to initialize scanner", "error", err)
				return err
			}

			return server.New(cfg, scn, logger).Start(cmd.Context())
		},
	}
}

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the scanner as MCP tools",
		Long: `Serve the scanner as MCP tools: search_food, analyze_food,
top_healthy_foods and list_categories.

HTTP mode (default) exposes /mcp behind a Bearer token (AUTH_TOKEN) and an
unauthenticated /health. STDIO mode (--stdio) is for local clients and
needs no authentication.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdio, _ := cmd.Flags().GetBool("stdio")

			mode := config.LogModeServer
			if stdio {
				// stdout carries the MCP protocol
				mode = config.LogModeInteractive
			}
			logger := config.NewLogger(mode)
			cfg := config.Load()

			scn, err := server.NewInitializer(cfg, logger).Initialize(cmd.Context())
			if err != nil {
				logger.Error("Failed to initialize scanner", "error", err)
				return err
			}

			mcpSrv := mcpgo.NewServer(scn, auth.NewBearerTokenAuth(cfg.AuthToken), logger)

			if stdio {
				logger.Info("🔌 Starting MCP server in STDIO mode",
					"mode", "stdio",
					"auth", "not required for stdio mode",
					"transport", "stdio pipes")
				return mcpSrv.ServeStdio()
			}

			logger.Info("🌐 Starting MCP server in HTTP mode",
				"mode", "http",
				"auth", "Bearer token required (except /health endpoint)",
				"transport", "HTTP/JSON-RPC 2.0",
				"port", cfg.Port)
			return mcpSrv.ServeHTTP(":" + cfg.Port)
		},
	}

	cmd.Flags().Bool("stdio", false, "Run in stdio mode for local MCP clients (default: HTTP mode)")
	return cmd
}
