package mcp

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/attune/internal/config"
	"github.com/hpungsan/attune/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"profile_create": {
		def:     profileCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProfileCreate },
	},
	"profile_state": {
		def:     profileStateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProfileState },
	},
	"onboarding_start": {
		def:     onboardingStartToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStart },
	},
	"onboarding_answer": {
		def:     onboardingAnswerToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAnswer },
	},
	"onboarding_back": {
		def:     onboardingBackToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBack },
	},
	"onboarding_skip": {
		def:     onboardingSkipToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSkip },
	},
	"onboarding_reset": {
		def:     onboardingResetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReset },
	},
	"theme_switch": {
		def:     themeSwitchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThemeSwitch },
	},
	"theme_cycle": {
		def:     themeCycleToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThemeCycle },
	},
	"questions_list": {
		def:     questionsListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuestionsList },
	},
}

// AllToolNames returns a sorted list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with attune tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(svc *ops.Service, cfg *config.Config, version string, log *zap.Logger) *server.MCPServer {
	if log == nil {
		log = zap.NewNop()
	}
	s := server.NewMCPServer(
		"attune",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(svc, log)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			log.Debug("tool disabled", zap.String("tool", name))
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(svc *ops.Service, cfg *config.Config, version string, log *zap.Logger) error {
	s := NewServer(svc, cfg, version, log)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
