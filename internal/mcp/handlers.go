package mcp

import (
	"context"
	stderrors "errors"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/attune/internal/errors"
	"github.com/hpungsan/attune/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	svc *ops.Service
	log *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *ops.Service, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{svc: svc, log: log}
}

// Request types for each tool

// ProfileRequest carries the profile every per-visitor tool acts on.
type ProfileRequest struct {
	ProfileID string `json:"profile_id"`
}

// AnswerRequest represents the arguments for onboarding_answer.
type AnswerRequest struct {
	ProfileID   string `json:"profile_id"`
	QuestionID  *int   `json:"question_id"`
	OptionIndex *int   `json:"option_index"`
}

// ThemeRequest represents the arguments for theme_switch.
type ThemeRequest struct {
	ProfileID string `json:"profile_id"`
	Theme     string `json:"theme"`
}

// Handler implementations

// HandleProfileCreate handles the profile_create tool call.
func (h *Handlers) HandleProfileCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.svc.CreateProfile()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleProfileState handles the profile_state tool call.
func (h *Handlers) HandleProfileState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.withProfile(req, h.svc.GetState)
}

// HandleStart handles the onboarding_start tool call.
func (h *Handlers) HandleStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.withProfile(req, h.svc.Start)
}

// HandleAnswer handles the onboarding_answer tool call.
func (h *Handlers) HandleAnswer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnswerRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.QuestionID == nil || input.OptionIndex == nil {
		return errorResult(errors.NewInvalidRequest("question_id and option_index are required")), nil
	}

	result, err := h.svc.Answer(ops.AnswerInput{
		ProfileID:   input.ProfileID,
		QuestionID:  *input.QuestionID,
		OptionIndex: *input.OptionIndex,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleBack handles the onboarding_back tool call.
func (h *Handlers) HandleBack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.withProfile(req, h.svc.Back)
}

// HandleSkip handles the onboarding_skip tool call.
func (h *Handlers) HandleSkip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.withProfile(req, h.svc.Skip)
}

// HandleReset handles the onboarding_reset tool call.
func (h *Handlers) HandleReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.withProfile(req, h.svc.Reset)
}

// HandleThemeSwitch handles the theme_switch tool call.
func (h *Handlers) HandleThemeSwitch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ThemeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.svc.SwitchTheme(ops.ThemeInput{ProfileID: input.ProfileID, Theme: input.Theme})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleThemeCycle handles the theme_cycle tool call.
func (h *Handlers) HandleThemeCycle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.withProfile(req, h.svc.CycleTheme)
}

// HandleQuestionsList handles the questions_list tool call.
func (h *Handlers) HandleQuestionsList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.svc.Questions())
}

// withProfile decodes a ProfileRequest and runs op on it.
func (h *Handlers) withProfile(req mcp.CallToolRequest, op func(string) (*ops.StateOutput, error)) (*mcp.CallToolResult, error) {
	input, err := decode[ProfileRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := op(input.ProfileID)
	if err != nil {
		if errors.Is(err, errors.ErrInternal) {
			h.log.Error("tool failed", zap.String("tool", req.Params.Name), zap.Error(err))
		}
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var aErr *errors.AttuneError
	if stderrors.As(err, &aErr) {
		message := aErr.Message
		// Keep wrapper context ("answer: ...") ahead of the coded message.
		if prefix := strings.TrimSuffix(err.Error(), aErr.Error()); prefix != err.Error() {
			message = prefix + message
		}
		errorObj := map[string]any{
			"code":    aErr.Code,
			"message": message,
			"status":  aErr.Status,
		}
		if aErr.Code != errors.ErrInternal && aErr.Details != nil {
			errorObj["details"] = aErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
