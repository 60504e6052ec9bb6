package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/attune/internal/catalog"
)

// themeNames lists every known theme id in cycle order.
func themeNames() []string {
	themes := catalog.Themes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = string(t)
	}
	return names
}

func profileIDParam() mcp.ToolOption {
	return mcp.WithString("profile_id",
		mcp.Required(),
		mcp.Description("Visitor profile id returned by profile_create"))
}

var profileCreateToolDef = mcp.NewTool("profile_create",
	mcp.WithDescription("Create a visitor profile with default preferences (calm theme, low motion, spacious density). Returns its id."),
)

var profileStateToolDef = mcp.NewTool("profile_state",
	mcp.WithDescription("Get a profile's theme, motion, density, completion flag, onboarding step, recorded answers and theme config."),
	profileIDParam(),
)

var onboardingStartToolDef = mcp.NewTool("onboarding_start",
	mcp.WithDescription("Begin the onboarding questionnaire. Only valid from the intro step."),
	profileIDParam(),
)

var onboardingAnswerToolDef = mcp.NewTool("onboarding_answer",
	mcp.WithDescription("Answer the current onboarding question. The controller advances after a short settle delay; answering the last question starts processing."),
	profileIDParam(),
	mcp.WithNumber("question_id",
		mcp.Required(),
		mcp.Description("Id of the question currently asked")),
	mcp.WithNumber("option_index",
		mcp.Required(),
		mcp.Description("0-based index of the chosen option (see questions_list)")),
)

var onboardingBackToolDef = mcp.NewTool("onboarding_back",
	mcp.WithDescription("Go back one question (or to the intro from the first). Recorded answers are kept."),
	profileIDParam(),
)

var onboardingSkipToolDef = mcp.NewTool("onboarding_skip",
	mcp.WithDescription("Skip onboarding. After the processing delay the default theme is applied and onboarding is marked complete."),
	profileIDParam(),
)

var onboardingResetToolDef = mcp.NewTool("onboarding_reset",
	mcp.WithDescription("Cancel pending onboarding work, restore default preferences and clear the persisted theme and completion flag."),
	profileIDParam(),
)

var themeSwitchToolDef = mcp.NewTool("theme_switch",
	mcp.WithDescription("Set the theme directly. Motion, density and the completion flag are unchanged."),
	profileIDParam(),
	mcp.WithString("theme",
		mcp.Required(),
		mcp.Enum(themeNames()...),
		mcp.Description("Theme id")),
)

var themeCycleToolDef = mcp.NewTool("theme_cycle",
	mcp.WithDescription("Advance the theme calm → vibrant → focused → calm."),
	profileIDParam(),
)

var questionsListToolDef = mcp.NewTool("questions_list",
	mcp.WithDescription("List the onboarding questions with their options in presentation order."),
)
