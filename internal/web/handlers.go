package web

import (
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hpungsan/attune/internal/catalog"
	"github.com/hpungsan/attune/internal/contact"
	"github.com/hpungsan/attune/internal/errors"
	"github.com/hpungsan/attune/internal/onboarding"
	"github.com/hpungsan/attune/internal/ops"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// Handlers contains HTTP route handlers for the web UI and API.
type Handlers struct {
	svc      *ops.Service
	relay    *contact.Relay
	log      *zap.Logger
	refresh  time.Duration
	renderer *Renderer
}

// HandleHome handles GET /: the landing page, themed for the visitor.
func (h *Handlers) HandleHome(w http.ResponseWriter, r *http.Request) {
	state, err := h.visitorState(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	visit, err := h.visit(state, "")
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "home", HomePageData{
		PageData:       h.pageData("Welcome", state, 0),
		State:          state,
		ShowOnboarding: visit.ShowOnboarding,
	})
}

// HandleOnboarding handles GET /onboarding: the current onboarding step.
func (h *Handlers) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	state, err := h.visitorState(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, state)
		return
	}

	refresh := 0
	switch {
	case state.Step.Phase == onboarding.PhaseProcessing:
		refresh = int(math.Ceil(h.refresh.Seconds()))
		if refresh < 1 {
			refresh = 1
		}
	case state.Step.Locked:
		refresh = 1
	}

	h.renderer.renderPage(w, "onboarding", OnboardingPageData{
		PageData: h.pageData("Tune your experience", state, refresh),
		State:    state,
		Total:    len(h.svc.Questions().Items),
	})
}

// HandleStart handles POST /onboarding/start.
func (h *Handlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Start)
}

// HandleAnswer handles POST /onboarding/answer: form fields question_id and option_index.
func (h *Handlers) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	questionID, err := strconv.Atoi(r.FormValue("question_id"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("question_id must be an integer"))
		return
	}
	optionIndex, err := strconv.Atoi(r.FormValue("option_index"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("option_index must be an integer"))
		return
	}

	h.transition(w, r, func(id string) (*ops.StateOutput, error) {
		return h.svc.Answer(ops.AnswerInput{ProfileID: id, QuestionID: questionID, OptionIndex: optionIndex})
	})
}

// HandleBack handles POST /onboarding/back.
func (h *Handlers) HandleBack(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Back)
}

// HandleSkip handles POST /onboarding/skip.
func (h *Handlers) HandleSkip(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Skip)
}

// HandleReset handles POST /onboarding/reset.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Reset)
}

// transition runs an onboarding operation for the visitor. JSON clients get
// the new state; browsers are redirected back to the flow.
func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, op func(string) (*ops.StateOutput, error)) {
	id, err := h.profile(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	state, err := op(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, state)
		return
	}
	http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
}

// HandleState handles GET /api/state.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.visitorState(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, state)
}

// HandleVisit handles GET /api/visit?fragment=: whether to show onboarding on landing.
func (h *Handlers) HandleVisit(w http.ResponseWriter, r *http.Request) {
	state, err := h.visitorState(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := h.visit(state, r.URL.Query().Get("fragment"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleQuestions handles GET /api/questions.
func (h *Handlers) HandleQuestions(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, h.svc.Questions())
}

type themeRequest struct {
	Theme string `json:"theme"`
}

// HandleTheme handles POST /api/theme: body {"theme": "..."} or form field theme.
func (h *Handlers) HandleTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if isJSONBody(r) {
		if err := decodeJSON(r, &req); err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
	} else {
		req.Theme = r.FormValue("theme")
	}

	id, err := h.profile(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	state, err := h.svc.SwitchTheme(ops.ThemeInput{ProfileID: id, Theme: req.Theme})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, state)
}

// HandleThemeCycle handles POST /api/theme/cycle.
func (h *Handlers) HandleThemeCycle(w http.ResponseWriter, r *http.Request) {
	id, err := h.profile(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	state, err := h.svc.CycleTheme(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if isFormPost(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderJSON(w, http.StatusOK, state)
}

// HandleContact handles POST /api/contact: relays a contact-form message to
// the configured recipient.
func (h *Handlers) HandleContact(w http.ResponseWriter, r *http.Request) {
	var msg contact.Message
	if err := decodeJSON(r, &msg); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	// Visitors never pick the recipient.
	msg.To = ""

	res, err := h.relay.Send(r.Context(), msg)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, res)
}

// visitorState returns the state of the visitor's profile, or the guest view
// when the cookie is missing or stale. It never creates a profile, so reads
// and crawlers leave no rows behind.
func (h *Handlers) visitorState(r *http.Request) (*ops.StateOutput, error) {
	c, err := r.Cookie(ProfileCookie)
	if err != nil || c.Value == "" {
		return h.svc.GuestState(), nil
	}
	state, err := h.svc.GetState(c.Value)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return h.svc.GuestState(), nil
		}
		return nil, err
	}
	return state, nil
}

func (h *Handlers) visit(state *ops.StateOutput, fragment string) (*ops.VisitOutput, error) {
	if state.ProfileID == "" {
		return h.svc.GuestVisit(fragment), nil
	}
	return h.svc.Visit(ops.VisitInput{ProfileID: state.ProfileID, Fragment: fragment})
}

// profile returns the visitor's profile id from the cookie, creating a new
// profile when the cookie is missing or stale. Only mutating routes call it.
func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) (string, error) {
	state, err := h.visitorState(r)
	if err != nil {
		return "", err
	}
	if state.ProfileID != "" {
		return state.ProfileID, nil
	}

	out, err := h.svc.CreateProfile()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     ProfileCookie,
		Value:    out.ID,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return out.ID, nil
}

func (h *Handlers) pageData(title string, state *ops.StateOutput, refresh int) PageData {
	theme := catalog.ConfigFor(catalog.DefaultTheme)
	if state != nil {
		theme = state.ThemeConfig
	}
	return PageData{
		Title:          title,
		Version:        h.renderer.version,
		Theme:          theme,
		RefreshSeconds: refresh,
	}
}

// isFormPost reports a plain HTML form submission from a browser.
func isFormPost(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") &&
		!strings.Contains(r.Header.Get("Accept"), "application/json")
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.NewInvalidRequest("failed to read request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewInvalidRequest("invalid JSON body")
	}
	return nil
}
