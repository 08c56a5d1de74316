package client

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"brandreel-server/modules/common/fallback"
	"brandreel-server/modules/common/model"
)

// State of the prompt workflow.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StatePromptsDisplayed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StatePromptsDisplayed:
		return "prompts displayed"
	}
	return "unknown"
}

// FormParameters - values of brandForm / imageForm at the moment of reading
type FormParameters struct {
	BrandInput  string
	ImageURL    string
	AspectRatio string
	Duration    string
}

// View is the presentation side of the controller. Methods are called with
// the controller locked and must not call back into it synchronously.
type View interface {
	// Form is read at request time and never cached.
	Form() FormParameters
	Render(RenderModel)
	SetSubmitEnabled(enabled bool)
	Alert(message string)
	Navigate(location string)
}

// CardView - one prompt slot; Index is the data-index actions refer to
type CardView struct {
	Index       int
	Style       string
	Prompt      string
	Placeholder bool
	Selected    bool
	Editing     bool
}

// ImageView - one extracted image in the grid
type ImageView struct {
	URL      string
	Selected bool
}

// RenderModel is the complete page state handed to View.Render.
type RenderModel struct {
	State          State
	LoadingPrompts bool
	ResultsVisible bool
	VideoLoading   bool
	LoadingImages  bool
	Cards          []CardView
	Images         []ImageView
}

type Extractor interface {
	ExtractImagesFromURL(ctx context.Context, pageURL string) ([]string, error)
}

type PromptGenerator interface {
	GeneratePrompts(ctx context.Context, req PromptRequest) ([]model.PromptItem, error)
}

type VideoRequester interface {
	RequestVideo(ctx context.Context, req VideoRequest) (string, error)
}

// ActionKind - user interactions the view forwards to Dispatch
type ActionKind int

const (
	ActionSelect ActionKind = iota + 1
	ActionEdit
	ActionCancel
	ActionSave
	ActionSelectImage
)

// Action is keyed by kind and card index (or image URL), the way a delegated
// click handler reads data attributes off the event target.
type Action struct {
	Kind  ActionKind
	Index int
	Text  string
	URL   string
}

type ControllerDeps struct {
	Extractor Extractor
	Prompts   PromptGenerator
	Videos    VideoRequester
	Logger    *zap.Logger
}

type card struct {
	style       string
	prompt      string
	placeholder bool
	editing     bool
}

type sequence struct {
	prompts uint64
	images  uint64
	video   uint64
}

// Controller holds the page state of the brand video workflow.
type Controller struct {
	extractor Extractor
	prompts   PromptGenerator
	videos    VideoRequester
	view      View
	log       *zap.Logger

	mu    sync.Mutex
	state State
	seq   sequence
	cards []card
	// at most one of selectedCard (>= 0) and selectedImage (!= "") is set
	selectedCard   int
	selectedImage  string
	images         []string
	loadingPrompts bool
	loadingImages  bool
	resultsVisible bool
	videoLoading   bool
}

func NewController(view View, deps ControllerDeps) *Controller {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		extractor:    deps.Extractor,
		prompts:      deps.Prompts,
		videos:       deps.Videos,
		view:         view,
		log:          log,
		selectedCard: -1,
	}
}

// Submit runs the canonical brand flow: /generate-prompt-2 with the selected aspect ratio.
func (c *Controller) Submit(ctx context.Context) error {
	const op = "submit"

	c.mu.Lock()
	if c.state == StateSubmitting || c.videoLoading {
		c.mu.Unlock()
		return ErrBusy
	}
	form := c.view.Form()
	text := strings.TrimSpace(form.BrandInput)
	if text == "" {
		defer c.mu.Unlock()
		return c.fail(op, newError(KindValidation, op, ErrValidation))
	}
	token := c.beginPrompts()
	c.mu.Unlock()

	items, err := c.prompts.GeneratePrompts(ctx, PromptRequest{
		Text:        text,
		FeatureType: model.FeatureVideo,
		AspectRatio: form.AspectRatio,
	})
	return c.finishPrompts(op, token, items, err)
}

// SubmitImageURL extracts product images from the URL in the image form.
func (c *Controller) SubmitImageURL(ctx context.Context) error {
	const op = "extract images"

	c.mu.Lock()
	if c.loadingImages {
		c.mu.Unlock()
		return ErrBusy
	}
	pageURL := strings.TrimSpace(c.view.Form().ImageURL)
	if pageURL == "" {
		defer c.mu.Unlock()
		return c.fail(op, newError(KindValidation, op, ErrValidation))
	}
	c.seq.images++
	token := c.seq.images
	c.loadingImages = true
	c.images = nil
	c.selectedImage = ""
	c.render()
	c.mu.Unlock()

	images, err := c.extractor.ExtractImagesFromURL(ctx, pageURL)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq.images {
		c.log.Info("[Client] dropping stale image response", zap.String("url", pageURL))
		return ErrStale
	}
	c.loadingImages = false
	if err == nil && len(images) == 0 {
		err = newError(KindEmptyResult, op, ErrNoImagesFound)
	}
	if err != nil {
		c.render()
		return c.fail(op, err)
	}
	c.images = images
	c.render()
	return nil
}

// SubmitImageSelection generates image prompts for the selected image.
func (c *Controller) SubmitImageSelection(ctx context.Context) error {
	const op = "submit image"

	c.mu.Lock()
	if c.state == StateSubmitting || c.videoLoading {
		c.mu.Unlock()
		return ErrBusy
	}
	imageURL := c.selectedImage
	if imageURL == "" {
		defer c.mu.Unlock()
		return c.fail(op, newError(KindNoSelection, op, ErrNoSelection))
	}
	token := c.beginPrompts()
	c.mu.Unlock()

	items, err := c.prompts.GeneratePrompts(ctx, PromptRequest{Text: imageURL, FeatureType: model.FeatureImage})
	return c.finishPrompts(op, token, items, err)
}

// CreateVideo dispatches the selected prompt and navigates to the results
// page on success. Submit is disabled while the request runs; on failure the
// prompt results are shown again.
func (c *Controller) CreateVideo(ctx context.Context) error {
	const op = "create video"

	c.mu.Lock()
	if c.videoLoading {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.selectedCard < 0 {
		defer c.mu.Unlock()
		return c.fail(op, newError(KindNoSelection, op, ErrNoSelection))
	}
	prompt := c.cards[c.selectedCard].prompt
	form := c.view.Form()
	c.seq.video++
	token := c.seq.video
	c.videoLoading = true
	c.resultsVisible = false
	c.view.SetSubmitEnabled(false)
	c.render()
	c.mu.Unlock()

	location, err := c.videos.RequestVideo(ctx, VideoRequest{
		Prompt:      prompt,
		BrandInput:  strings.TrimSpace(form.BrandInput),
		AspectRatio: form.AspectRatio,
		Duration:    form.Duration,
		ContentType: model.ContentTypeCreativeScene,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq.video {
		c.log.Info("[Client] dropping stale video response")
		return ErrStale
	}
	if err != nil {
		c.videoLoading = false
		c.resultsVisible = true
		c.view.SetSubmitEnabled(true)
		c.render()
		return c.fail(op, err)
	}
	c.log.Info("[Client] video ready", zap.String("location", location))
	c.view.Navigate(location)
	return nil
}

// Dispatch routes a delegated user action. It reports whether state changed.
func (c *Controller) Dispatch(a Action) bool {
	switch a.Kind {
	case ActionSelect:
		return c.Select(a.Index)
	case ActionEdit:
		return c.Edit(a.Index)
	case ActionCancel:
		return c.Cancel(a.Index)
	case ActionSave:
		return c.Save(a.Index, a.Text)
	case ActionSelectImage:
		return c.SelectImage(a.URL)
	}
	c.log.Debug("[Client] unknown action", zap.Int("kind", int(a.Kind)))
	return false
}

// Select marks card i, clearing any previous card or image selection.
// Placeholders are ignored.
func (c *Controller) Select(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.interactive(i) {
		return false
	}
	c.selectedImage = ""
	c.selectedCard = i
	c.render()
	return true
}

// SelectImage marks an extracted image, clearing any previous selection.
func (c *Controller) SelectImage(imageURL string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.images {
		if u == imageURL {
			c.selectedCard = -1
			c.selectedImage = imageURL
			c.render()
			return true
		}
	}
	return false
}

func (c *Controller) Edit(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.interactive(i) || c.cards[i].editing {
		return false
	}
	c.cards[i].editing = true
	c.render()
	return true
}

// Cancel leaves edit mode; the stored text is the last saved one.
func (c *Controller) Cancel(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.interactive(i) || !c.cards[i].editing {
		return false
	}
	c.cards[i].editing = false
	c.render()
	return true
}

// Save stores text as the card's prompt. Blank text is a no-op and the card
// stays in edit mode.
func (c *Controller) Save(i int, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.interactive(i) || !c.cards[i].editing {
		return false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	c.cards[i].prompt = text
	c.cards[i].editing = false
	c.render()
	return true
}

// Reset returns to Idle and invalidates every in-flight request.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq.prompts++
	c.seq.images++
	c.seq.video++
	c.state = StateIdle
	c.cards = nil
	c.images = nil
	c.selectedCard = -1
	c.selectedImage = ""
	c.loadingPrompts = false
	c.loadingImages = false
	c.resultsVisible = false
	c.videoLoading = false
	c.view.SetSubmitEnabled(true)
	c.render()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Model returns the current render model.
func (c *Controller) Model() RenderModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model()
}

// beginPrompts enters Submitting. Caller holds mu.
func (c *Controller) beginPrompts() uint64 {
	c.seq.prompts++
	c.state = StateSubmitting
	c.loadingPrompts = true
	c.resultsVisible = false
	c.cards = nil
	c.selectedCard = -1
	c.view.SetSubmitEnabled(false)
	c.render()
	return c.seq.prompts
}

func (c *Controller) finishPrompts(op string, token uint64, items []model.PromptItem, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.seq.prompts {
		c.log.Info("[Client] dropping stale prompt response", zap.String("op", op))
		return ErrStale
	}

	c.loadingPrompts = false
	c.view.SetSubmitEnabled(true)
	if err == nil && len(items) == 0 {
		err = newError(KindEmptyResult, op, ErrNoPrompts)
	}
	if err != nil {
		c.state = StateIdle
		c.render()
		return c.fail(op, err)
	}

	c.cards = buildCards(items)
	c.state = StatePromptsDisplayed
	c.resultsVisible = true
	c.render()
	return nil
}

// fail logs err and shows it to the user. Caller holds mu.
func (c *Controller) fail(op string, err error) error {
	c.log.Warn("[Client] operation failed",
		zap.String("op", op), zap.Stringer("kind", KindOf(err)), zap.Error(err))
	c.view.Alert(Message(err))
	return err
}

func (c *Controller) interactive(i int) bool {
	return i >= 0 && i < len(c.cards) && !c.cards[i].placeholder
}

func (c *Controller) render() {
	c.view.Render(c.model())
}

func (c *Controller) model() RenderModel {
	m := RenderModel{
		State:          c.state,
		LoadingPrompts: c.loadingPrompts,
		ResultsVisible: c.resultsVisible,
		VideoLoading:   c.videoLoading,
		LoadingImages:  c.loadingImages,
	}
	for i, cd := range c.cards {
		m.Cards = append(m.Cards, CardView{
			Index:       i,
			Style:       cd.style,
			Prompt:      cd.prompt,
			Placeholder: cd.placeholder,
			Selected:    i == c.selectedCard,
			Editing:     cd.editing,
		})
	}
	for _, u := range c.images {
		m.Images = append(m.Images, ImageView{URL: u, Selected: u == c.selectedImage})
	}
	return m
}

// buildCards always yields model.PromptSlots cards, padding with placeholders.
func buildCards(items []model.PromptItem) []card {
	cards := make([]card, model.PromptSlots)
	for i := range cards {
		if i < len(items) {
			cards[i] = card{style: items[i].Style, prompt: items[i].Prompt}
			continue
		}
		cards[i] = card{prompt: fallback.PlaceholderPrompt, placeholder: true}
	}
	return cards
}
