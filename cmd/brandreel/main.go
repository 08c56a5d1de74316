// Command brandreel drives the brand video workflow from a terminal against a
// running server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"brandreel-server/modules/client"
	"brandreel-server/modules/common/logger"
)

func main() {
	baseURL := flag.String("server", "http://localhost:8080", "server base URL")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log, err := logger.New(*logLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := client.Options{BaseURL: *baseURL, Logger: log}
	view := newTerminalView(os.Stdout)
	ctrl := client.NewController(view, client.ControllerDeps{
		Extractor: client.NewImageExtractor(opts),
		Prompts:   client.NewPromptClient(opts),
		Videos:    client.NewDispatcher(opts),
		Logger:    log,
	})

	fmt.Fprintln(os.Stdout, "brandreel - type 'help' for commands")
	if err := run(ctx, ctrl, view, os.Stdin); err != nil && err != io.EOF {
		log.Error("[CLI] input failed", zap.Error(err))
		os.Exit(1)
	}
}

const help = `commands:
  brand <text>        set the brand or product description
  ratio 16:9|9:16     set the aspect ratio
  duration 5s..8s     set the video duration
  submit              generate four video prompts
  url <page url>      set the product page URL
  extract             find product images on the page
  image <n>           select image n
  prompts             generate prompts for the selected image
  select <n>          select prompt card n
  edit <n>            edit prompt card n
  save <n> <text>     save new text for card n
  cancel <n>          discard the edit on card n
  video               create a video from the selected prompt
  reset               start over
  quit`

func run(ctx context.Context, ctrl *client.Controller, view *terminalView, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(view.out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return io.EOF
		}
		if ctx.Err() != nil {
			return nil
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "":
		case "help":
			fmt.Fprintln(view.out, help)
		case "brand":
			view.form.BrandInput = arg
		case "ratio":
			view.form.AspectRatio = arg
		case "duration":
			view.form.Duration = arg
		case "url":
			view.form.ImageURL = arg
		case "submit":
			ctrl.Submit(ctx)
		case "extract":
			ctrl.SubmitImageURL(ctx)
		case "prompts":
			ctrl.SubmitImageSelection(ctx)
		case "video":
			ctrl.CreateVideo(ctx)
		case "reset":
			ctrl.Reset()
		case "image":
			n, ok := cardNumber(view, arg)
			if ok && n < len(view.last.Images) {
				ctrl.Dispatch(client.Action{Kind: client.ActionSelectImage, URL: view.last.Images[n].URL})
			}
		case "select", "edit", "cancel", "save":
			num, text, _ := strings.Cut(arg, " ")
			n, ok := cardNumber(view, num)
			if !ok {
				continue
			}
			if !ctrl.Dispatch(client.Action{Kind: actionKinds[cmd], Index: n, Text: text}) {
				fmt.Fprintf(view.out, "%s %d: nothing changed\n", cmd, n+1)
			}
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(view.out, "unknown command %q\n", cmd)
		}
	}
}

var actionKinds = map[string]client.ActionKind{
	"select": client.ActionSelect,
	"edit":   client.ActionEdit,
	"cancel": client.ActionCancel,
	"save":   client.ActionSave,
}

// cardNumber converts the 1-based number shown to the user into an index.
func cardNumber(view *terminalView, s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		fmt.Fprintf(view.out, "expected a number, got %q\n", s)
		return 0, false
	}
	return n - 1, true
}

// terminalView prints the render model as text.
type terminalView struct {
	out  io.Writer
	form client.FormParameters
	last client.RenderModel
}

func newTerminalView(out io.Writer) *terminalView {
	return &terminalView{
		out:  out,
		form: client.FormParameters{AspectRatio: "9:16", Duration: "8s"},
	}
}

func (v *terminalView) Form() client.FormParameters { return v.form }

func (v *terminalView) SetSubmitEnabled(enabled bool) {}

func (v *terminalView) Alert(message string) {
	fmt.Fprintf(v.out, "!! %s\n", message)
}

func (v *terminalView) Navigate(location string) {
	fmt.Fprintf(v.out, "video ready: %s\n", location)
}

func (v *terminalView) Render(m client.RenderModel) {
	v.last = m
	switch {
	case m.LoadingPrompts:
		fmt.Fprintln(v.out, "writing prompts...")
		return
	case m.LoadingImages:
		fmt.Fprintln(v.out, "looking for product images...")
		return
	case m.VideoLoading:
		fmt.Fprintln(v.out, "rendering video, this can take a few minutes...")
		return
	}

	for i, img := range m.Images {
		fmt.Fprintf(v.out, "  [%s] image %d  %s\n", mark(img.Selected), i+1, img.URL)
	}
	if !m.ResultsVisible {
		return
	}
	for _, c := range m.Cards {
		switch {
		case c.Placeholder:
			fmt.Fprintf(v.out, "  [ ] %d  (%s)\n", c.Index+1, c.Prompt)
		case c.Editing:
			fmt.Fprintf(v.out, "  [%s] %d  %s  editing: %s\n", mark(c.Selected), c.Index+1, c.Style, c.Prompt)
		default:
			fmt.Fprintf(v.out, "  [%s] %d  %s: %s\n", mark(c.Selected), c.Index+1, c.Style, c.Prompt)
		}
	}
}

func mark(selected bool) string {
	if selected {
		return "x"
	}
	return " "
}
