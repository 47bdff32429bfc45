// Package tui provides the interactive run wizard: it collects the input
// and output paths, resolves region and sensor per discovered acquisition,
// and drives the pipeline, all without the pipeline itself ever prompting.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/holobase-labs/seqpack-cli/internal/adapters/driving/tui/styles"
	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driving"
)

// WizardStep tracks the current step in the wizard.
type WizardStep int

const (
	StepInputPath WizardStep = iota
	StepOutputPath
	StepDiscovering
	StepIdentity // Region and sensor per acquisition
	StepConfirm
	StepRunning
	StepDone
)

// Key constants.
const (
	keyEnter = "enter"
	keyEsc   = "esc"
)

// Wizard is the interactive run flow.
type Wizard struct {
	ctx      context.Context
	pipeline driving.Pipeline
	styles   *styles.Styles

	// Wizard state
	step WizardStep
	cfg  domain.RunConfig

	// Path inputs
	inputPath  textinput.Model
	outputPath textinput.Model

	// Discovery result and per-acquisition identity entry
	candidates []domain.AcquisitionCandidate
	discovery  []domain.Warning
	jobs       []driving.AcquisitionJob
	current    int

	regionInput textinput.Model
	sensorInput textinput.Model
	focusIndex  int // 0 = region, 1 = sensor

	spin spinner.Model

	// Result
	summary *domain.RunSummary
	runErr  error

	// Transient validation message for the current step
	fieldErr string

	aborted bool
}

// NewWizard creates a wizard seeded with the resolved run configuration.
// Paths already present in the config prefill the corresponding inputs.
func NewWizard(ctx context.Context, pipeline driving.Pipeline, cfg domain.RunConfig) *Wizard {
	s := styles.DefaultStyles()

	inputPath := textinput.New()
	inputPath.Placeholder = "/path/to/acquisition or root of acquisitions"
	inputPath.CharLimit = 512
	inputPath.Width = 60
	inputPath.SetValue(cfg.InputDir)

	outputPath := textinput.New()
	outputPath.Placeholder = "/path/to/output"
	outputPath.CharLimit = 512
	outputPath.Width = 60
	outputPath.SetValue(cfg.OutputDir)

	regionInput := textinput.New()
	regionInput.Placeholder = "e.g. Karlsruhe"
	regionInput.CharLimit = 64
	regionInput.Width = 32

	sensorInput := textinput.New()
	sensorInput.Placeholder = domain.DefaultSensorLabel
	sensorInput.CharLimit = 64
	sensorInput.Width = 32

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = s.Normal.Foreground(s.Theme().Primary)

	return &Wizard{
		ctx:         ctx,
		pipeline:    pipeline,
		styles:      s,
		step:        StepInputPath,
		cfg:         cfg,
		inputPath:   inputPath,
		outputPath:  outputPath,
		regionInput: regionInput,
		sensorInput: sensorInput,
		spin:        spin,
	}
}

// RunWizard runs the wizard to completion and returns the run summary, nil
// when the user backed out before starting a run.
func RunWizard(ctx context.Context, pipeline driving.Pipeline, cfg domain.RunConfig) (*domain.RunSummary, error) {
	w := NewWizard(ctx, pipeline, cfg)
	model, err := tea.NewProgram(w, tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, fmt.Errorf("running wizard: %w", err)
	}

	final, ok := model.(*Wizard)
	if !ok {
		return nil, fmt.Errorf("running wizard: unexpected final model %T", model)
	}
	if final.aborted {
		return nil, nil
	}
	return final.summary, final.runErr
}

// Init focuses the first input.
func (w *Wizard) Init() tea.Cmd {
	return w.inputPath.Focus()
}

// candidatesDiscovered carries the discovery result, including the
// warnings for skipped folders, which ride along onto the run summary.
type candidatesDiscovered struct {
	candidates []domain.AcquisitionCandidate
	warnings   []domain.Warning
}

// discoveryFailed carries a fatal discovery error.
type discoveryFailed struct {
	err error
}

// runCompleted carries the pipeline result, summary and error both possible.
type runCompleted struct {
	summary *domain.RunSummary
	err     error
}

// discover returns a command that scans the input root.
func (w *Wizard) discover() tea.Cmd {
	return func() tea.Msg {
		candidates, warnings, err := w.pipeline.Discover(w.ctx, w.cfg)
		if err != nil {
			return discoveryFailed{err: err}
		}
		return candidatesDiscovered{candidates: candidates, warnings: warnings}
	}
}

// run returns a command that executes the pipeline over the resolved jobs.
func (w *Wizard) run() tea.Cmd {
	return func() tea.Msg {
		summary, err := w.pipeline.Run(w.ctx, w.cfg, w.jobs, w.discovery)
		return runCompleted{summary: summary, err: err}
	}
}

// Update handles messages.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return w.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		w.spin, cmd = w.spin.Update(msg)
		return w, cmd

	case candidatesDiscovered:
		w.candidates = msg.candidates
		w.discovery = msg.warnings
		w.jobs = w.jobs[:0]
		w.current = 0
		w.step = StepIdentity
		w.seedIdentity()
		return w, w.focusIdentity()

	case discoveryFailed:
		w.fieldErr = msg.err.Error()
		w.step = StepInputPath
		return w, w.inputPath.Focus()

	case runCompleted:
		w.summary = msg.summary
		w.runErr = msg.err
		w.step = StepDone
		return w, nil
	}

	return w, w.updateInputs(msg)
}

// handleKeyMsg handles key presses based on current step.
func (w *Wizard) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		w.aborted = w.step != StepDone
		return w, tea.Quit
	}

	if msg.String() == keyEsc {
		return w.handleBack()
	}

	switch w.step {
	case StepInputPath:
		if msg.String() == keyEnter {
			return w.submitInputPath()
		}
	case StepOutputPath:
		if msg.String() == keyEnter {
			return w.submitOutputPath()
		}
	case StepIdentity:
		switch msg.String() {
		case "tab", "shift+tab":
			w.focusIndex = 1 - w.focusIndex
			return w, w.focusIdentity()
		case keyEnter:
			return w.submitIdentity()
		}
	case StepConfirm:
		if msg.String() == keyEnter {
			w.step = StepRunning
			return w, tea.Batch(w.spin.Tick, w.run())
		}
	case StepDiscovering, StepRunning:
		// Busy; only ctrl+c applies.
		return w, nil
	case StepDone:
		if msg.String() == keyEnter || msg.String() == "q" {
			return w, tea.Quit
		}
		return w, nil
	}

	return w, w.updateInputs(msg)
}

// handleBack steps backwards, aborting from the first step.
func (w *Wizard) handleBack() (tea.Model, tea.Cmd) {
	w.fieldErr = ""
	switch w.step {
	case StepInputPath:
		w.aborted = true
		return w, tea.Quit
	case StepOutputPath:
		w.step = StepInputPath
		w.outputPath.Blur()
		return w, w.inputPath.Focus()
	case StepIdentity:
		if w.current > 0 {
			w.current--
			w.jobs = w.jobs[:w.current]
			w.seedIdentity()
			return w, w.focusIdentity()
		}
		w.step = StepOutputPath
		w.blurIdentity()
		return w, w.outputPath.Focus()
	case StepConfirm:
		w.step = StepIdentity
		w.current = len(w.candidates) - 1
		w.jobs = w.jobs[:w.current]
		w.seedIdentity()
		return w, w.focusIdentity()
	case StepDiscovering, StepRunning:
		return w, nil
	case StepDone:
		return w, tea.Quit
	}
	return w, nil
}

// submitInputPath validates the input root and advances.
func (w *Wizard) submitInputPath() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(w.inputPath.Value())
	if raw == "" {
		w.fieldErr = "input directory is required"
		return w, nil
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		w.fieldErr = fmt.Sprintf("resolving path: %v", err)
		return w, nil
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		w.fieldErr = fmt.Sprintf("%s is not a readable directory", abs)
		return w, nil
	}

	w.cfg.InputDir = abs
	w.fieldErr = ""
	w.step = StepOutputPath
	w.inputPath.Blur()
	return w, w.outputPath.Focus()
}

// submitOutputPath validates the full configuration and starts discovery.
func (w *Wizard) submitOutputPath() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(w.outputPath.Value())
	if raw == "" {
		w.fieldErr = "output directory is required"
		return w, nil
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		w.fieldErr = fmt.Sprintf("resolving path: %v", err)
		return w, nil
	}

	w.cfg.OutputDir = abs
	if err := w.cfg.Validate(); err != nil {
		w.fieldErr = err.Error()
		return w, nil
	}

	w.fieldErr = ""
	w.step = StepDiscovering
	w.outputPath.Blur()
	return w, tea.Batch(w.spin.Tick, w.discover())
}

// submitIdentity records the region/sensor pair for the current candidate
// and advances to the next one, or to confirmation after the last.
func (w *Wizard) submitIdentity() (tea.Model, tea.Cmd) {
	candidate := w.candidates[w.current]

	region := strings.TrimSpace(w.regionInput.Value())
	if region == "" {
		region = candidate.FolderRegion
	}
	normalized, err := domain.NormalizeToken(region, "region")
	if err != nil {
		w.fieldErr = err.Error()
		return w, nil
	}

	sensor := strings.TrimSpace(w.sensorInput.Value())
	if sensor != "" {
		if sensor, err = domain.NormalizeToken(sensor, "sensor"); err != nil {
			w.fieldErr = err.Error()
			return w, nil
		}
	}

	w.jobs = append(w.jobs, driving.AcquisitionJob{
		Candidate: candidate,
		Region:    normalized,
		Sensor:    sensor,
	})
	w.fieldErr = ""

	w.current++
	if w.current < len(w.candidates) {
		w.seedIdentity()
		return w, w.focusIdentity()
	}
	w.step = StepConfirm
	w.blurIdentity()
	return w, nil
}

// seedIdentity prefills the identity inputs for the current candidate from
// the run-level config and the candidate's detected values.
func (w *Wizard) seedIdentity() {
	candidate := w.candidates[w.current]

	region := w.cfg.Region
	if region == "" {
		region = candidate.FolderRegion
	}
	w.regionInput.SetValue(region)

	sensor := ""
	if label, ok := w.cfg.Sensor.Label(); ok {
		sensor = label
	} else if candidate.DefaultSensor != "" {
		sensor = candidate.DefaultSensor
	}
	w.sensorInput.SetValue(sensor)
	w.focusIndex = 0
}

// focusIdentity focuses the field selected by focusIndex.
func (w *Wizard) focusIdentity() tea.Cmd {
	if w.focusIndex == 0 {
		w.sensorInput.Blur()
		return w.regionInput.Focus()
	}
	w.regionInput.Blur()
	return w.sensorInput.Focus()
}

func (w *Wizard) blurIdentity() {
	w.regionInput.Blur()
	w.sensorInput.Blur()
}

// updateInputs forwards non-key messages and typed runes to whichever text
// input currently has focus.
func (w *Wizard) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch w.step {
	case StepInputPath:
		w.inputPath, cmd = w.inputPath.Update(msg)
	case StepOutputPath:
		w.outputPath, cmd = w.outputPath.Update(msg)
	case StepIdentity:
		if w.focusIndex == 0 {
			w.regionInput, cmd = w.regionInput.Update(msg)
		} else {
			w.sensorInput, cmd = w.sensorInput.Update(msg)
		}
	case StepDiscovering, StepConfirm, StepRunning, StepDone:
	}
	return cmd
}

// View renders the current step.
func (w *Wizard) View() string {
	var b strings.Builder

	b.WriteString(w.styles.Title.Render("seqpack"))
	b.WriteString("\n\n")

	switch w.step {
	case StepInputPath:
		b.WriteString(w.styles.Normal.Render("Input directory"))
		b.WriteString("\n")
		b.WriteString(w.styles.InputField.Render(w.inputPath.View()))
		b.WriteString("\n")
	case StepOutputPath:
		b.WriteString(w.styles.Normal.Render("Output directory"))
		b.WriteString("\n")
		b.WriteString(w.styles.InputField.Render(w.outputPath.View()))
		b.WriteString("\n")
	case StepDiscovering:
		fmt.Fprintf(&b, "%s Scanning %s ...\n", w.spin.View(), w.cfg.InputDir)
	case StepIdentity:
		b.WriteString(w.viewIdentity())
	case StepConfirm:
		b.WriteString(w.viewConfirm())
	case StepRunning:
		fmt.Fprintf(&b, "%s Processing %d acquisition(s) ...\n", w.spin.View(), len(w.jobs))
	case StepDone:
		b.WriteString(w.viewDone())
	}

	if w.fieldErr != "" {
		b.WriteString("\n")
		b.WriteString(w.styles.Error.Render(w.fieldErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(w.styles.Help.Render(w.helpLine()))
	b.WriteString("\n")
	return b.String()
}

func (w *Wizard) viewIdentity() string {
	var b strings.Builder
	candidate := w.candidates[w.current]

	fmt.Fprintf(&b, "Acquisition %d of %d: %s\n", w.current+1, len(w.candidates), candidate.Name)
	b.WriteString(w.styles.Muted.Render(fmt.Sprintf("  %d image(s)", len(candidate.Images))))
	if candidate.PosePath != "" {
		b.WriteString(w.styles.Muted.Render(", pose track"))
	}
	if len(candidate.LidarPaths) > 0 {
		b.WriteString(w.styles.Muted.Render(fmt.Sprintf(", %d point cloud(s)", len(candidate.LidarPaths))))
	}
	b.WriteString("\n\n")

	b.WriteString(w.styles.Normal.Render("Region"))
	b.WriteString("\n")
	b.WriteString(w.styles.InputField.Render(w.regionInput.View()))
	b.WriteString("\n")
	b.WriteString(w.styles.Normal.Render("Sensor (empty for detected default)"))
	b.WriteString("\n")
	b.WriteString(w.styles.InputField.Render(w.sensorInput.View()))
	b.WriteString("\n")
	return b.String()
}

func (w *Wizard) viewConfirm() string {
	var b strings.Builder
	b.WriteString(w.styles.Normal.Render("Ready to run"))
	b.WriteString("\n\n")
	for _, job := range w.jobs {
		sensor := job.Sensor
		if sensor == "" {
			sensor = "auto"
		}
		fmt.Fprintf(&b, "  %s  region=%s  sensor=%s  (%d images)\n",
			job.Candidate.Name, job.Region, sensor, len(job.Candidate.Images))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Output: %s\n", w.cfg.OutputDir)
	return b.String()
}

func (w *Wizard) viewDone() string {
	var b strings.Builder
	if w.runErr != nil {
		b.WriteString(w.styles.Error.Render("Run failed: " + w.runErr.Error()))
		b.WriteString("\n")
	}
	if w.summary != nil {
		line := fmt.Sprintf("Run %s %s: %d frame(s) processed, %d failed, %d warning(s).",
			w.summary.RunID, w.summary.Status,
			w.summary.TotalProcessed(), w.summary.TotalFailed(), w.summary.TotalWarnings())
		if w.runErr == nil {
			b.WriteString(w.styles.Success.Render(line))
		} else {
			b.WriteString(w.styles.Warning.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (w *Wizard) helpLine() string {
	switch w.step {
	case StepIdentity:
		return "enter continue • tab switch field • esc back • ctrl+c quit"
	case StepConfirm:
		return "enter start run • esc back • ctrl+c quit"
	case StepDiscovering, StepRunning:
		return "ctrl+c quit"
	case StepDone:
		return "enter exit"
	case StepInputPath, StepOutputPath:
		return "enter continue • esc back • ctrl+c quit"
	}
	return ""
}
