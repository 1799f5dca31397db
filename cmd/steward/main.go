package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"steward/internal/audit"
	"steward/internal/cycle"
	"steward/internal/generate"
	"steward/internal/notify"
	"steward/internal/report"
	"steward/internal/scoring"
	"steward/internal/server"
	"steward/internal/store"
	"steward/internal/synth"
	"steward/internal/workspace"
)

const appName = "steward"

func main() {
	flag.String("workspace", "", "Path to workspace root")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s: autonomous goal-cycle daemon\n\n", appName)
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [command] [flags]\n\n", appName)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  init      Initialize a new workspace")
		fmt.Fprintln(os.Stderr, "  run       Run the cycle driver")
		fmt.Fprintln(os.Stderr, "  status    Print a status snapshot")
		fmt.Fprintln(os.Stderr, "  goal      Manage goals")
		fmt.Fprintln(os.Stderr, "  decide    Record a one-shot decision")
		fmt.Fprintln(os.Stderr, "  metric    Inspect performance metrics")
		fmt.Fprintln(os.Stderr, "  generate  Render a project scaffold")
		fmt.Fprintln(os.Stderr, "  serve     Serve the read-only status API")
		fmt.Fprintln(os.Stderr, "  help      Show this help")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	workspacePath, remaining, err := extractWorkspaceFlag(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := remaining
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		flag.Usage()
		return
	}

	var cmdErr error
	switch args[0] {
	case "init":
		cmdErr = runInit(args[1:], workspacePath)
	case "run":
		cmdErr = runRun(args[1:], workspacePath)
	case "status":
		cmdErr = runStatus(args[1:], workspacePath)
	case "goal":
		cmdErr = runGoal(args[1:], workspacePath)
	case "decide":
		cmdErr = runDecide(args[1:], workspacePath)
	case "metric":
		cmdErr = runMetric(args[1:], workspacePath)
	case "generate":
		cmdErr = runGenerate(args[1:], workspacePath)
	case "serve":
		cmdErr = runServe(args[1:], workspacePath)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
	if cmdErr != nil {
		fmt.Fprintln(os.Stderr, cmdErr)
		os.Exit(1)
	}
}

func extractWorkspaceFlag(args []string) (string, []string, error) {
	var workspacePath string
	remaining := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--workspace" {
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--workspace requires a value")
			}
			workspacePath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--workspace=") {
			workspacePath = strings.TrimPrefix(arg, "--workspace=")
			continue
		}
		remaining = append(remaining, arg)
	}
	return workspacePath, remaining, nil
}

func resolveWorkspace(root string) (*workspace.Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("--workspace is required")
	}
	return workspace.Resolve(root)
}

func openStore(ws *workspace.Workspace) (*store.Store, error) {
	st, err := store.Open(ws.StateDBPath)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	return st, nil
}

func runInit(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(workspacePath) == "" {
		return fmt.Errorf("--workspace is required")
	}

	root, err := workspace.ResolveRoot(workspacePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}
	ws, err := workspace.Resolve(root)
	if err != nil {
		return err
	}
	if err := ws.EnsureDirs(); err != nil {
		return err
	}

	logger := audit.NewLogger(ws.AuditDBPath)
	if err := logger.LogEvent("cli", "workspace_init", map[string]any{"workspace": ws.Root}); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}

	if err := writeFileIfMissing(filepath.Join(ws.OptionsDir, "sample.yml"), sampleOptionsTemplate); err != nil {
		return err
	}

	// Touch the state schema so the first run starts from a known-good db.
	st, err := openStore(ws)
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Fprintf(os.Stdout, "Initialized workspace: %s\n", ws.Root)
	fmt.Fprintln(os.Stdout, "Next steps:")
	fmt.Fprintf(os.Stdout, "  %s run --workspace %s\n", appName, ws.Root)
	fmt.Fprintf(os.Stdout, "  %s status --workspace %s\n", appName, ws.Root)
	return nil
}

func runRun(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	interval := fs.Duration("interval", 30*time.Second, "Cycle interval")
	maxActive := fs.Int("max-active", 3, "Create a goal when fewer than this many are active")
	candidates := fs.Int("candidates", 3, "Candidate goals synthesized per decision")
	seed := fs.Int64("seed", 0, "Random seed for the synthesizer (0 = time-based)")
	notifyFlag := fs.Bool("notify", false, "Send desktop notifications on goal events")
	listen := fs.String("listen", "", "Optional address for the status API (e.g. 127.0.0.1:8180)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := resolveWorkspace(workspacePath)
	if err != nil {
		return err
	}
	if err := ws.EnsureDirs(); err != nil {
		return err
	}

	st, err := openStore(ws)
	if err != nil {
		return err
	}
	defer st.Close()

	driver := cycle.New(cycle.Config{
		Store:      st,
		Audit:      audit.NewLogger(ws.AuditDBPath),
		Notifier:   &notify.Notifier{Enabled: *notifyFlag},
		Synth:      synth.New(*seed),
		Interval:   *interval,
		MaxActive:  *maxActive,
		Candidates: *candidates,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *listen != "" {
		srv := server.New(st, *listen)
		go func() {
			if err := srv.Run(ctx); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}()
		fmt.Fprintf(os.Stdout, "Status API listening on %s\n", *listen)
	}

	fmt.Fprintf(os.Stdout, "Starting cycle driver for workspace: %s\n", ws.Root)
	fmt.Fprintf(os.Stdout, "Interval: %s, max active goals: %d\n", *interval, *maxActive)

	return driver.Run(ctx)
}

func runStatus(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print the snapshot as JSON")
	output := fs.String("output", "", "Write the snapshot to a file (default: print to stdout)")
	snapshot := fs.Bool("snapshot", false, "Write the snapshot under <workspace>/artifacts/status")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := resolveWorkspace(workspacePath)
	if err != nil {
		return err
	}
	st, err := openStore(ws)
	if err != nil {
		return err
	}
	defer st.Close()

	status, err := report.Build(st, time.Now())
	if err != nil {
		return err
	}

	if *snapshot && *output == "" {
		*output = report.SnapshotPathFor(ws.SnapshotsDir, time.Now())
	}
	if *output != "" {
		path, err := ws.ResolvePath(*output)
		if err != nil {
			return fmt.Errorf("resolve --output: %w", err)
		}
		if err := report.WriteSnapshot(path, status); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote snapshot: %s\n", path)
		return nil
	}

	if *asJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	status.Render(os.Stdout)
	return nil
}

func runGoal(args []string, workspacePath string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		return fmt.Errorf("%s goal: missing subcommand (add, list, complete, pause, resume, fail)", appName)
	}

	switch args[0] {
	case "add":
		return runGoalAdd(args[1:], workspacePath)
	case "list":
		return runGoalList(args[1:], workspacePath)
	case "complete":
		return runGoalTransition(args[1:], workspacePath, store.GoalCompleted)
	case "pause":
		return runGoalTransition(args[1:], workspacePath, store.GoalPaused)
	case "resume":
		return runGoalTransition(args[1:], workspacePath, store.GoalActive)
	case "fail":
		return runGoalTransition(args[1:], workspacePath, store.GoalFailed)
	default:
		return fmt.Errorf("%s goal: unknown subcommand %q", appName, args[0])
	}
}

func runGoalAdd(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("goal add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	title := fs.String("title", "", "Goal title")
	description := fs.String("description", "", "Goal description")
	priority := fs.Float64("priority", 0.5, "Goal priority in [0,1]")
	target := fs.String("target", "", "Optional target date (YYYY-MM-DD)")
	pending := fs.Bool("pending", false, "Create the goal as pending instead of active")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return fmt.Errorf("--title is required")
	}

	ws, err := resolveWorkspace(workspacePath)
	if err != nil {
		return err
	}
	st, err := openStore(ws)
	if err != nil {
		return err
	}
	defer st.Close()

	goal := store.Goal{
		ID:          uuid.NewString(),
		Title:       *title,
		Description: *description,
		Priority:    *priority,
		Status:      store.GoalActive,
		CreatedAt:   time.Now(),
	}
	if *pending {
		goal.Status = store.GoalPending
	}
	if *target != "" {
		parsed, err := time.ParseInLocation("2006-01-02", *target, time.UTC)
		if err != nil {
			return fmt.Errorf("parse --target: %w", err)
		}
		goal.TargetAt = &parsed
	}

	if err := st.CreateGoal(goal); err != nil {
		return err
	}

	logger := audit.NewLogger(ws.AuditDBPath)
	if err := logger.LogEvent("cli", "goal_added", map[string]any{
		"goal_id": goal.ID,
		"title":   goal.Title,
		"status":  string(goal.Status),
	}); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}

	fmt.Fprintf(os.Stdout, "Created goal: %s (%s)\n", goal.ID, goal.Title)
	return nil
}

func runGoalList(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("goal list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	status := fs.String("status", "", "Filter by status (pending, active, completed, failed, paused)")
	limit := fs.Int("limit", 20, "Maximum goals to list")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := resolveWorkspace(workspacePath)
	if err != nil {
		return err
	}
	st, err := openStore(ws)
	if err != nil {
		return err
	}
	defer st.Close()

	goals, err := st.ListGoals(store.GoalStatus(*status), *limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Goals: %d\n", len(goals))
	for _, g := range goals {
		fmt.Fprintf(os.Stdout, "  %s [%s] %s (priority %.2f, progress %.2f)\n",
			g.ID, g.Status, g.Title, g.Priority, g.Progress)
	}
	return nil
}

func runGoalTransition(args []string, workspacePath string, to store.GoalStatus) error {
	if len(args) == 0 {
		return fmt.Errorf("goal id is required")
	}
	goalID := args[0]

	ws, err := resolveWorkspace(workspacePath)
	if err != nil {
		return err
	}
	st, err := openStore(ws)
	if err != nil {
		return err
	}
	defer st.Close()

	if to == store.GoalCompleted {
		if err := st.UpdateGoalProgress(goalID, 1); err != nil {
			return err
		}
	}
	if err := st.TransitionGoal(goalID, to); err != nil {
		return err
	}

	logger := audit.NewLogger(ws.AuditDBPath)
	if err := logger.LogEvent("cli", "goal_transitioned", map[string]any{
		"goal_id": goalID,
		"to":      string(to),
	}); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}

	fmt.Fprintf(os.Stdout, "Goal %s is now %s\n", goalID, to)
	return nil
}

func runDecide(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("decide", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	optionsPath := fs.String("options", "", "YAML file of option records (default: synthesize)")
	decisionType := fs.String("type", "manual", "Decision type tag")
	contextTag := fs.String("context", "", "Free-text decision context")
	candidates := fs.Int("candidates", 3, "Options to synthesize when no file is given")
	seed := fs.Int64("seed", 0, "Random seed for synthesized options (0 = time-based)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := resolveWorkspace(workspacePath)
	if err != nil {
		return err
	}
	st, err := openStore(ws)
	if err != nil {
		return err
	}
	defer st.Close()

	options, err := decideOptions(ws, *optionsPath, *candidates, *seed)
	if err != nil {
		return err
	}

	decision, err := cycle.RecordDecision(st, options, nil, *decisionType, *contextTag, time.Now())
	if err != nil {
		return err
	}

	logger := audit.NewLogger(ws.AuditDBPath)
	if err := logger.LogEvent("cli", "decision_recorded", map[string]any{
		"decision_id": decision.ID,
		"type":        decision.Type,
		"confidence":  decision.Confidence,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}

	fmt.Fprintf(os.Stdout, "Decision %s recorded\n", decision.ID)
	fmt.Fprintf(os.Stdout, "  chosen:     %s\n", decision.ChosenJSON)
	fmt.Fprintf(os.Stdout, "  confidence: %.3f\n", decision.Confidence)
	fmt.Fprintf(os.Stdout, "  reasoning:  %s\n", decision.Reasoning)
	return nil
}

func decideOptions(ws *workspace.Workspace, optionsPath string, candidates int, seed int64) ([]scoring.Option, error) {
	if optionsPath != "" {
		path, err := ws.ResolvePath(optionsPath)
		if err != nil {
			return nil, fmt.Errorf("resolve --options: %w", err)
		}
		return synth.LoadOptionsFile(path)
	}

	synthesizer := synth.New(seed)
	cands := synthesizer.CandidateGoals(candidates)
	options := make([]scoring.Option, len(cands))
	for i, c := range cands {
		options[i] = c.Option
	}
	return options, nil
}

func runMetric(args []string, workspacePath string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		return fmt.Errorf("%s metric: missing subcommand (list)", appName)
	}
	switch args[0] {
	case "list":
		return runMetricList(args[1:], workspacePath)
	default:
		return fmt.Errorf("%s metric: unknown subcommand %q", appName, args[0])
	}
}

func runMetricList(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("metric list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "Filter by metric name")
	limit := fs.Int("limit", 20, "Maximum samples to list")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := resolveWorkspace(workspacePath)
	if err != nil {
		return err
	}
	st, err := openStore(ws)
	if err != nil {
		return err
	}
	defer st.Close()

	metrics, err := st.ListMetrics(*name, *limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Metrics: %d\n", len(metrics))
	for _, m := range metrics {
		fmt.Fprintf(os.Stdout, "  %s  %-24s %.3f  %s\n",
			m.CreatedAt.Format(time.RFC3339), m.Name, m.Value, m.Context)
	}
	return nil
}

func runGenerate(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	projectType := fs.String("type", "static-site", fmt.Sprintf("Project type (%s)", strings.Join(generate.ProjectTypes(), ", ")))
	name := fs.String("name", "", "Project name")
	requirements := fs.String("requirements", "", "Free-text requirements recorded in the scaffold")
	outDir := fs.String("out", "", "Output directory (default: <workspace>/artifacts/projects/<name>)")
	check := fs.Bool("check", false, "Diff against the existing output instead of writing")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	ws, err := resolveWorkspace(workspacePath)
	if err != nil {
		return err
	}
	if err := ws.EnsureDirs(); err != nil {
		return err
	}

	dir := *outDir
	if dir == "" {
		dir = filepath.Join(ws.ProjectsDir, *name)
	} else {
		dir, err = ws.ResolvePath(dir)
		if err != nil {
			return fmt.Errorf("resolve --out: %w", err)
		}
	}

	files, err := generate.Render(generate.Input{
		Type:         *projectType,
		Name:         *name,
		Requirements: *requirements,
		Now:          time.Now(),
	})
	if err != nil {
		return err
	}

	if *check {
		diff, err := generate.Check(dir, files)
		if err != nil {
			return err
		}
		if diff == "" {
			fmt.Fprintln(os.Stdout, "Project is up to date")
			return nil
		}
		fmt.Fprint(os.Stdout, diff)
		return nil
	}

	if err := generate.Write(dir, files); err != nil {
		return err
	}

	logger := audit.NewLogger(ws.AuditDBPath)
	if err := logger.LogEvent("cli", "project_generated", map[string]any{
		"type":  *projectType,
		"name":  *name,
		"dir":   dir,
		"files": len(files),
	}); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}

	fmt.Fprintf(os.Stdout, "Generated %d files in %s\n", len(files), dir)
	return nil
}

func runServe(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	listen := fs.String("listen", "127.0.0.1:8180", "Listen address for the status API")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := resolveWorkspace(workspacePath)
	if err != nil {
		return err
	}
	st, err := openStore(ws)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stdout, "Status API listening on %s\n", *listen)
	return server.New(st, *listen).Run(ctx)
}

func writeFileIfMissing(path string, contents string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", path, err)
	}
	return os.WriteFile(path, []byte(contents), 0o644)
}

const sampleOptionsTemplate = `options:
  - name: conservative
    scores:
      utility: 0.6
      feasibility: 0.9
      risk: 0.8
      ethics: 0.9
      stakeholder: 0.7
  - name: ambitious
    scores:
      utility: 0.9
      feasibility: 0.5
      risk: 0.4
      ethics: 0.8
      stakeholder: 0.8
`
