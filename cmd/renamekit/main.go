package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/executor"
	"github.com/renamekit/renamekit/pkg/export"
	"github.com/renamekit/renamekit/pkg/history"
	"github.com/renamekit/renamekit/pkg/home"
	"github.com/renamekit/renamekit/pkg/logger"
	"github.com/renamekit/renamekit/pkg/pathutil"
	"github.com/renamekit/renamekit/pkg/planner"
	"github.com/renamekit/renamekit/pkg/profile"
	"github.com/renamekit/renamekit/pkg/server"
	"github.com/renamekit/renamekit/pkg/workspace"
)

var (
	log *logrus.Entry

	// Home directory
	homePath string

	// Naming options
	prefix      string
	suffix      string
	baseName    string
	startNumber int
	padWidth    int
	noExtLock   bool

	// Auto-clean options
	removeAccents  bool
	removeSpecial  bool
	replaceSpecial bool
	spacesMode     string
	caseMode       string

	// Filter options
	filterExt  string
	filterSize string
	filterDate string

	// Plan options
	caseInsensitive bool

	// Preview output options
	outputFormat string
	outputFile   string

	// Apply options
	failFast bool
	backup   bool

	// Undo options
	undoLast bool

	// History options
	historyLimit int

	// Server options
	port int
	host string
)

func init() {
	log = logger.WithName("cli")
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "renamekit",
		Short: "Batch file renaming with preview, undo, and profiles",
		Long: `renamekit - Batch file renaming engine built with Go.

It computes a conflict-checked rename plan before touching any file,
applies batches with an undo log in SQLite, and stores reusable rename
profiles under an application home directory.`,
	}

	rootCmd.PersistentFlags().StringVar(&homePath, "home", "", "Application home directory (default: $RENAMEKIT_HOME or ~/.renamekit)")

	var previewCmd = &cobra.Command{
		Use:   "preview <dir>",
		Short: "Compute and display a rename plan without touching any file",
		Args:  cobra.ExactArgs(1),
		Run:   runPreview,
	}
	addConfigFlags(previewCmd)
	previewCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, csv, or json")
	previewCmd.Flags().StringVar(&outputFile, "out", "", "Write the plan to a file instead of stdout")

	var applyCmd = &cobra.Command{
		Use:   "apply <dir>",
		Short: "Plan and apply a batch rename, recording it in the undo log",
		Args:  cobra.ExactArgs(1),
		Run:   runApply,
	}
	addConfigFlags(applyCmd)
	applyCmd.Flags().BoolVar(&failFast, "fail-fast", false, "Abort remaining entries after the first failure")
	applyCmd.Flags().BoolVar(&backup, "backup", false, "Copy files into a timestamped backup folder before renaming")

	var undoCmd = &cobra.Command{
		Use:   "undo [batch-id]",
		Short: "Reverse an applied batch, last-applied file first",
		Args:  cobra.MaximumNArgs(1),
		Run:   runUndo,
	}
	undoCmd.Flags().BoolVar(&undoLast, "last", false, "Reverse the most recent batch")

	var historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List applied batches, newest first",
		Run:   runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of batches to show (0 = all)")

	var profileCmd = &cobra.Command{
		Use:   "profile",
		Short: "Manage saved rename profiles",
	}

	var profileSaveCmd = &cobra.Command{
		Use:   "save <name>",
		Short: "Save the given naming and filter flags as a named profile",
		Args:  cobra.ExactArgs(1),
		Run:   runProfileSave,
	}
	addConfigFlags(profileSaveCmd)

	var profileShowCmd = &cobra.Command{
		Use:   "show <name>",
		Short: "Display a saved profile",
		Args:  cobra.ExactArgs(1),
		Run:   runProfileShow,
	}

	var profileListCmd = &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		Run:   runProfileList,
	}

	var profileDeleteCmd = &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved profile",
		Args:  cobra.ExactArgs(1),
		Run:   runProfileDelete,
	}

	profileCmd.AddCommand(profileSaveCmd, profileShowCmd, profileListCmd, profileDeleteCmd)

	var serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP and MCP server",
		Run:   runServer,
	}
	serverCmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default: from settings)")
	serverCmd.Flags().StringVar(&host, "host", "", "Host to bind (default: from settings)")

	rootCmd.AddCommand(previewCmd, applyCmd, undoCmd, historyCmd, profileCmd, serverCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// addConfigFlags registers the naming, auto-clean, and filter flags
// shared by preview, apply, and profile save.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&prefix, "prefix", "", "Prefix added to every name")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Suffix added before the extension")
	cmd.Flags().StringVar(&baseName, "base-name", "", "Replace every stem with this base name")
	cmd.Flags().IntVar(&startNumber, "start-number", -1, "Start of the sequence number (-1 disables numbering)")
	cmd.Flags().IntVar(&padWidth, "pad-width", 0, "Zero-pad sequence numbers to this width")
	cmd.Flags().BoolVar(&noExtLock, "no-ext-lock", false, "Allow auto-clean to report extension changes")

	cmd.Flags().BoolVar(&removeAccents, "remove-accents", false, "Transliterate accented characters to ASCII")
	cmd.Flags().BoolVar(&removeSpecial, "remove-special", false, "Strip special characters from names")
	cmd.Flags().BoolVar(&replaceSpecial, "replace-special", false, "Replace stripped characters with underscores instead of deleting")
	cmd.Flags().StringVar(&spacesMode, "spaces", "", "Rewrite spaces: underscore, hyphen, or delete")
	cmd.Flags().StringVar(&caseMode, "case", "", "Convert case: lower, upper, title, or camel")

	cmd.Flags().StringVar(&filterExt, "filter-ext", "", "Only include these extensions (comma-separated, e.g. jpg,png)")
	cmd.Flags().StringVar(&filterSize, "filter-size", "", "Size predicate, e.g. '>1024', '<2048', '=100'")
	cmd.Flags().StringVar(&filterDate, "filter-date", "", "Date predicate on mtime, e.g. 'before:2024-01-31', 'after:2024-01-01', 'on:2024-06-15'")

	cmd.Flags().BoolVar(&caseInsensitive, "case-insensitive", false, "Detect name collisions case-insensitively")
}

func openHome() *home.Manager {
	mgr, err := home.NewManager(homePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid home directory: %v\n", err)
		os.Exit(1)
	}
	if err := mgr.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize home directory: %v\n", err)
		os.Exit(1)
	}
	return mgr
}

func loadSettings(mgr *home.Manager) *home.Config {
	config, err := mgr.LoadConfig()
	if err != nil {
		log.WithError(err).Warn("Failed to load settings, using defaults")
		return home.DefaultConfig()
	}
	logger.ConfigureFromString(config.Logging.Level)
	logger.SetOperationLogging(config.Logging.LogOperations)
	return config
}

func openHistory(mgr *home.Manager) *history.DB {
	db, err := history.Open(mgr.HistoryPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open history database: %v\n", err)
		os.Exit(1)
	}
	return db
}

func openProfiles(mgr *home.Manager) *profile.Manager {
	profiles, err := profile.NewManager(mgr.ProfilesPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open profiles directory: %v\n", err)
		os.Exit(1)
	}
	return profiles
}

func buildNaming() models.NamingConfig {
	cfg := models.NamingConfig{
		Prefix:        prefix,
		Suffix:        suffix,
		BaseName:      baseName,
		PadWidth:      padWidth,
		ExtensionLock: !noExtLock,
		AutoClean: models.AutoCleanConfig{
			RemoveAccents:      removeAccents,
			RemoveSpecialChars: removeSpecial,
			SpecialReplace:     replaceSpecial,
			Spaces:             models.SpaceMode(spacesMode),
			Case:               models.CaseMode(caseMode),
		},
	}
	if startNumber >= 0 {
		n := startNumber
		cfg.StartNumber = &n
	}
	return cfg
}

func buildFilter() models.FilterConfig {
	cfg := models.FilterConfig{}

	if filterExt != "" {
		for _, ext := range strings.Split(filterExt, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				cfg.Extensions = append(cfg.Extensions, ext)
			}
		}
	}

	if filterSize != "" {
		op := models.SizeOp(filterSize[:1])
		bytes, err := strconv.ParseInt(strings.TrimSpace(filterSize[1:]), 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Invalid size predicate %q (expected e.g. '>1024'): %v\n", filterSize, err)
			os.Exit(1)
		}
		cfg.Size = &models.SizeFilter{Op: op, Threshold: bytes}
	}

	if filterDate != "" {
		op, raw, found := strings.Cut(filterDate, ":")
		if !found {
			fmt.Fprintf(os.Stderr, "Error: Invalid date predicate %q (expected e.g. 'before:2024-01-31')\n", filterDate)
			os.Exit(1)
		}
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Invalid date format (expected YYYY-MM-DD): %v\n", err)
			os.Exit(1)
		}
		cfg.Date = &models.DateFilter{Op: models.DateOp(op), Date: date}
	}

	return cfg
}

func buildPlan(dir string) *planner.Plan {
	ws := workspace.New()
	count, err := ws.AddDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if count == 0 {
		fmt.Fprintf(os.Stderr, "Error: No files found in %s\n", dir)
		os.Exit(1)
	}

	// The flag forces case-insensitive collision detection; otherwise the
	// target directory is probed.
	plan, err := planner.Build(ws.Entries(), buildNaming(), buildFilter(), planner.Options{
		CaseInsensitive: caseInsensitive || pathutil.DirCaseInsensitive(dir),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return plan
}

func runPreview(cmd *cobra.Command, args []string) {
	target := args[0]
	log.WithFields(logrus.Fields{
		"command": "preview",
		"target":  target,
	}).Info("Executing command")

	plan := buildPlan(target)

	out := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to create output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	switch outputFormat {
	case "csv":
		if err := export.ExportCSV(out, plan.Entries); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "json":
		if err := export.ExportJSON(out, plan.Entries); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "table":
		printPlanTable(out, plan)
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown format %q (expected table, csv, or json)\n", outputFormat)
		os.Exit(1)
	}
}

func printPlanTable(out *os.File, plan *planner.Plan) {
	fmt.Fprintf(out, "%-40s %-40s %-13s %s\n", "Original", "New Name", "Status", "Reason")
	fmt.Fprintln(out, strings.Repeat("-", 110))
	for _, pe := range plan.Entries {
		fmt.Fprintf(out, "%-40s %-40s %-13s %s\n",
			truncateString(pe.Entry.Name, 40),
			truncateString(pe.NewName, 40),
			pe.Status,
			pe.Reason,
		)
	}
	fmt.Fprintf(out, "\n%d to rename, %d conflicts, %d filtered out\n",
		plan.Included, plan.Conflicts, plan.FilteredOut)
}

func runApply(cmd *cobra.Command, args []string) {
	target := args[0]
	log.WithFields(logrus.Fields{
		"command": "apply",
		"target":  target,
	}).Info("Executing command")

	mgr := openHome()
	settings := loadSettings(mgr)
	db := openHistory(mgr)
	defer db.Close()

	plan := buildPlan(target)
	if plan.Included == 0 {
		fmt.Println("Nothing to rename")
		return
	}

	opts := executor.Options{
		FailFast:      failFast,
		Backup:        backup || settings.Operations.BackupBeforeRename,
		BackupDirName: settings.Operations.BackupDirName,
	}
	result, err := executor.New(db).Apply(context.Background(), plan, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, e := range result.Entries {
		if e.Outcome == models.OutcomeFailed {
			fmt.Fprintf(os.Stderr, "failed: %s: %s\n", e.OldPath, e.Reason)
		}
	}
	fmt.Printf("Renamed %d files, skipped %d, failed %d\n", result.Applied, result.Skipped, result.Failed)
	if result.BatchID != "" {
		fmt.Printf("Batch: %s (undo with 'renamekit undo %s')\n", result.BatchID, result.BatchID)
	}

	if result.Failed > 0 {
		os.Exit(1)
	}
}

func runUndo(cmd *cobra.Command, args []string) {
	mgr := openHome()
	loadSettings(mgr)
	db := openHistory(mgr)
	defer db.Close()

	exec := executor.New(db)

	var (
		result *models.UndoResult
		err    error
	)
	if len(args) == 1 && !undoLast {
		log.WithField("batchID", args[0]).Info("Undoing batch")
		result, err = exec.Undo(context.Background(), args[0])
	} else {
		log.Info("Undoing most recent batch")
		result, err = exec.UndoLast(context.Background())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, e := range result.Entries {
		if e.Outcome == models.OutcomeFailed {
			fmt.Fprintf(os.Stderr, "failed: %s: %s\n", e.OldPath, e.Reason)
		}
	}
	fmt.Printf("Restored %d files, failed %d\n", result.Restored, result.Failed)
	if !result.Complete {
		fmt.Printf("Batch %s kept in history for retry\n", result.BatchID)
		os.Exit(1)
	}
}

func runHistory(cmd *cobra.Command, args []string) {
	mgr := openHome()
	db := openHistory(mgr)
	defer db.Close()

	batches, err := db.ListBatches(historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(batches) == 0 {
		fmt.Println("No batches in history")
		return
	}

	fmt.Printf("%-38s %-18s %-8s %s\n", "Batch", "Status", "Files", "Applied")
	fmt.Println(strings.Repeat("-", 80))
	for _, b := range batches {
		fmt.Printf("%-38s %-18s %-8d %s\n",
			b.ID,
			b.Status,
			len(b.Records),
			b.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
}

func runProfileSave(cmd *cobra.Command, args []string) {
	mgr := openHome()
	profiles := openProfiles(mgr)

	saved, err := profiles.Save(args[0], buildNaming(), buildFilter())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Profile '%s' saved\n", saved.Name)
}

func runProfileShow(cmd *cobra.Command, args []string) {
	mgr := openHome()
	profiles := openProfiles(mgr)

	p, err := profiles.Load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Profile: %s\n", p.Name)
	fmt.Printf("Created: %s\n", p.Metadata.Created.Format("2006-01-02 15:04:05"))
	fmt.Printf("Prefix: %q  Suffix: %q  Base name: %q\n", p.Naming.Prefix, p.Naming.Suffix, p.Naming.BaseName)
	if p.Naming.StartNumber != nil {
		fmt.Printf("Numbering: from %d, pad width %d\n", *p.Naming.StartNumber, p.Naming.PadWidth)
	}
	if p.Naming.AutoClean.Enabled() {
		fmt.Printf("Auto-clean: accents=%v special=%v spaces=%s case=%s\n",
			p.Naming.AutoClean.RemoveAccents,
			p.Naming.AutoClean.RemoveSpecialChars,
			p.Naming.AutoClean.Spaces,
			p.Naming.AutoClean.Case,
		)
	}
	if len(p.Filter.Extensions) > 0 {
		fmt.Printf("Extensions: %s\n", strings.Join(p.Filter.Extensions, ", "))
	}
}

func runProfileList(cmd *cobra.Command, args []string) {
	mgr := openHome()
	profiles := openProfiles(mgr)

	names, err := profiles.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(names) == 0 {
		fmt.Println("No profiles saved")
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func runProfileDelete(cmd *cobra.Command, args []string) {
	mgr := openHome()
	profiles := openProfiles(mgr)

	if err := profiles.Delete(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Profile '%s' deleted\n", args[0])
}

func runServer(cmd *cobra.Command, args []string) {
	mgr := openHome()
	settings := loadSettings(mgr)

	if port != 0 {
		settings.Server.Port = port
	}
	if host != "" {
		settings.Server.Host = host
	}

	db := openHistory(mgr)
	defer db.Close()
	profiles := openProfiles(mgr)

	log.WithFields(logrus.Fields{
		"host": settings.Server.Host,
		"port": settings.Server.Port,
	}).Info("Starting server")

	if err := server.New(db, profiles, settings).Start(); err != nil {
		log.WithError(err).Error("Server failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
