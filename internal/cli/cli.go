package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/ignatij/sheetflow/internal/config"
	internal_http "github.com/ignatij/sheetflow/internal/http"
	"github.com/ignatij/sheetflow/internal/log"
	internal_storage "github.com/ignatij/sheetflow/internal/storage"
	"github.com/ignatij/sheetflow/pkg/models"
	"github.com/ignatij/sheetflow/pkg/schema"
	"github.com/ignatij/sheetflow/pkg/service"
	"github.com/ignatij/sheetflow/pkg/sheets"
	"github.com/ignatij/sheetflow/pkg/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// app is everything a command needs, built from the resolved configuration.
type app struct {
	cfg     *config.Config
	catalog *schema.Catalog
	store   storage.Store
	ctrl    *service.Controller
}

func (a *app) Close() error {
	return a.store.Close()
}

func SetupCLI(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (or SHEETFLOW_CONFIG)")
	rootCmd.PersistentFlags().String("journal", "", "Journal location: sqlite path, postgres:// URL or 'memory'")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the data-entry session as a JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			port, _ := cmd.Flags().GetString("port")
			if port == "" {
				port = a.cfg.Port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			srv := internal_http.NewServer(a.ctrl, a.catalog, log.GetLogger())
			return srv.StartServer(ctx, ":"+port)
		},
	}
	serveCmd.Flags().String("port", "", "Port to listen on (overrides config)")

	submitCmd := &cobra.Command{
		Use:   "submit <workflow>",
		Short: "Fill a form from --set values and submit it once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := models.ParseWorkflow(args[0])
			if err != nil {
				return err
			}
			sets, _ := cmd.Flags().GetStringArray("set")
			a, err := initApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			cmd.SilenceUsage = true
			return submit(cmd.Context(), a.ctrl, wf, sets, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	submitCmd.Flags().StringArray("set", nil, "Field value as id=value (repeatable)")

	historyCmd := &cobra.Command{
		Use:   "history <workflow>",
		Short: "List the local journal of a personnel workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := models.ParseWorkflow(args[0])
			if err != nil {
				return err
			}
			a, err := initApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			items, err := a.ctrl.History(wf)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			printHistory(cmd.OutOrStdout(), items)
			return nil
		},
	}
	historyCmd.Flags().Bool("json", false, "Print JSON instead of text")

	fieldsCmd := &cobra.Command{
		Use:   "fields <workflow>",
		Short: "Describe the form of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := models.ParseWorkflow(args[0])
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			s := catalog.Resolve(wf)
			if !s.IsForm() {
				return errors.Errorf("workflow '%s' has no form", wf)
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}
			printFields(cmd.OutOrStdout(), s)
			return nil
		},
	}
	fieldsCmd.Flags().Bool("json", false, "Print JSON instead of text")

	scriptCmd := &cobra.Command{
		Use:   "script",
		Short: "Print the Apps Script endpoint matching the configured schema revision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			check, _ := cmd.Flags().GetBool("check")
			if check {
				drifts := catalog.Layout().Check(catalog)
				for _, d := range drifts {
					fmt.Fprintln(cmd.OutOrStdout(), d.String())
				}
				if len(drifts) > 0 {
					cmd.SilenceUsage = true
					return errors.Errorf("%d layout drift(s) for revision '%s'", len(drifts), catalog.Revision())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Layout matches catalog revision '%s'\n", catalog.Revision())
				return nil
			}
			script, err := schema.RenderScript(catalog.Layout())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), script)
			return nil
		},
	}
	scriptCmd.Flags().Bool("check", false, "Only report drift between the form catalog and the column layout")

	rootCmd.AddCommand(serveCmd, submitCmd, historyCmd, fieldsCmd, scriptCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if journal, _ := cmd.Flags().GetString("journal"); journal != "" {
		cfg.JournalDSN = journal
	}
	log.GetLogger().Debugf("Resolved config: transport=%s format=%s revision=%s journal=%s",
		cfg.TransportMode, cfg.FormatMode, cfg.SchemaRevision, cfg.JournalDSN)
	return cfg, nil
}

func loadCatalog(cmd *cobra.Command) (*schema.Catalog, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return schema.NewCatalog(cfg.SchemaRevision)
}

func initApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	catalog, err := schema.NewCatalog(cfg.SchemaRevision)
	if err != nil {
		return nil, err
	}
	for _, d := range catalog.Layout().Check(catalog) {
		log.GetLogger().Warnf("Layout drift: %s", d)
	}

	store, err := internal_storage.InitStore(cfg.JournalDSN)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		return nil, err
	}
	logger := log.GetLogger()
	client := sheets.NewClient(cfg.ClientOptions(), logger)
	ctrl := service.NewController(catalog, client, service.NewJournal(store, logger), cfg.Settings(), logger)
	return &app{cfg: cfg, catalog: catalog, store: store, ctrl: ctrl}, nil
}

// submit opens wf, applies the id=value pairs and submits once.
func submit(ctx context.Context, ctrl *service.Controller, wf models.Workflow, sets []string, stdout, stderr io.Writer) error {
	if !wf.HasForm() {
		return errors.Errorf("workflow '%s' has no form", wf)
	}
	if wf.IsPersonnel() {
		if err := ctrl.Select(models.PersonnelWorkflow); err != nil {
			return err
		}
	}
	if err := ctrl.Select(wf); err != nil {
		return err
	}
	for _, set := range sets {
		id, value, ok := strings.Cut(set, "=")
		if !ok || id == "" {
			return errors.Errorf("invalid --set '%s'; expected id=value", set)
		}
		if err := ctrl.SetField(id, value); err != nil {
			return err
		}
	}

	// validation is advisory: warn, then send anyway
	errs := ctrl.Snapshot().Errors
	for _, id := range slices.Sorted(maps.Keys(errs)) {
		fmt.Fprintf(stderr, "Warning: %s: %s\n", id, errs[id])
	}

	status, err := ctrl.Submit(ctx)
	if err != nil {
		return err
	}
	if status.Kind == models.ErrorStatus {
		return errors.New(status.Message)
	}
	fmt.Fprintln(stdout, status.Message)
	return nil
}

func printHistory(w io.Writer, items []models.HistoryItem) {
	if len(items) == 0 {
		fmt.Fprintf(w, "No records found.\n")
		return
	}
	for _, it := range items {
		state := "local"
		if it.Synced {
			state = "synced"
		}
		fmt.Fprintf(w, "- %s [%s] %s\n", it.Timestamp.Format(time.RFC3339), state, it.ID)
		for _, k := range slices.Sorted(maps.Keys(it.Data)) {
			fmt.Fprintf(w, "    %s: %s\n", k, it.Data[k])
		}
	}
}

func printFields(w io.Writer, s schema.Schema) {
	fmt.Fprintf(w, "%s (sheet %s)\n", s.Title, s.Sheet)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tREQUIRED\tLABEL")
	for _, f := range s.Fields {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", f.ID, f.Type, f.Required, f.Label)
	}
	tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
