package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/moldshop/prodtrack/internal/config"
	"github.com/moldshop/prodtrack/internal/directory"
	"github.com/moldshop/prodtrack/internal/domain"
	"github.com/moldshop/prodtrack/internal/importer"
	"github.com/moldshop/prodtrack/internal/monitor"
	"github.com/moldshop/prodtrack/internal/notify"
	"github.com/moldshop/prodtrack/internal/programstore"
	"github.com/moldshop/prodtrack/internal/report"
	"github.com/moldshop/prodtrack/internal/workflow"
	"github.com/moldshop/prodtrack/tui"
	"github.com/moldshop/prodtrack/web/api"
)

var (
	listStatus     string
	serveHost      string
	servePort      int
	employeeCargo  string
	employeeActive bool
)

func init() {
	// serve command
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to bind (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)

	// status command
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue counts",
		RunE:  runStatus,
	}
	rootCmd.AddCommand(statusCmd)

	// list command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List programs",
		RunE:  runList,
	}
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (Pendente, Em Andamento, Concluído, Refazer)")
	rootCmd.AddCommand(listCmd)

	// import command
	importCmd := &cobra.Command{
		Use:   "import [FILE|DIR]",
		Short: "Import program seed files",
		Long:  "Import YAML program drops into the queue. With no argument the configured import directory is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runImport,
	}
	rootCmd.AddCommand(importCmd)

	// employees command group
	employeesCmd := &cobra.Command{
		Use:   "employees",
		Short: "Manage the operator registry",
	}

	addCmd := &cobra.Command{
		Use:   "add MATRICULA NOME SENHA",
		Short: "Register an employee",
		Args:  cobra.ExactArgs(3),
		RunE:  runEmployeeAdd,
	}
	addCmd.Flags().StringVar(&employeeCargo, "cargo", "", "job title")
	employeesCmd.AddCommand(addCmd)

	employeesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE:  runEmployeeList,
	})

	deactivateCmd := &cobra.Command{
		Use:   "set-active ID",
		Short: "Activate or deactivate an employee",
		Args:  cobra.ExactArgs(1),
		RunE:  runEmployeeSetActive,
	}
	deactivateCmd.Flags().BoolVar(&employeeActive, "active", true, "whether the employee may authenticate")
	employeesCmd.AddCommand(deactivateCmd)

	rootCmd.AddCommand(employeesCmd)

	// tui command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "tui",
		Short: "Launch the terminal board",
		RunE:  runTUI,
	})
}

func loadConfig() (*config.Config, error) {
	return config.LoadWithLocalFallback(configPath)
}

func openPrograms(cfg *config.Config) (*programstore.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.General.DatabasePath), 0o755); err != nil {
		return nil, err
	}
	return programstore.New(cfg.General.DatabasePath)
}

func openDirectory(cfg *config.Config) (*directory.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.General.DirectoryPath), 0o755); err != nil {
		return nil, err
	}
	return directory.New(cfg.General.DirectoryPath)
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	notifiers := []notify.Notifier{notify.NewDesktopNotifier(cfg.Notifications.Desktop)}
	if cfg.Notifications.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notifications.SlackWebhook))
	}
	return notify.NewMultiNotifier(notifiers...)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Web.Host = serveHost
	}
	if servePort != 0 {
		cfg.Web.Port = servePort
	}

	programs, err := openPrograms(cfg)
	if err != nil {
		return err
	}
	defer programs.Close()

	employees, err := openDirectory(cfg)
	if err != nil {
		return err
	}
	defer employees.Close()

	auth := directory.NewAuthenticator(employees)
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)

	notifier := buildNotifier(cfg)
	stalls := monitor.New(programs, 4*time.Hour)

	// The server doubles as the event publisher so workflow events
	// reach the dashboard over SSE; completions additionally feed the
	// metrics monitor and the notifier.
	var server *api.Server
	publisher := publisherFunc(func(e domain.Event) {
		server.Publish(e)
		if done, ok := e.(domain.ProgramCompleted); ok && done.Program != nil {
			p := done.Program
			stalls.RecordCompletion(p.ProgramID, p.ElapsedSeconds, len(p.Operators))
			// Notifiers may hit the network; keep the workflow path
			// non-blocking.
			go notifier.Send(notify.Notification{
				Title:     "Programa concluído",
				Message:   fmt.Sprintf("Programa %s finalizado em %s", p.ProgramID, report.FormatElapsed(p.ElapsedSeconds)),
				Type:      notify.NotifySuccess,
				ProgramID: p.ProgramID,
				Machine:   p.Machine,
			})
		}
	})

	machine := workflow.NewStatusMachine(programs, publisher)
	gate := workflow.NewCompletionGate(machine, publisher)
	sessions := workflow.NewSessionManager(employees, auth, publisher)
	server = api.NewServer(programs, employees, machine, gate, sessions, auth, addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("dashboard listening on http://%s", addr)
		return server.Start()
	})

	// Import watcher
	if cfg.General.ImportDir != "" {
		if err := os.MkdirAll(cfg.General.ImportDir, 0o755); err != nil {
			return err
		}
		watcher, err := importer.NewWatcher(cfg.General.ImportDir, importer.New(programs), func(created int) {
			server.Broadcast(api.SSEEvent{Type: "programs_imported", Data: map[string]int{"count": created}})
		})
		if err != nil {
			return err
		}
		watcher.Start(ctx)
		g.Go(func() error {
			<-ctx.Done()
			watcher.Stop()
			return nil
		})
		log.Printf("watching %s for program drops", cfg.General.ImportDir)
	}

	// Stalled program watchdog
	g.Go(func() error {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				stalled, err := stalls.Stalled(ctx)
				if err != nil {
					log.Printf("stall check failed: %v", err)
					continue
				}
				for _, p := range stalled {
					notifier.Send(notify.Notification{
						Title:     "Programa parado",
						Message:   fmt.Sprintf("Programa %s está em andamento sem atividade há mais de 4 horas", p.ProgramID),
						Type:      notify.NotifyWarning,
						ProgramID: p.ProgramID,
						Machine:   p.Machine,
					})
				}
			}
		}
	})

	// Shift reports
	if cfg.Reports.Enabled {
		scheduler, err := report.NewScheduler(report.NewReporter(programs), notifier, cfg.Reports.Cron)
		if err != nil {
			return err
		}
		g.Go(func() error {
			scheduler.Start(ctx)
			return nil
		})
		log.Printf("shift reports scheduled (%s), next at %s", cfg.Reports.Cron, scheduler.NextRun().Format("15:04"))
	}

	return g.Wait()
}

// publisherFunc adapts a function to domain.EventPublisher.
type publisherFunc func(domain.Event)

func (f publisherFunc) Publish(e domain.Event) { f(e) }

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	programs, err := openPrograms(cfg)
	if err != nil {
		return err
	}
	defer programs.Close()

	stats, err := programs.Counts(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Programas: %d total | %d pendentes | %d em andamento | %d concluídos | %d refazer\n",
		stats.Total, stats.Pending, stats.InProgress, stats.Completed, stats.Redo)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	programs, err := openPrograms(cfg)
	if err != nil {
		return err
	}
	defer programs.Close()

	opts := programstore.ListOptions{}
	if listStatus != "" {
		st := domain.Status(listStatus)
		if !st.Valid() {
			return fmt.Errorf("unknown status %q", listStatus)
		}
		opts.Status = st
	}

	list, err := programs.List(cmd.Context(), opts)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROGRAMA\tMÁQUINA\tMATERIAL\tSTATUS\tTEMPO\tCONCLUÍDO")
	for _, p := range list {
		elapsed := "-"
		if p.ElapsedSeconds > 0 {
			elapsed = report.FormatElapsed(p.ElapsedSeconds)
		}
		completed := "-"
		if p.CompletedAt != nil {
			completed = humanize.Time(*p.CompletedAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ProgramID, p.Machine, p.Material, p.Status, elapsed, completed)
	}
	w.Flush()

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	programs, err := openPrograms(cfg)
	if err != nil {
		return err
	}
	defer programs.Close()

	im := importer.New(programs)

	target := cfg.General.ImportDir
	if len(args) > 0 {
		target = args[0]
	}

	info, err := os.Stat(target)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		p, err := im.ImportFile(cmd.Context(), target)
		if err != nil {
			return err
		}
		if p == nil {
			fmt.Println("Program already in the queue, skipped")
			return nil
		}
		fmt.Printf("Imported program %s (%s)\n", p.ProgramID, p.Machine)
		return nil
	}

	created, errs := im.ImportDir(cmd.Context(), target)
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "warning: %v\n", e)
	}
	fmt.Printf("Imported %d programs from %s\n", created, target)
	return nil
}

func runEmployeeAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	employees, err := openDirectory(cfg)
	if err != nil {
		return err
	}
	defer employees.Close()

	hash, err := directory.HashPassword(args[2])
	if err != nil {
		return err
	}

	e := &domain.Employee{
		ID:        uuid.NewString(),
		Matricula: args[0],
		Nome:      args[1],
		Senha:     hash,
		Cargo:     employeeCargo,
		Ativo:     true,
	}
	if err := employees.Create(cmd.Context(), e); err != nil {
		return err
	}

	fmt.Printf("Registered %s (%s)\n", e.Nome, e.Matricula)
	return nil
}

func runEmployeeList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	employees, err := openDirectory(cfg)
	if err != nil {
		return err
	}
	defer employees.Close()

	list, err := employees.List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMATRÍCULA\tNOME\tCARGO\tATIVO")
	for _, e := range list {
		ativo := "sim"
		if !e.Ativo {
			ativo = "não"
		}
		cargo := e.Cargo
		if cargo == "" {
			cargo = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Matricula, e.Nome, cargo, ativo)
	}
	w.Flush()

	return nil
}

func runEmployeeSetActive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	employees, err := openDirectory(cfg)
	if err != nil {
		return err
	}
	defer employees.Close()

	e, err := employees.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("employee %s not found", args[0])
	}

	e.Ativo = employeeActive
	if err := employees.Update(cmd.Context(), e); err != nil {
		return err
	}

	state := "activated"
	if !e.Ativo {
		state = "deactivated"
	}
	fmt.Printf("%s %s\n", e.Nome, state)
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	programs, err := openPrograms(cfg)
	if err != nil {
		return err
	}
	defer programs.Close()

	p := tea.NewProgram(tui.NewModel(programs), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
