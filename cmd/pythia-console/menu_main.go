package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pythia-trading/pythia-console/internal/board"
	"github.com/pythia-trading/pythia-console/internal/form"
	"github.com/pythia-trading/pythia-console/internal/poller"
)

// MenuUI provides the canonical interactive interface for the console.
// All input goes through one buffered reader so value entry can accept
// empty lines and embedded spaces.
type MenuUI struct {
	cfgPath string
	app     *app
	form    *form.Engine
	reader  *bufio.Reader
}

// NewMenuUI creates the menu bound to a config path.
func NewMenuUI(cfgPath string) *MenuUI {
	return &MenuUI{
		cfgPath: cfgPath,
		form:    form.NewEngine(),
		reader:  bufio.NewReader(os.Stdin),
	}
}

// Run starts the interactive menu system.
func (ui *MenuUI) Run() error {
	log.Info().Msg("Starting Pythia console menu (canonical interface)")

	a, err := newApp(ui.cfgPath)
	if err != nil {
		return err
	}
	ui.app = a
	defer a.Close()

	fmt.Print("\033[2J\033[H") // Clear screen
	ui.showBanner()

	for {
		choice, err := ui.showMainMenu()
		if err != nil {
			return fmt.Errorf("menu error: %w", err)
		}

		if err := ui.handleMenuChoice(choice); err != nil {
			if err.Error() == "exit" {
				break
			}
			log.Error().Err(err).Msg("Menu action failed")
			ui.waitForEnter()
		}
	}

	log.Info().Msg("Pythia console menu session ended")
	return nil
}

// showBanner displays the canonical interface banner
func (ui *MenuUI) showBanner() {
	fmt.Printf(`
 ╔═══════════════════════════════════════════════════════════╗
 ║                   🔱 Pythia Console %s                 ║
 ║        Trading Engine Monitoring & Configuration          ║
 ║                                                           ║
 ║    🎯 This is the CANONICAL INTERFACE                     ║
 ║       All features are accessible through this menu       ║
 ║                                                           ║
 ╚═══════════════════════════════════════════════════════════╝

`, version)
}

// showMainMenu displays the main menu and gets user choice
func (ui *MenuUI) showMainMenu() (string, error) {
	fmt.Printf(`
╔══════════════ MAIN MENU ══════════════╗

 1. 📊 Dashboard - Current Performance
 2. 🔄 Live Dashboard - Auto-refresh
 3. 📚 Strategies - Catalog & Schemas
 4. ⚙️  Configure - Strategy Parameters
 5. 📜 History - Submission Journal
 6. 🌐 Board - Web Dashboard Server
 0. 🚪 Exit

╚═══════════════════════════════════════╝

Enter your choice (0-6): `)

	line, err := ui.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// handleMenuChoice routes menu selections to their handlers
func (ui *MenuUI) handleMenuChoice(choice string) error {
	switch choice {
	case "1":
		return ui.handleDashboardOnce()
	case "2":
		return ui.handleLiveDashboard()
	case "3":
		return ui.handleStrategies()
	case "4":
		return ui.handleConfigure()
	case "5":
		return ui.handleHistory()
	case "6":
		return ui.handleBoard()
	case "0":
		return fmt.Errorf("exit")
	default:
		fmt.Printf("❌ Invalid choice: %s\n", choice)
		return nil
	}
}

// handleDashboardOnce fetches and renders the dashboard a single time.
func (ui *MenuUI) handleDashboardOnce() error {
	if err := renderOnce(ui.app); err != nil {
		return err
	}
	ui.waitForEnter()
	return nil
}

// handleLiveDashboard runs the poll loop and repaints on every completed
// fetch until the operator presses Enter.
func (ui *MenuUI) handleLiveDashboard() error {
	ui.app.warmStart(context.Background())

	repaint := func(st poller.Status) {
		fmt.Print("\033[2J\033[H")
		renderDashboard(board.Display(st))
		fmt.Println("Press Enter to return to the menu...")
	}
	ui.app.poller.OnUpdate(fanout(ui.app.persistSnapshots(), repaint))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ui.app.poller.Start(ctx)

	if st := ui.app.poller.Status(); st.Snapshot != nil {
		repaint(st)
	}

	ui.readLine("")
	ui.app.poller.Stop()
	return nil
}

// handleStrategies shows the catalog and lets the operator inspect schemas.
func (ui *MenuUI) handleStrategies() error {
	if err := ui.ensureCatalog(); err != nil {
		return err
	}

	defs := ui.app.catalog.List()
	if len(defs) == 0 {
		fmt.Println("No strategies available")
		ui.waitForEnter()
		return nil
	}

	for {
		fmt.Print("\033[2J\033[H")
		fmt.Printf("\n╔════════════ STRATEGY CATALOG ════════════╗\n\n")
		for i, def := range defs {
			fmt.Printf(" %d. %s (%s) — %s, %d parameters\n",
				i+1, def.Name, def.ID, def.Status, len(def.Parameters))
		}
		fmt.Printf("\n 0. ← Back to Main Menu\n\n")
		fmt.Printf("╚══════════════════════════════════════════╝\n")

		choice := ui.readLine("\nEnter number to inspect: ")
		if choice == "0" || choice == "" {
			return nil
		}

		idx, err := strconv.Atoi(choice)
		if err != nil || idx < 1 || idx > len(defs) {
			fmt.Printf("❌ Invalid choice: %s\n", choice)
			ui.waitForEnter()
			continue
		}

		printStrategy(defs[idx-1])
		ui.waitForEnter()
	}
}

// handleConfigure walks the select -> edit -> submit flow.
func (ui *MenuUI) handleConfigure() error {
	if err := ui.ensureCatalog(); err != nil {
		return err
	}

	defs := ui.app.catalog.List()
	if len(defs) == 0 {
		fmt.Println("No strategies available to configure")
		ui.waitForEnter()
		return nil
	}

	fmt.Print("\033[2J\033[H")
	fmt.Printf("\n╔═══════════ CONFIGURE STRATEGY ═══════════╗\n\n")
	for i, def := range defs {
		fmt.Printf(" %d. %s (%s)\n", i+1, def.Name, def.ID)
	}
	fmt.Printf("\n 0. ← Back\n\n")
	fmt.Printf("╚══════════════════════════════════════════╝\n")

	choice := ui.readLine("\nSelect strategy: ")
	if choice == "0" || choice == "" {
		return nil
	}

	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(defs) {
		fmt.Printf("❌ Invalid choice: %s\n", choice)
		ui.waitForEnter()
		return nil
	}

	// Selecting rebuilds the working values from the schema defaults,
	// discarding any edits from a previous selection.
	ui.form.Select(defs[idx-1])
	return ui.editSelected()
}

// editSelected loops over the selected strategy's fields until the
// operator submits or backs out.
func (ui *MenuUI) editSelected() error {
	for {
		def, ok := ui.form.Strategy()
		if !ok {
			return nil
		}
		names := ui.form.FieldNames()

		fmt.Print("\033[2J\033[H")
		fmt.Printf("\n╔═══ CONFIGURE: %s ═══╗\n\n", def.Name)
		for i, name := range names {
			spec, _ := ui.form.Spec(name)
			value, _ := ui.form.Value(name)
			fmt.Printf(" %2d. %-20s = %-14q%s\n", i+1, name, value, constraintLabel(spec))
		}
		fmt.Printf("\n  s. 🚀 Submit configuration\n")
		fmt.Printf("  d. ↩️  Reset to defaults\n")
		fmt.Printf("  0. ← Back (discard edits)\n")

		choice := ui.readLine("\nField to edit, or action: ")
		switch choice {
		case "0", "":
			ui.form.Deselect()
			return nil
		case "d":
			// Re-entering the selection rebuilds values from defaults.
			ui.form.Select(def)
			continue
		case "s":
			if done := ui.submitSelected(); done {
				return nil
			}
			continue
		}

		idx, err := strconv.Atoi(choice)
		if err != nil || idx < 1 || idx > len(names) {
			fmt.Printf("❌ Invalid choice: %s\n", choice)
			ui.waitForEnter()
			continue
		}
		ui.editField(names[idx-1])
	}
}

// editField prompts for one field's new value.
func (ui *MenuUI) editField(name string) {
	spec, _ := ui.form.Spec(name)
	current, _ := ui.form.Value(name)

	fmt.Printf("\n%s (%s)\n", name, spec.Type)
	if spec.Description != "" {
		fmt.Printf("  %s\n", spec.Description)
	}
	if label := constraintLabel(spec); label != "" {
		fmt.Printf(" %s\n", label)
	}
	fmt.Printf("  Current: %q\n", current)

	value := ui.readLine("  New value (Enter keeps current): ")
	if value == "" {
		return
	}
	if err := ui.form.SetValue(name, value); err != nil {
		fmt.Printf("❌ %v\n", err)
		ui.waitForEnter()
	}
}

// submitSelected validates and submits the working values. It returns true
// when the form session is finished; on any failure the values stay intact
// for correction.
func (ui *MenuUI) submitSelected() bool {
	req, err := ui.form.BuildRequest()
	if err != nil {
		var vErr *form.ValidationError
		if errors.As(err, &vErr) {
			printValidationErrors(vErr)
		} else {
			fmt.Printf("❌ %v\n", err)
		}
		ui.waitForEnter()
		return false
	}

	ctx, cancel := ui.app.requestCtx()
	defer cancel()

	ack, err := ui.app.submitter.Submit(ctx, req)
	if err != nil {
		fmt.Printf("❌ Submission failed: %v\n", err)
		ui.waitForEnter()
		return false
	}

	fmt.Printf("✅ %s\n", ackMessage(ack))
	ui.waitForEnter()
	ui.form.Deselect()
	return true
}

// handleHistory prints recent submissions from the journal.
func (ui *MenuUI) handleHistory() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := ui.app.journal.Recent(ctx, 20)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	fmt.Println()
	printHistory(entries)
	ui.waitForEnter()
	return nil
}

// handleBoard serves the web board until the operator presses Enter.
func (ui *MenuUI) handleBoard() error {
	server := board.NewServer(ui.app.cfg.Board.Listen, ui.app.poller, ui.app.metrics)

	ui.app.warmStart(context.Background())
	ui.app.poller.OnUpdate(fanout(ui.app.persistSnapshots(), server.Publish))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ui.app.poller.Start(ctx)
	defer ui.app.poller.Stop()

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Run(ctx) }()

	fmt.Printf("\n🌐 Board serving at http://%s\n", ui.app.cfg.Board.Listen)
	ui.readLine("   Press Enter to stop and return to the menu... ")

	cancel()
	return <-serverErr
}

// ensureCatalog loads the strategy catalog on first use. A failed load
// leaves it empty; picking the menu item again retries.
func (ui *MenuUI) ensureCatalog() error {
	if ui.app.catalog.Loaded() {
		return nil
	}
	ctx, cancel := ui.app.requestCtx()
	defer cancel()
	if err := ui.app.catalog.Load(ctx); err != nil {
		return fmt.Errorf("failed to load strategy catalog: %w", err)
	}
	return nil
}

// readLine reads one trimmed input line; EOF reads as empty.
func (ui *MenuUI) readLine(prompt string) string {
	if prompt != "" {
		fmt.Print(prompt)
	}
	line, err := ui.reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func (ui *MenuUI) waitForEnter() {
	fmt.Printf("\nPress Enter to continue...")
	ui.reader.ReadString('\n')
}
