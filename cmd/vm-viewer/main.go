// Package main is the debug TUI: thread table, registers and the
// machine's event log, stepping tics without a window or a speaker.
package main

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"go.creack.net/anotherworld/cli"
	"go.creack.net/anotherworld/op"
	"go.creack.net/anotherworld/vm"
)

type viewer struct {
	app *tview.Application

	threadsView *tview.Table
	stateView   *tview.TextView
	logsView    *tview.TextView

	machine *vm.Machine

	mu       sync.Mutex
	paused   bool
	nextStep bool
}

func newViewer(machine *vm.Machine) *viewer {
	v := &viewer{
		app:     tview.NewApplication(),
		machine: machine,
		paused:  true,
	}

	v.threadsView = tview.NewTable().SetBorders(false).SetFixed(1, 0)
	v.threadsView.SetTitle("Threads").SetBorder(true)

	v.stateView = tview.NewTextView().SetDynamicColors(true)
	v.stateView.SetTitle("Machine").SetBorder(true)

	v.logsView = tview.NewTextView().SetDynamicColors(true)
	v.logsView.SetTitle("Events").SetBorder(true)
	v.logsView.ScrollToEnd()

	rightPane := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.stateView, 0, 1, false).
		AddItem(v.logsView, 0, 2, false)
	flex := tview.NewFlex().
		AddItem(v.threadsView, 0, 2, true).
		AddItem(rightPane, 0, 1, false)
	v.app.SetRoot(flex, true)

	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEscape:
			v.app.Stop()
			return nil
		}
		switch event.Rune() {
		case 'q':
			v.app.Stop()
			return nil
		case ' ':
			v.mu.Lock()
			v.paused = !v.paused
			v.mu.Unlock()
			return nil
		case 'n':
			v.mu.Lock()
			v.nextStep = true
			v.mu.Unlock()
			return nil
		}
		return event
	})

	return v
}

func (v *viewer) shouldStep() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.nextStep {
		v.nextStep = false
		return true
	}
	return !v.paused
}

func (v *viewer) drawThreads() {
	for i, elem := range []string{"id", "state", "pc", "stack", "sched"} {
		cell := tview.NewTableCell(elem).
			SetAttributes(tcell.AttrBold).
			SetAlign(tview.AlignCenter)
		v.threadsView.SetCell(0, i, cell)
	}
	row := 1
	for id := 0; id < op.ThreadCount; id++ {
		t := v.machine.Thread(id)
		state := "inactive"
		color := tcell.ColorDimGray
		switch {
		case t.Active() && t.Paused():
			state, color = "paused", tcell.ColorYellow
		case t.Active():
			state, color = "running", tcell.ColorGreen
		}
		for col, content := range []string{
			fmt.Sprint(id),
			state,
			fmt.Sprintf("0x%04X", t.PC()),
			fmt.Sprint(t.Stack().Depth()),
			t.ScheduledString(),
		} {
			cell := tview.NewTableCell(content).SetAlign(tview.AlignRight).SetTextColor(color)
			v.threadsView.SetCell(row, col, cell)
		}
		row++
	}
}

func (v *viewer) drawState() {
	v.stateView.Clear()
	fmt.Fprintf(v.stateView, "Part: %s\n", v.machine.Part())
	fmt.Fprintf(v.stateView, "Tic: %d\n", v.machine.Ticks())
	fmt.Fprintf(v.stateView, "Front page: %d\n", v.machine.Video().Front())
	fmt.Fprintf(v.stateView, "Palette: %d\n", v.machine.Video().PaletteID())
	fmt.Fprintf(v.stateView, "\nRegisters (well-known):\n")
	for _, reg := range []struct {
		name string
		id   byte
	}{
		{"frame-duration", op.RegPauseSlices},
		{"random-seed", op.RegRandomSeed},
		{"left-right", op.RegHeroPosLeftRight},
		{"up-down", op.RegHeroPosUpDown},
		{"action", op.RegHeroAction},
		{"music-sync", op.RegMusicSync},
		{"scroll-y", op.RegScrollY},
	} {
		fmt.Fprintf(v.stateView, "  %-14s %6d\n", reg.name, v.machine.Register(reg.id))
	}
}

func (v *viewer) consumeMessages() {
	for msg := range v.machine.Messages {
		msg := msg
		v.app.QueueUpdateDraw(func() {
			fmt.Fprintf(v.logsView, "[%s][%d] %s[-]\n",
				messageColor(msg.Type), msg.Thread, strings.TrimSuffix(msg.Text, "\n"))
		})
	}
}

func messageColor(mt vm.MessageType) string {
	switch mt {
	case vm.MsgWarning:
		return "red"
	case vm.MsgPartChanged:
		return "green"
	case vm.MsgSound, vm.MsgMusic:
		return "blue"
	default:
		return "white"
	}
}

func (v *viewer) run() error {
	go v.consumeMessages()
	go func() {
		ticker := time.NewTicker(op.FrameSliceMs * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			if !v.shouldStep() {
				continue
			}
			if err := v.machine.RunTic(vm.Input{}); err != nil {
				v.app.QueueUpdateDraw(func() {
					fmt.Fprintf(v.logsView, "[red]tic failed: %s[-]\n", err)
				})
				v.mu.Lock()
				v.paused = true
				v.mu.Unlock()
				continue
			}
			v.app.QueueUpdateDraw(func() {
				v.drawThreads()
				v.drawState()
			})
		}
	}()
	return v.app.Run()
}

func main() {
	cfg, err := cli.ParseConfig()
	if err != nil {
		log.Fatalf("Failed to parse cli config: %s.", err)
	}
	cfg.Trace = true
	machine, repo, err := cli.NewMachine(cfg)
	if err != nil {
		log.Fatalf("Failed to build the machine: %s.", err)
	}
	defer repo.Close()

	if err := newViewer(machine).run(); err != nil {
		log.Fatalf("Viewer failed: %s.", err)
	}
}
