// Package terminal is the tcell front-end: key grid, keyboard and mouse input, status line
package terminal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/keysynth/core"
	"github.com/lixenwraith/keysynth/engine"
	"github.com/lixenwraith/keysynth/keymap"
	"github.com/lixenwraith/keysynth/parameter"
	"github.com/lixenwraith/keysynth/synth"
)

// Synth is the note sink driven by the UI
type Synth interface {
	NoteOn(key keymap.KeyID)
	NoteOff(key keymap.KeyID)
	ReleaseAll()
	ToggleMute() bool
	Muted() bool
	IsReady() bool
	Sounding() []keymap.KeyID
	ActiveVoices() int
	Stats() synth.Stats
}

var _ Synth = (*synth.Manager)(nil)

// Options configures the UI
type Options struct {
	HoldTimeout time.Duration // key-up emulation delay
	Mouse       bool
	Clock       engine.Clock
	Reason      string // shown in the not-ready banner
}

// UI owns the screen and translates input into note events
type UI struct {
	screen tcell.Screen
	synth  Synth
	clock  engine.Clock

	holdTimeout time.Duration
	mouse       bool
	reason      string

	width, height int
	grid          []cell

	// Keyboard keys held by repeat, keyed to last press time
	held map[keymap.KeyID]time.Time
	// Key under a pressed mouse button, 0 when none
	mouseKey keymap.KeyID

	showHelp bool
	started  time.Time
}

// New creates a UI on an initialized screen
func New(screen tcell.Screen, s Synth, opts Options) *UI {
	if opts.Clock == nil {
		opts.Clock = engine.NewRealClock()
	}
	if opts.HoldTimeout <= 0 {
		opts.HoldTimeout = parameter.HoldTimeout
	}

	ui := &UI{
		screen:      screen,
		synth:       s,
		clock:       opts.Clock,
		holdTimeout: opts.HoldTimeout,
		mouse:       opts.Mouse,
		reason:      opts.Reason,
		held:        make(map[keymap.KeyID]time.Time),
		started:     opts.Clock.Now(),
	}
	if ui.mouse {
		screen.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)
	}
	screen.HideCursor()
	ui.width, ui.height = screen.Size()
	ui.layout()
	return ui
}

// Run processes input until quit or ctx is done
func (ui *UI) Run(ctx context.Context) error {
	ticker := time.NewTicker(parameter.FrameUpdateInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)

	core.Go(func() {
		for {
			ev := ui.screen.PollEvent()
			if ev == nil {
				// Screen finalized
				return
			}
			select {
			case eventChan <- ev:
			case <-quit:
				return
			}
		}
	})

	ui.draw()
	for {
		select {
		case <-ctx.Done():
			ui.releaseHeld()
			return ctx.Err()

		case ev := <-eventChan:
			if !ui.handleEvent(ev) {
				ui.releaseHeld()
				return nil
			}

		case <-ticker.C:
			ui.expireHolds(ui.clock.Now())
			ui.draw()
		}
	}
}

// handleEvent returns false when the user asked to quit
func (ui *UI) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return ui.handleKey(ev)

	case *tcell.EventMouse:
		if ui.mouse {
			ui.handleMouse(ev)
		}

	case *tcell.EventResize:
		ui.width, ui.height = ui.screen.Size()
		ui.layout()
		ui.screen.Sync()
	}
	return true
}

func (ui *UI) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyF1:
		ui.showHelp = !ui.showHelp
	case tcell.KeyF2:
		ui.synth.ToggleMute()
	case tcell.KeyF3:
		ui.synth.ReleaseAll()
		clear(ui.held)
		ui.mouseKey = 0
	case tcell.KeyRune:
		ui.press(keymap.Normalize(ev.Rune()))
	}
	return true
}

// press starts a note on first press; terminal auto-repeat only refreshes the hold
func (ui *UI) press(key keymap.KeyID) {
	if _, ok := keymap.Lookup(key); !ok {
		return
	}
	now := ui.clock.Now()
	if _, held := ui.held[key]; held {
		ui.held[key] = now
		return
	}
	ui.held[key] = now
	if key != ui.mouseKey {
		ui.synth.NoteOn(key)
	}
}

// expireHolds emits key-up for keys with no repeat inside the hold timeout
func (ui *UI) expireHolds(now time.Time) {
	for key, last := range ui.held {
		if now.Sub(last) < ui.holdTimeout {
			continue
		}
		delete(ui.held, key)
		if key != ui.mouseKey {
			ui.synth.NoteOff(key)
		}
	}
}

func (ui *UI) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	pressed := ev.Buttons()&tcell.Button1 != 0

	key := keymap.KeyID(0)
	if pressed {
		key = ui.keyAt(x, y)
	}
	if key == ui.mouseKey {
		return
	}

	// Leaving a cell or releasing the button ends the previous note
	if prev := ui.mouseKey; prev != 0 {
		ui.mouseKey = 0
		if _, held := ui.held[prev]; !held {
			ui.synth.NoteOff(prev)
		}
	}
	if key != 0 {
		ui.mouseKey = key
		if _, held := ui.held[key]; !held {
			ui.synth.NoteOn(key)
		}
	}
}

func (ui *UI) releaseHeld() {
	for key := range ui.held {
		ui.synth.NoteOff(key)
	}
	clear(ui.held)
	if ui.mouseKey != 0 {
		ui.synth.NoteOff(ui.mouseKey)
		ui.mouseKey = 0
	}
}

// Held returns the number of keyboard keys currently held
func (ui *UI) Held() int {
	return len(ui.held)
}
