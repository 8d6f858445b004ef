package terminal

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/hako/durafmt"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/keysynth/keymap"
)

const (
	cellWidth  = 6
	cellHeight = 3
	rowStagger = 2
	gridTop    = 3
)

var (
	styleTitle    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleBanner   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkRed).Bold(true)
	stylePluck    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	stylePad      = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorPurple)
	styleSounding = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow).Bold(true)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleMuted    = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleHelp     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkSlateGray)
)

var helpLines = []string{
	"keysynth",
	"",
	"1-0 q-p   upper keys; digits and u i o p are pads",
	"a-; z-/   lower keys, plucked",
	"mouse     press and drag across the grid",
	"",
	"F1  toggle this help",
	"F2  mute new notes",
	"F3  release all notes",
	"Esc quit",
}

// cell is the screen rectangle of one key
type cell struct {
	key  keymap.KeyID
	x, y int
}

// layout places the rows as a staggered keyboard centered horizontally
func (ui *UI) layout() {
	rows := keymap.Rows()
	widest := 0
	for i, row := range rows {
		widest = max(widest, i*rowStagger+len(row)*cellWidth)
	}
	x0 := max((ui.width-widest)/2, 0)

	ui.grid = ui.grid[:0]
	for i, row := range rows {
		for j, key := range row {
			ui.grid = append(ui.grid, cell{
				key: key,
				x:   x0 + i*rowStagger + j*cellWidth,
				y:   gridTop + i*cellHeight,
			})
		}
	}
}

// keyAt returns the key drawn at x, y; the one-column gap between cells maps to none
func (ui *UI) keyAt(x, y int) keymap.KeyID {
	for _, c := range ui.grid {
		if x >= c.x && x < c.x+cellWidth-1 && y >= c.y && y < c.y+cellHeight-1 {
			return c.key
		}
	}
	return 0
}

func (ui *UI) draw() {
	ui.screen.Clear()

	ui.drawCentered(0, "keysynth", styleTitle)
	if !ui.synth.IsReady() {
		msg := "audio unavailable, notes are ignored"
		if ui.reason != "" {
			msg += ": " + ui.reason
		}
		ui.drawCentered(1, " "+msg+" ", styleBanner)
	}

	sounding := make(map[keymap.KeyID]bool)
	for _, key := range ui.synth.Sounding() {
		sounding[key] = true
	}
	for _, c := range ui.grid {
		ui.drawCell(c, sounding[c.key])
	}

	ui.drawStatus()
	if ui.showHelp {
		ui.drawHelp()
	}

	ui.screen.Show()
}

func (ui *UI) drawCell(c cell, on bool) {
	style := stylePluck
	if keymap.IsSustained(c.key) {
		style = stylePad
	}
	if on {
		style = styleSounding
	}

	w, h := cellWidth-1, cellHeight-1
	for dy := range h {
		for dx := range w {
			ui.screen.SetContent(c.x+dx, c.y+dy, ' ', nil, style)
		}
	}

	label := strings.ToUpper(string(rune(c.key)))
	ui.drawText(c.x+(w-runewidth.StringWidth(label))/2, c.y, label, style)
	if spec, ok := keymap.Lookup(c.key); ok {
		ui.drawText(c.x+(w-runewidth.StringWidth(spec.Name))/2, c.y+1, spec.Name, style)
	}
}

func (ui *UI) drawStatus() {
	y := ui.height - 1
	if y <= gridTop {
		return
	}

	stats := ui.synth.Stats()
	uptime := ui.clock.Now().Sub(ui.started).Round(time.Second)
	line := fmt.Sprintf(" voices %d | notes %s | ignored %s | up %s | F1 help",
		ui.synth.ActiveVoices(),
		humanize.Comma(int64(stats.Started)),
		humanize.Comma(int64(stats.Muted+stats.NotReady+stats.Duplicate+stats.Failed)),
		durafmt.Parse(uptime).LimitFirstN(2).String(),
	)
	x := ui.drawText(0, y, line, styleStatus)
	if ui.synth.Muted() {
		ui.drawText(x+1, y, "MUTED", styleMuted)
	}
}

func (ui *UI) drawHelp() {
	w := 0
	for _, l := range helpLines {
		w = max(w, runewidth.StringWidth(l))
	}
	w += 4
	h := len(helpLines) + 2
	x0 := max((ui.width-w)/2, 0)
	y0 := max((ui.height-h)/2, 0)

	for dy := range h {
		for dx := range w {
			ui.screen.SetContent(x0+dx, y0+dy, ' ', nil, styleHelp)
		}
	}
	for i, l := range helpLines {
		ui.drawText(x0+2, y0+1+i, l, styleHelp)
	}
}

func (ui *UI) drawCentered(y int, text string, style tcell.Style) {
	x := max((ui.width-runewidth.StringWidth(text))/2, 0)
	ui.drawText(x, y, text, style)
}

// drawText writes text at x, y clipped to the screen, returns the column after it
func (ui *UI) drawText(x, y int, text string, style tcell.Style) int {
	for _, r := range text {
		if x >= ui.width {
			break
		}
		ui.screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
	return x
}
