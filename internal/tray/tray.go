// Package tray provides a system tray menu for toggling the overlay and
// showing the current pastel color.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/pastelhands/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle  func(enabled bool)
	onPreview func()
	onQuit    func()
	enabled   bool
	color     gesture.Color
	mu        sync.RWMutex

	menuToggle *systray.MenuItem
	menuColor  *systray.MenuItem
}

// New creates a new Tray, enabled and showing the default color.
func New() *Tray {
	return &Tray{
		enabled: true,
		color:   gesture.DefaultColor,
	}
}

// OnToggle sets the callback for the enable/disable item.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnPreview sets the callback for the preview item.
func (t *Tray) OnPreview(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPreview = fn
}

// OnQuit sets the callback for the quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit is called and must run
// on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("PastelHands")
	systray.SetTooltip("PastelHands fingertip overlay")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle the overlay")
	systray.AddSeparator()

	t.menuColor = systray.AddMenuItem(colorTitle(t.color), "Current overlay color")
	t.menuColor.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuPreview := systray.AddMenuItem("Open Preview...", "Open the preview in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit PastelHands")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuPreview.ClickedCh:
				t.handlePreview()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Overlay on"
	}
	return "○ Overlay off"
}

func colorTitle(c gesture.Color) string {
	return "Color: " + c.Name + " " + c.Hex
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handlePreview() {
	t.mu.RLock()
	callback := t.onPreview
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetColor updates the color item.
func (t *Tray) SetColor(c gesture.Color) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.color = c
	if t.menuColor != nil {
		t.menuColor.SetTitle(colorTitle(c))
	}
}

// Color returns the color last passed to SetColor.
func (t *Tray) Color() gesture.Color {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.color
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
