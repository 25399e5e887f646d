// Package trigger hosts the event sources that start an interaction: the
// global hotkey and the wake word listener. Both run on their own goroutine
// for the life of the process and invoke the orchestrator's callback.
package trigger

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"

	"golang.design/x/hotkey"
)

// HotkeyListener fires the trigger callback on a global keyboard shortcut.
// The binding is read from the provider once at startup; changing it takes a
// daemon restart.
type HotkeyListener struct {
	binding   func() string
	onTrigger func()
}

func NewHotkeyListener(binding func() string, onTrigger func()) *HotkeyListener {
	return &HotkeyListener{binding: binding, onTrigger: onTrigger}
}

// Run registers the shortcut and blocks dispatching keydown events until ctx
// is cancelled.
func (l *HotkeyListener) Run(ctx context.Context) error {
	spec := l.binding()
	mods, key, err := parseBinding(spec)
	if err != nil {
		return fmt.Errorf("hotkey %q: %w", spec, err)
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register hotkey %q: %w", spec, err)
	}
	defer hk.Unregister()

	log.Info("hotkey registered", "binding", spec)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hk.Keydown():
			log.Debug("hotkey pressed", "binding", spec)
			l.onTrigger()
		}
	}
}

// parseBinding turns "ctrl+shift+q" into hotkey modifiers and a key. The
// final token is the key (a letter or digit); everything before it is a
// modifier.
func parseBinding(spec string) ([]hotkey.Modifier, hotkey.Key, error) {
	tokens := strings.Split(strings.ToLower(strings.TrimSpace(spec)), "+")
	if len(tokens) == 0 || tokens[0] == "" {
		return nil, 0, fmt.Errorf("empty binding")
	}

	var mods []hotkey.Modifier
	for _, tok := range tokens[:len(tokens)-1] {
		switch tok {
		case "ctrl", "control":
			mods = append(mods, hotkey.ModCtrl)
		case "shift":
			mods = append(mods, hotkey.ModShift)
		default:
			return nil, 0, fmt.Errorf("unsupported modifier %q", tok)
		}
	}

	key, err := parseKey(tokens[len(tokens)-1])
	if err != nil {
		return nil, 0, err
	}
	return mods, key, nil
}

func parseKey(tok string) (hotkey.Key, error) {
	if len(tok) != 1 {
		return 0, fmt.Errorf("unsupported key %q", tok)
	}
	c := tok[0]
	switch {
	case c >= 'a' && c <= 'z':
		return letterKeys[c-'a'], nil
	case c >= '0' && c <= '9':
		return digitKeys[c-'0'], nil
	}
	return 0, fmt.Errorf("unsupported key %q", tok)
}

var letterKeys = [26]hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE,
	hotkey.KeyF, hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ,
	hotkey.KeyK, hotkey.KeyL, hotkey.KeyM, hotkey.KeyN, hotkey.KeyO,
	hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR, hotkey.KeyS, hotkey.KeyT,
	hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX, hotkey.KeyY,
	hotkey.KeyZ,
}

var digitKeys = [10]hotkey.Key{
	hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
	hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
}
