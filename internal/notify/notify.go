// Package notify announces finished actions through desktop notifications.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/lectern/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventSave fires when the sidecar file has been written.
	EventSave Event = "save"
	// EventExport fires when an annotated copy of the deck has been written.
	EventExport Event = "export"
	// EventCopy fires when a slide or label is put on the clipboard.
	EventCopy Event = "copy"
	// EventReload fires when the document was reloaded after a change on disk.
	EventReload Event = "reload"
)

// Events lists every event in configuration order.
var Events = []Event{EventSave, EventExport, EventCopy, EventReload}

// ParseEvent returns the event named s.
func ParseEvent(s string) (Event, bool) {
	for _, e := range Events {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "Lectern",
		Events: map[Event]EventPreference{
			EventSave:   {Template: "Saved annotations to %s"},
			EventExport: {Template: "Exported %s"},
			EventCopy:   {Template: "Copied %s to clipboard"},
			EventReload: {Template: "Reloaded %s"},
		},
	}
}

// LoadPreferences reads overrides from LECTERN_NOTIFY_* environment
// variables on top of the defaults.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("LECTERN_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, event := range Events {
		key := "LECTERN_NOTIFY_" + strings.ToUpper(string(event)) + "_TEXT"
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			eventPrefs := prefs.Events[event]
			eventPrefs.Template = v
			prefs.Events[event] = eventPrefs
		}
	}
	return prefs
}

// send is swapped out by tests.
var send = platform.Notify

// Notifier sends OS-level notifications based on the configured preferences.
// Every event starts disabled.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
}

// New creates a new Notifier using the provided preferences.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool)}
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	if n.enabled == nil {
		n.enabled = make(map[Event]bool)
	}
	n.enabled[event] = enabled
}

// Save reports the sidecar file that was written.
func (n *Notifier) Save(path string) {
	n.dispatch(EventSave, absolute(path), platform.Options{})
}

// Export reports an exported file, using it as the icon when it is an
// image.
func (n *Notifier) Export(path string) {
	if !n.enabledFor(EventExport) {
		return
	}
	detail := absolute(path)
	opts := platform.Options{}
	switch strings.ToLower(filepath.Ext(detail)) {
	case ".png", ".jpg", ".jpeg":
		if _, err := os.Stat(detail); err == nil {
			opts.IconPath = detail
		}
	}
	n.dispatch(EventExport, detail, opts)
}

// Copy sends a clipboard notification, with img as a preview when given.
func (n *Notifier) Copy(detail string, img image.Image) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "slide"
	}
	opts := platform.Options{Urgency: platform.UrgencyLow}
	if img != nil {
		if path, cleanup, err := createPreview(img); err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventCopy, detail, opts)
}

// Reload reports a document reloaded from disk.
func (n *Notifier) Reload(path string) {
	n.dispatch(EventReload, filepath.Base(path), platform.Options{Urgency: platform.UrgencyLow})
}

func absolute(path string) string {
	detail := strings.TrimSpace(path)
	if abs, err := filepath.Abs(detail); err == nil {
		return abs
	}
	return detail
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil {
		return false
	}
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	template := strings.TrimSpace(n.template(event))
	if template == "" {
		return
	}
	body := template
	if strings.Contains(template, "%s") {
		body = fmt.Sprintf(template, strings.TrimSpace(detail))
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	if err := send(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

func (n *Notifier) template(event Event) string {
	if pref, ok := n.prefs.Events[event]; ok {
		return pref.Template
	}
	return ""
}

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "lectern-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}
