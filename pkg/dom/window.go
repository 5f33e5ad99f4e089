package dom

// WindowOpener lets a host decide how popup windows are actually shown.
type WindowOpener interface {
	Open(url, name, features string) (*Window, error)
}

// WindowOpenerFunc adapts a function to WindowOpener.
type WindowOpenerFunc func(url, name, features string) (*Window, error)

// Open implements WindowOpener.
func (fn WindowOpenerFunc) Open(url, name, features string) (*Window, error) {
	return fn(url, name, features)
}

// Window is a secondary browsing window opened from the document.
type Window struct {
	URL      string
	Name     string
	Features string

	focused bool
	closed  bool
	onClose func()
}

// NewWindow creates a window record.
func NewWindow(url, name, features string) *Window {
	return &Window{URL: url, Name: name, Features: features}
}

// Focus gives the window focus.
func (w *Window) Focus() {
	if w.closed {
		return
	}
	w.focused = true
}

// Focused reports whether Focus was called while open.
func (w *Window) Focused() bool { return w.focused }

// Close closes the window. Closing twice is a no-op.
func (w *Window) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.focused = false
	if w.onClose != nil {
		w.onClose()
	}
}

// Closed reports whether the window has been closed.
func (w *Window) Closed() bool { return w.closed }

// OnClose registers fn to run when the window closes.
func (w *Window) OnClose(fn func()) {
	w.onClose = fn
}

// SetOpener overrides how the document opens windows.
func (d *Document) SetOpener(opener WindowOpener) {
	d.opener = opener
}

// Open opens a popup window and tracks it.
func (d *Document) Open(url, name, features string) (*Window, error) {
	var (
		win *Window
		err error
	)
	if d.opener != nil {
		win, err = d.opener.Open(url, name, features)
		if err != nil {
			return nil, err
		}
	}
	if win == nil {
		win = NewWindow(url, name, features)
	}
	d.windows = append(d.windows, win)
	return win, nil
}

// Windows returns every window opened so far.
func (d *Document) Windows() []*Window {
	return append([]*Window(nil), d.windows...)
}
