package mapclient

// StatusSink receives request-lifecycle signals for the UI layer:
// spinner on send, spinner off on settlement, a banner on final
// failure. Signals are purely observational and carry no data back
// into the dispatch logic. Implementations must return promptly and
// must not call back into the Client.
type StatusSink interface {
	ShowLoading()
	HideLoading()
	ShowError(msg string)
	DismissError()
}

// NopSink discards all signals.
type NopSink struct{}

func (NopSink) ShowLoading()     {}
func (NopSink) HideLoading()     {}
func (NopSink) ShowError(string) {}
func (NopSink) DismissError()    {}
