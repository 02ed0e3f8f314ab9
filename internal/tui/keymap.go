package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit           key.Binding
	reload         key.Binding
	toggleHelp     key.Binding
	addActivity    key.Binding
	deleteActivity key.Binding
	runAnalysis    key.Binding
	statistics     key.Binding
	yank           key.Binding
	changeUnit     key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "back/quit")),
		reload:         key.NewBinding(key.WithKeys("R", "shift+r"), key.WithHelp("R", "reload")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		addActivity:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add activity")),
		deleteActivity: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete activity")),
		runAnalysis:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "run analysis")),
		statistics:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "statistics")),
		yank:           key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy schedule")),
		changeUnit:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "display unit")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addActivity, k.runAnalysis, k.statistics, k.yank, k.changeUnit, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addActivity, k.deleteActivity, k.runAnalysis, k.statistics},
		{k.yank, k.changeUnit, k.reload},
		{k.toggleHelp, k.quit},
	}
}
