package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type StatusBar struct {
	container     *fyne.Container
	statusLabel   *widget.Label
	strategyLabel *widget.Label
}

func NewStatusBar(initial string) *StatusBar {
	statusLabel := widget.NewLabel(initial)
	strategyLabel := widget.NewLabel("")

	mainContainer := container.NewBorder(
		widget.NewSeparator(), nil,
		statusLabel,
		strategyLabel,
	)

	return &StatusBar{
		container:     mainContainer,
		statusLabel:   statusLabel,
		strategyLabel: strategyLabel,
	}
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

func (sb *StatusBar) SetStatus(status string) {
	sb.statusLabel.SetText(status)
}

func (sb *StatusBar) Status() string {
	return sb.statusLabel.Text
}

// SetStrategy shows which segmentation strategy uploads will use.
func (sb *StatusBar) SetStrategy(name string) {
	if name == "" {
		sb.strategyLabel.SetText("")
		return
	}
	sb.strategyLabel.SetText("Segmentation: " + name)
}
