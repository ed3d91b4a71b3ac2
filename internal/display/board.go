// Package display renders readings into the text shown on each display
// target (a widget instance identified by an integer id).
package display

import (
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru"

	"github.com/tejusbharadwaj/weatherwidget/internal/models"
)

const (
	loadingGlyph     = "⟳"
	celsius          = "℃"
	notAvailable     = "N/A"
	waitingForUpdate = "Waiting for update"
	noNetwork        = "No network connection available."
)

// View is what a display target shows.
type View struct {
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	Status      string `json:"status"`
}

// LoadingView is shown while a refresh is in flight.
func LoadingView() View {
	return View{Temperature: loadingGlyph, Humidity: loadingGlyph, Status: waitingForUpdate}
}

// NoNetworkView is shown when no fetch was attempted for lack of connectivity.
func NoNetworkView() View {
	return View{Temperature: noNetwork}
}

// ReadingView formats a reading. Failed readings show their message as status.
func ReadingView(r models.Reading) View {
	if !r.Valid() {
		return View{Temperature: notAvailable, Humidity: notAvailable, Status: r.ErrorMessage()}
	}
	return View{
		Temperature: models.FormatTemperature(r.Temperature()) + celsius,
		Humidity:    strconv.Itoa(r.Humidity()) + "%",
		Status:      r.LastUpdatedString(),
	}
}

// Board keeps the current view of every display target. Targets that have
// not been rendered for a while are evicted once the board is full.
type Board struct {
	views *lru.Cache
}

func NewBoard(size int) (*Board, error) {
	views, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return &Board{views: views}, nil
}

func (b *Board) ShowLoading(targets []int) {
	b.set(targets, LoadingView())
}

func (b *Board) ShowNoNetwork(targets []int) {
	b.set(targets, NoNetworkView())
}

func (b *Board) Render(targets []int, r models.Reading) {
	b.set(targets, ReadingView(r))
}

// View returns the current view of target.
func (b *Board) View(target int) (View, bool) {
	v, ok := b.views.Get(target)
	if !ok {
		return View{}, false
	}
	return v.(View), true
}

// Targets lists the targets currently on the board, oldest first.
func (b *Board) Targets() []int {
	keys := b.views.Keys()
	targets := make([]int, 0, len(keys))
	for _, k := range keys {
		targets = append(targets, k.(int))
	}
	return targets
}

func (b *Board) set(targets []int, v View) {
	for _, t := range targets {
		b.views.Add(t, v)
	}
}
