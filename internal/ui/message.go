package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tannerhaus/vdx/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgProgress MsgKind = iota
	MsgListUpdate
	MsgListsLoaded
	MsgTasksLoaded
	MsgHistoryLoaded
	MsgVideosLoaded
	MsgStreamFallback
)

// progressMsg is the constructor for [MsgProgress]
func progressMsg(m models.ProgressMap) Msg {
	return Msg{kind: MsgProgress, data: m}
}

// listUpdateMsg is the constructor for [MsgListUpdate]
func listUpdateMsg(update models.VideoListUpdate) Msg {
	return Msg{kind: MsgListUpdate, data: update}
}

// listsLoadedMsg is the constructor for [MsgListsLoaded]
func listsLoadedMsg(page *models.VideoListPage, err error) Msg {
	return Msg{
		kind: MsgListsLoaded,
		data: struct {
			page *models.VideoListPage
			err  error
		}{page, err},
	}
}

// tasksLoadedMsg is the constructor for [MsgTasksLoaded]
func tasksLoadedMsg(page *models.TaskPage, err error) Msg {
	return Msg{
		kind: MsgTasksLoaded,
		data: struct {
			page *models.TaskPage
			err  error
		}{page, err},
	}
}

// historyLoadedMsg is the constructor for [MsgHistoryLoaded]
func historyLoadedMsg(page *models.HistoryPage, err error) Msg {
	return Msg{
		kind: MsgHistoryLoaded,
		data: struct {
			page *models.HistoryPage
			err  error
		}{page, err},
	}
}

// videosLoadedMsg is the constructor for [MsgVideosLoaded]
func videosLoadedMsg(page *models.VideoPage, err error) Msg {
	return Msg{
		kind: MsgVideosLoaded,
		data: struct {
			page *models.VideoPage
			err  error
		}{page, err},
	}
}

// streamFallbackMsg is the constructor for [MsgStreamFallback]; resource
// names which stream degraded to a one-shot fetch.
func streamFallbackMsg(resource string) Msg {
	return Msg{kind: MsgStreamFallback, data: resource}
}
