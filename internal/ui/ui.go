package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/tannerhaus/vdx/internal/api"
	"github.com/tannerhaus/vdx/internal/formatter"
	"github.com/tannerhaus/vdx/internal/listwatch"
	"github.com/tannerhaus/vdx/internal/models"
	"github.com/tannerhaus/vdx/internal/progress"
	"github.com/tannerhaus/vdx/internal/stream"
)

// ViewState represents the current view in the dashboard.
type ViewState int

const (
	DownloadsView ViewState = iota
	ListsView
	ListDetailView
	TasksView
	HistoryView
)

func (v ViewState) String() string {
	switch v {
	case DownloadsView:
		return "downloads"
	case ListsView:
		return "lists"
	case ListDetailView:
		return "list"
	case TasksView:
		return "tasks"
	case HistoryView:
		return "history"
	default:
		return ""
	}
}

// fetchTimeout bounds the one-shot fallback fetches.
const fetchTimeout = 10 * time.Second

// Deps holds everything the dashboard needs injected.
type Deps struct {
	API            *api.Client
	Streams        *stream.Client
	Store          *progress.Store
	Activity       *stream.Signal
	Logger         *log.Logger
	Origin         string
	PageSize       int
	ReconnectDelay time.Duration
}

// Model represents the dashboard state.
type Model struct {
	deps   Deps
	view   ViewState
	width  int
	height int
	keys   keyMap
	help   help.Model
	spin   spinner.Model
	events chan tea.Msg

	// downloads view: counted handle on the shared progress store
	handle          *progress.Handle
	stopForward     chan struct{}
	progressMap     models.ProgressMap
	progressLoading bool

	// lists view
	lists        *models.VideoListPage
	listsLoading bool
	listsSub     *stream.Subscription
	cursor       int

	// list detail view
	selected *models.VideoList
	watcher  *listwatch.Watcher
	detail   *models.VideoListUpdate
	videos   *models.VideoPage

	// tasks view
	tasks        *models.TaskPage
	tasksLoading bool
	tasksSub     *stream.Subscription
	statusFilter string

	// history view
	history        *models.HistoryPage
	historyLoading bool
	historySub     *stream.Subscription

	fallback string
}

// NewModel creates the dashboard model and opens the downloads view's
// subscription.
func NewModel(deps Deps) Model {
	if deps.PageSize <= 0 {
		deps.PageSize = 25
	}

	m := Model{
		deps:   deps,
		view:   DownloadsView,
		keys:   newKeyMap(),
		help:   help.New(),
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		events: make(chan tea.Msg, 32),
	}
	m.openDownloads()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.listen())
}

// listen waits for the next stream-originated message.
func (m Model) listen() tea.Cmd {
	events := m.events
	return func() tea.Msg { return <-events }
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.FocusMsg:
		// Active edge: the store and watcher reopen through the activity
		// signal; the generic view subscriptions are reopened here.
		m.deps.Activity.Set(true)
		cmd := m.reopenViewStreams()
		return m, cmd

	case tea.BlurMsg:
		m.deps.Activity.Set(false)
		m.closeViewStreams()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case Msg:
		next, cmd := m.updateStream(msg)
		return next, tea.Batch(cmd, next.listen())
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.teardown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.next):
		return m.switchView(m.nextView())

	case key.Matches(msg, m.keys.back):
		if m.view == ListDetailView {
			return m.switchView(ListsView)
		}
		return m, nil

	case key.Matches(msg, m.keys.up):
		if m.view == ListsView && m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.down):
		if m.view == ListsView && m.lists != nil && m.cursor < len(m.lists.Entries)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.enter):
		if m.view == ListsView && m.lists != nil && m.cursor < len(m.lists.Entries) {
			l := m.lists.Entries[m.cursor]
			m.selected = &l
			return m.switchView(ListDetailView)
		}
		return m, nil

	case key.Matches(msg, m.keys.filter):
		if m.view == TasksView {
			// A filter change builds a different URL; the old connection is
			// closed before the new one opens.
			m.statusFilter = nextStatusFilter(m.statusFilter)
			m.closeTasks()
			m.openTasks()
			return m, nil
		}
		return m, nil
	}

	return m, nil
}

func nextStatusFilter(current string) string {
	switch current {
	case "":
		return "pending"
	case "pending":
		return "running"
	default:
		return ""
	}
}

func (m Model) nextView() ViewState {
	switch m.view {
	case DownloadsView:
		return ListsView
	case ListsView:
		return TasksView
	case ListDetailView:
		return TasksView
	case TasksView:
		return HistoryView
	default:
		return DownloadsView
	}
}

// switchView tears down the current view's subscriptions and opens the next
// view's.
func (m Model) switchView(v ViewState) (tea.Model, tea.Cmd) {
	m.closeViewStreams()
	m.view = v
	return m, m.reopenViewStreams()
}

func (m Model) updateStream(msg Msg) (Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgress:
		m.progressMap = msg.data.(models.ProgressMap)
		m.progressLoading = false

	case MsgListUpdate:
		update := msg.data.(models.VideoListUpdate)
		m.detail = &update
		if len(update.ChangedVideoIDs) > 0 && m.selected != nil {
			// Targeted refetch: only the rows changed, not the whole page.
			return m, m.fetchVideosCmd(m.selected.ID)
		}

	case MsgListsLoaded:
		data := msg.data.(struct {
			page *models.VideoListPage
			err  error
		})
		m.listsLoading = false
		if data.err != nil {
			m.deps.Logger.Warn("lists load failed", "err", data.err)
		} else if data.page != nil {
			m.lists = data.page
			if m.cursor >= len(data.page.Entries) {
				m.cursor = 0
			}
		}

	case MsgTasksLoaded:
		data := msg.data.(struct {
			page *models.TaskPage
			err  error
		})
		m.tasksLoading = false
		if data.err != nil {
			m.deps.Logger.Warn("tasks load failed", "err", data.err)
		} else if data.page != nil {
			m.tasks = data.page
		}

	case MsgHistoryLoaded:
		data := msg.data.(struct {
			page *models.HistoryPage
			err  error
		})
		m.historyLoading = false
		if data.err != nil {
			m.deps.Logger.Warn("history load failed", "err", data.err)
		} else if data.page != nil {
			m.history = data.page
		}

	case MsgVideosLoaded:
		data := msg.data.(struct {
			page *models.VideoPage
			err  error
		})
		if data.err != nil {
			m.deps.Logger.Warn("videos load failed", "err", data.err)
		} else if data.page != nil {
			m.videos = data.page
		}

	case MsgStreamFallback:
		m.fallback = msg.data.(string)
	}

	return m, nil
}

// openDownloads subscribes to the shared progress store and forwards its
// snapshots into the bubbletea loop.
func (m *Model) openDownloads() {
	if m.handle != nil {
		return
	}
	m.progressLoading = m.progressMap == nil
	m.handle = m.deps.Store.Subscribe()
	m.stopForward = make(chan struct{})

	handle, stop, events := m.handle, m.stopForward, m.events
	go func() {
		for {
			select {
			case <-stop:
				return
			case snap := <-handle.Updates():
				events <- progressMsg(snap)
			}
		}
	}()
}

func (m *Model) closeDownloads() {
	if m.handle == nil {
		return
	}
	close(m.stopForward)
	m.handle.Close()
	m.handle = nil
}

func (m *Model) openLists() {
	if m.listsSub != nil {
		return
	}
	m.listsLoading = m.lists == nil
	url := api.ListsStreamURL(m.deps.Origin, api.Filters{}, api.Pagination{PageSize: m.deps.PageSize})
	m.listsSub = m.subscribePage(url, "lists", func(raw json.RawMessage) (tea.Msg, bool) {
		var page models.VideoListPage
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, false
		}
		return listsLoadedMsg(&page, nil), true
	}, func(ctx context.Context) tea.Msg {
		page, err := m.deps.API.FetchLists(ctx, api.Filters{}, api.Pagination{PageSize: m.deps.PageSize})
		return listsLoadedMsg(page, err)
	})
}

func (m *Model) closeLists() {
	if m.listsSub != nil {
		m.listsSub.Close()
		m.listsSub = nil
	}
}

func (m *Model) openTasks() {
	if m.tasksSub != nil {
		return
	}
	m.tasksLoading = m.tasks == nil
	filters := api.Filters{Status: m.statusFilter}
	url := api.TasksStreamURL(m.deps.Origin, filters, api.Pagination{PageSize: m.deps.PageSize})
	m.tasksSub = m.subscribePage(url, "tasks", func(raw json.RawMessage) (tea.Msg, bool) {
		var page models.TaskPage
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, false
		}
		return tasksLoadedMsg(&page, nil), true
	}, func(ctx context.Context) tea.Msg {
		page, err := m.deps.API.FetchTasks(ctx, filters, api.Pagination{PageSize: m.deps.PageSize})
		return tasksLoadedMsg(page, err)
	})
}

func (m *Model) closeTasks() {
	if m.tasksSub != nil {
		m.tasksSub.Close()
		m.tasksSub = nil
	}
}

func (m *Model) openHistory() {
	if m.historySub != nil {
		return
	}
	m.historyLoading = m.history == nil
	url := api.HistoryStreamURL(m.deps.Origin, api.Filters{}, api.Pagination{PageSize: m.deps.PageSize})
	m.historySub = m.subscribePage(url, "history", func(raw json.RawMessage) (tea.Msg, bool) {
		var page models.HistoryPage
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, false
		}
		return historyLoadedMsg(&page, nil), true
	}, func(ctx context.Context) tea.Msg {
		page, err := m.deps.API.FetchHistory(ctx, api.Filters{}, api.Pagination{PageSize: m.deps.PageSize})
		return historyLoadedMsg(page, err)
	})
}

func (m *Model) closeHistory() {
	if m.historySub != nil {
		m.historySub.Close()
		m.historySub = nil
	}
}

// subscribePage opens a generic stream subscription whose error path degrades
// to a one-shot REST fetch with the same parameters. Either way the view
// leaves its loading state.
func (m *Model) subscribePage(url, resource string, decode func(json.RawMessage) (tea.Msg, bool), fallback func(context.Context) tea.Msg) *stream.Subscription {
	events, logger := m.events, m.deps.Logger
	return m.deps.Streams.Subscribe(url,
		func(raw json.RawMessage) {
			if msg, ok := decode(raw); ok {
				events <- msg
			} else {
				logger.Debug("dropping undecodable stream payload", "resource", resource)
			}
		},
		func(err error) {
			logger.Warn("stream degraded to one-shot fetch", "resource", resource, "err", err)
			events <- streamFallbackMsg(resource)
			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			defer cancel()
			events <- fallback(ctx)
		})
}

func (m *Model) openDetail() {
	if m.watcher != nil || m.selected == nil {
		return
	}
	m.detail = nil
	events := m.events
	m.watcher = listwatch.New(listwatch.Opts{
		Client:         m.deps.Streams,
		Origin:         m.deps.Origin,
		ListID:         m.selected.ID,
		Activity:       m.deps.Activity,
		Logger:         m.deps.Logger,
		ReconnectDelay: m.deps.ReconnectDelay,
		OnUpdate: func(update models.VideoListUpdate) {
			events <- listUpdateMsg(update)
		},
	})
	m.watcher.Start()
}

func (m *Model) closeDetail() {
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
}

// closeViewStreams closes every open subscription for the current view.
func (m *Model) closeViewStreams() {
	m.closeDownloads()
	m.closeLists()
	m.closeTasks()
	m.closeHistory()
	m.closeDetail()
}

// reopenViewStreams opens the current view's subscriptions and returns any
// initial fetch command.
func (m *Model) reopenViewStreams() tea.Cmd {
	if !m.deps.Activity.Active() {
		return nil
	}
	switch m.view {
	case DownloadsView:
		m.openDownloads()
	case ListsView:
		m.openLists()
	case ListDetailView:
		m.openDetail()
		if m.selected != nil {
			return m.fetchVideosCmd(m.selected.ID)
		}
	case TasksView:
		m.openTasks()
	case HistoryView:
		m.openHistory()
	}
	return nil
}

func (m Model) fetchVideosCmd(listID int64) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		page, err := deps.API.FetchListVideos(ctx, listID, api.Filters{}, api.Pagination{PageSize: deps.PageSize})
		return videosLoadedMsg(page, err)
	}
}

func (m *Model) teardown() {
	m.closeViewStreams()
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.tabsView())
	b.WriteString("\n")

	switch m.view {
	case DownloadsView:
		b.WriteString(m.downloadsView())
	case ListsView:
		b.WriteString(m.listsView())
	case ListDetailView:
		b.WriteString(m.detailView())
	case TasksView:
		b.WriteString(m.tasksView())
	case HistoryView:
		b.WriteString(m.historyView())
	}

	if m.fallback != "" {
		b.WriteString(styles.warn.Render(fmt.Sprintf("%s stream unavailable, showing last fetched data", m.fallback)))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) tabsView() string {
	tabs := []ViewState{DownloadsView, ListsView, TasksView, HistoryView}
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		label := t.String()
		if t == m.view || (t == ListsView && m.view == ListDetailView) {
			parts = append(parts, styles.active.Render(label))
		} else {
			parts = append(parts, styles.help.Render(label))
		}
	}
	return styles.title.Render("vdx") + "  " + strings.Join(parts, " · ") + "\n"
}

func (m Model) downloadsView() string {
	if m.progressLoading {
		return m.spin.View() + " waiting for progress...\n"
	}
	if len(m.progressMap) == 0 {
		return styles.help.Render("no active downloads") + "\n"
	}
	return formatter.ProgressToTable(m.progressMap)
}

func (m Model) listsView() string {
	if m.listsLoading {
		return m.spin.View() + " loading lists...\n"
	}
	if m.lists == nil || len(m.lists.Entries) == 0 {
		return styles.help.Render("no lists") + "\n"
	}

	var b strings.Builder
	for i, l := range m.lists.Entries {
		marker := "  "
		if i == m.cursor {
			marker = styles.ok.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%s%s (%s) — %d videos, %d downloaded, %d failed\n",
			marker, l.Name, l.EntityType, l.Stats.TotalVideos, l.Stats.Downloaded, l.Stats.Failed))
	}
	return b.String()
}

func (m Model) detailView() string {
	if m.selected == nil {
		return styles.help.Render("no list selected") + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(m.selected.Name) + "\n")

	if m.detail == nil {
		b.WriteString(m.spin.View() + " waiting for list updates...\n")
	} else {
		s := m.detail.Stats
		b.WriteString(fmt.Sprintf("videos %d · downloaded %s · failed %s · pending %d\n",
			s.TotalVideos,
			styles.ok.Render(fmt.Sprintf("%d", s.Downloaded)),
			styles.err.Render(fmt.Sprintf("%d", s.Failed)),
			s.Pending))
		q := m.detail.Tasks
		b.WriteString(fmt.Sprintf("queues: sync %d/%d · download %d/%d (pending/running)\n",
			len(q.Sync.Pending), len(q.Sync.Running),
			len(q.Download.Pending), len(q.Download.Running)))
	}

	if m.videos != nil {
		b.WriteString("\n")
		for _, v := range m.videos.Entries {
			b.WriteString(fmt.Sprintf("  %s [%s]\n", v.Title, v.Status))
		}
	}
	return b.String()
}

func (m Model) tasksView() string {
	if m.tasksLoading {
		return m.spin.View() + " loading tasks...\n"
	}
	header := ""
	if m.statusFilter != "" {
		header = styles.warn.Render("filter: status="+m.statusFilter) + "\n"
	}
	if m.tasks == nil {
		return header + styles.help.Render("no tasks") + "\n"
	}
	return header + formatter.TasksToTable(m.tasks)
}

func (m Model) historyView() string {
	if m.historyLoading {
		return m.spin.View() + " loading history...\n"
	}
	if m.history == nil {
		return styles.help.Render("no history") + "\n"
	}
	return formatter.HistoryToTable(m.history)
}
