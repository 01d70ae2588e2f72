// package formatter renders server resources (lists, tasks, history,
// progress) as aligned text tables or CSV for one-shot CLI output
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/tannerhaus/vdx/internal/models"
)

// ListsToCSV converts a page of video lists to CSV.
func ListsToCSV(page *models.VideoListPage) ([]byte, error) {
	return writeCSV(
		[]string{"ID", "Name", "Type", "Enabled", "Videos", "Downloaded", "Failed", "Pending"},
		len(page.Entries),
		func(i int) []string {
			l := page.Entries[i]
			return []string{
				strconv.FormatInt(l.ID, 10),
				l.Name,
				l.EntityType,
				strconv.FormatBool(l.Enabled),
				strconv.Itoa(l.Stats.TotalVideos),
				strconv.Itoa(l.Stats.Downloaded),
				strconv.Itoa(l.Stats.Failed),
				strconv.Itoa(l.Stats.Pending),
			}
		},
	)
}

// TasksToCSV converts a page of tasks to CSV.
func TasksToCSV(page *models.TaskPage) ([]byte, error) {
	return writeCSV(
		[]string{"ID", "List", "Video", "Type", "Status", "Created"},
		len(page.Entries),
		func(i int) []string {
			t := page.Entries[i]
			return []string{
				strconv.FormatInt(t.ID, 10),
				strconv.FormatInt(t.ListID, 10),
				strconv.FormatInt(t.VideoID, 10),
				t.EntityType,
				t.Status,
				t.CreatedAt.Format("2006-01-02 15:04:05"),
			}
		},
	)
}

// HistoryToCSV converts a page of history entries to CSV.
func HistoryToCSV(page *models.HistoryPage) ([]byte, error) {
	return writeCSV(
		[]string{"ID", "List", "Video", "Type", "Status", "Message", "Finished"},
		len(page.Entries),
		func(i int) []string {
			h := page.Entries[i]
			return []string{
				strconv.FormatInt(h.ID, 10),
				strconv.FormatInt(h.ListID, 10),
				strconv.FormatInt(h.VideoID, 10),
				h.EntityType,
				h.Status,
				h.Message,
				h.FinishedAt.Format("2006-01-02 15:04:05"),
			}
		},
	)
}

// VideosToCSV converts a page of videos to CSV.
func VideosToCSV(page *models.VideoPage) ([]byte, error) {
	return writeCSV(
		[]string{"ID", "List", "Title", "Status", "Downloaded", "Failed", "Blacklisted"},
		len(page.Entries),
		func(i int) []string {
			v := page.Entries[i]
			return []string{
				strconv.FormatInt(v.ID, 10),
				strconv.FormatInt(v.ListID, 10),
				v.Title,
				v.Status,
				strconv.FormatBool(v.Downloaded),
				strconv.FormatBool(v.Failed),
				strconv.FormatBool(v.Blacklisted),
			}
		},
	)
}

func writeCSV(headers []string, n int, row func(int) []string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := writer.Write(row(i)); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ListsToTable renders video lists as an aligned text table.
func ListsToTable(page *models.VideoListPage) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tENABLED\tVIDEOS\tDOWNLOADED\tFAILED\tPENDING")
	for _, l := range page.Entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%d\t%d\t%d\t%d\n",
			l.ID, l.Name, l.EntityType, l.Enabled,
			l.Stats.TotalVideos, l.Stats.Downloaded, l.Stats.Failed, l.Stats.Pending)
	}
	w.Flush()
	buf.WriteString(pageFooter(page.Page, page.PageSize, len(page.Entries), page.Total))
	return buf.String()
}

// TasksToTable renders tasks as an aligned text table, with queue counters
// when the payload carries them.
func TasksToTable(page *models.TaskPage) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLIST\tVIDEO\tTYPE\tSTATUS\tCREATED")
	for _, t := range page.Entries {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\n",
			t.ID, t.ListID, t.VideoID, t.EntityType, t.Status,
			t.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()

	if q := page.Queues; q != nil {
		fmt.Fprintf(&buf, "queues: sync %d pending / %d running, download %d pending / %d running\n",
			len(q.Sync.Pending), len(q.Sync.Running),
			len(q.Download.Pending), len(q.Download.Running))
	}
	buf.WriteString(pageFooter(page.Page, page.PageSize, len(page.Entries), page.Total))
	return buf.String()
}

// HistoryToTable renders history entries as an aligned text table.
func HistoryToTable(page *models.HistoryPage) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLIST\tVIDEO\tTYPE\tSTATUS\tFINISHED\tMESSAGE")
	for _, h := range page.Entries {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			h.ID, h.ListID, h.VideoID, h.EntityType, h.Status,
			h.FinishedAt.Format("2006-01-02 15:04"), h.Message)
	}
	w.Flush()
	buf.WriteString(pageFooter(page.Page, page.PageSize, len(page.Entries), page.Total))
	return buf.String()
}

// VideosToTable renders a page of videos as an aligned text table.
func VideosToTable(page *models.VideoPage) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tDOWNLOADED\tFAILED\tBLACKLISTED")
	for _, v := range page.Entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%t\t%t\n",
			v.ID, v.Title, v.Status, v.Downloaded, v.Failed, v.Blacklisted)
	}
	w.Flush()
	buf.WriteString(pageFooter(page.Page, page.PageSize, len(page.Entries), page.Total))
	return buf.String()
}

// ProgressToTable renders the progress map as an aligned text table, sorted
// by video id for stable output.
func ProgressToTable(m models.ProgressMap) string {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VIDEO\tSTATUS\tPERCENT\tSPEED\tETA\tERROR")
	for _, id := range ids {
		p := m[id]
		fmt.Fprintf(w, "%d\t%s\t%.1f%%\t%s\t%s\t%s\n",
			p.VideoID, p.Status, p.Percent, p.Speed, p.ETA, p.Error)
	}
	w.Flush()
	return buf.String()
}

func pageFooter(page, pageSize, shown, total int) string {
	if total <= 0 && shown == 0 {
		return "no entries\n"
	}
	if page <= 0 {
		page = 1
	}
	return fmt.Sprintf("page %d (%d of %d entries)\n", page, shown, total)
}
