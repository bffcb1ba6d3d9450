package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/trawl/internal/model"
	"github.com/sprite-ai/trawl/internal/syntax"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	switch m.mode {
	case modeNote:
		return m.renderNoteModal()
	case modeConfirm:
		return m.renderConfirmModal()
	}

	var sections []string
	paneHeight := m.height - 2

	if m.mode == modeSearch || m.mode == modeFilter {
		sections = append(sections, m.renderInputBar())
		paneHeight -= 3
	}

	queueWidth := m.queueWidth()
	docWidth := m.docWidth()

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderQueue(queueWidth, paneHeight),
		" ",
		m.renderDocument(docWidth, paneHeight),
	)

	sections = append(sections, main, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) queueWidth() int {
	maxLen := 20
	for _, e := range m.queue {
		if len(e.ArtifactID) > maxLen {
			maxLen = len(e.ArtifactID)
		}
	}
	w := maxLen + 10 // glyph + match count + padding
	if w > m.width/3 {
		w = m.width / 3
	}
	if w < 24 {
		w = 24
	}
	return w
}

func (m Model) docWidth() int {
	w := m.width - m.queueWidth() - 1
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderInputBar() string {
	if m.mode == modeFilter {
		return inputBarStyle.Width(m.width - 2).Render("filter: " + m.filterInput.View())
	}
	label := "search"
	if m.searchRegex {
		label = "search (regex, C-r toggles)"
	} else {
		label = "search (literal, C-r toggles)"
	}
	return inputBarStyle.Width(m.width - 2).Render(label + ": " + m.searchInput.View())
}

func (m Model) renderQueue(width, height int) string {
	var b strings.Builder

	openID := ""
	if doc := m.ctrl.Current(); doc != nil {
		openID = doc.ID()
	}

	maxName := width - 10
	for i, e := range m.visible {
		name := e.ArtifactID
		if maxName > 0 && len(name) > maxName {
			name = "…" + name[len(name)-maxName+1:]
		}

		glyph := statusStyleFor(e.Status.String()).Render(statusGlyph(e.Status.String()))

		var marks string
		if e.MatchCount > 0 {
			marks = fmt.Sprintf(" %d", e.MatchCount)
		}
		if m.ctrl.Status(e.ArtifactID).Note != "" {
			marks += " " + noteStyle.Render("✎")
		}
		if e.ArtifactID == openID {
			marks += " «"
		}

		line := fmt.Sprintf("%s %-*s%s", glyph, maxName, name, marks)

		style := queueItemStyle
		if i == m.cursor {
			style = queueItemSelectedStyle
		}
		b.WriteString(style.MaxWidth(width - 4).Render(line))
		if i < len(m.visible)-1 {
			b.WriteByte('\n')
		}
	}

	if len(m.visible) == 0 {
		if m.filterQuery != "" {
			b.WriteString(helpBarStyle.Render("no entries match filter"))
		} else {
			b.WriteString(helpBarStyle.Render("queue is empty"))
		}
	}

	return queueStyle.Width(width).Height(height - 2).Render(b.String())
}

func (m Model) renderDocument(width, height int) string {
	innerHeight := height - 2
	doc := m.ctrl.Current()
	if doc == nil {
		hint := helpBarStyle.Render("no file open · enter opens the selected entry")
		return docViewStyle.Width(width).Height(innerHeight).Render(hint)
	}

	header := docHeaderStyle.Render(doc.ID())
	if m.mode == modeEdit {
		header += dirtyMarkStyle.Render(" [editing]")
	} else if doc.Dirty() {
		header += dirtyMarkStyle.Render(" *")
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')

	if m.mode == modeEdit {
		b.WriteString(m.editor.View())
		return docViewStyle.Width(width).Height(innerHeight).Render(b.String())
	}

	visibleLines := innerHeight - 2
	if visibleLines < 1 {
		visibleLines = 1
	}

	byLine := rangesByLine(m.ranges)
	end := m.scroll + visibleLines
	if end > len(m.docLines) {
		end = len(m.docLines)
	}

	innerWidth := width - 4
	for i := m.scroll; i < end; i++ {
		num := lineNumberStyle.Render(fmt.Sprintf("%4d", i+1))
		b.WriteString(num)
		b.WriteByte(' ')
		b.WriteString(styleDocLine(m.docLines[i], byLine[i+1], innerWidth-6))
		if i < end-1 {
			b.WriteByte('\n')
		}
	}

	return docViewStyle.Width(width).Height(innerHeight).Render(b.String())
}

// rangesByLine groups highlight ranges by their 1-based line number.
func rangesByLine(ranges []model.Range) map[int][]model.Range {
	if len(ranges) == 0 {
		return nil
	}
	out := make(map[int][]model.Range)
	for _, r := range ranges {
		out[r.Line] = append(out[r.Line], r)
	}
	for _, rs := range out {
		sort.Slice(rs, func(i, j int) bool { return rs[i].StartCol < rs[j].StartCol })
	}
	return out
}

// styleDocLine renders one document line. Lines carrying matches show the
// matched spans reversed over plain text; other lines get syntax colors.
func styleDocLine(line syntax.Line, matches []model.Range, width int) string {
	if len(matches) > 0 {
		return styleMatchedLine(line.Plain(), matches, width)
	}

	var b strings.Builder
	budget := width
	for _, tok := range line.Tokens() {
		text := truncate(tok.Text, budget)
		budget -= len(text)
		if tok.Color != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(text))
		} else {
			b.WriteString(text)
		}
		if budget <= 0 {
			break
		}
	}
	return b.String()
}

func styleMatchedLine(text string, matches []model.Range, width int) string {
	text = truncate(text, width)

	var b strings.Builder
	pos := 0
	for _, r := range matches {
		start, end := r.StartCol-1, r.EndCol-1
		if start < pos {
			start = pos
		}
		if end > len(text) {
			end = len(text)
		}
		if start >= len(text) || end <= start {
			continue
		}
		b.WriteString(text[pos:start])
		b.WriteString(matchStyle.Render(text[start:end]))
		pos = end
	}
	b.WriteString(text[pos:])
	return b.String()
}

func (m Model) renderStatusBar() string {
	query, active := m.ctrl.Query()

	var left string
	if active {
		kind := "literal"
		if m.searchRegex {
			kind = "regex"
		}
		left = fmt.Sprintf(" /%s (%s)  %d files", query, kind, len(m.queue))
	} else {
		left = fmt.Sprintf(" checklist  %d files", len(m.queue))
	}
	if m.filterQuery != "" {
		left += fmt.Sprintf("  [filter: %s]", m.filterQuery)
	}

	middle := ""
	if m.status != "" {
		middle = "  " + noticeStyle.Render(m.status)
	}

	right := "? help  q quit "

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(middle) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return statusBarStyle.Width(m.width).Render(left + middle + strings.Repeat(" ", gap) + right)
}

func (m Model) renderNoteModal() string {
	var b strings.Builder
	b.WriteString(modalTitleStyle.Render("Note for " + m.noteTarget))
	b.WriteString("\n\n")
	b.WriteString(m.noteInput.View())
	b.WriteString("\n\n")
	b.WriteString(helpBarStyle.Render("[C-s] save  [esc] cancel"))

	box := modalStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderConfirmModal() string {
	target := "quit"
	if !m.pendingQuit {
		target = "open " + m.pendingOpen
	}

	var b strings.Builder
	b.WriteString(modalTitleStyle.Render("Unsaved changes"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Discard edits and %s?", target))
	b.WriteString("\n\n")
	b.WriteString(helpBarStyle.Render("[y] discard  [n/esc] keep editing"))

	box := modalStyle.BorderForeground(colorRed).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(docHeaderStyle.Render("trawl — Keyboard Shortcuts"))
	b.WriteString("\n\n")

	helpItems := []struct{ key, desc string }{
		{"↑/k", "Previous entry"},
		{"↓/j", "Next entry"},
		{"enter", "Open selected file"},
		{"pgup/pgdn", "Scroll document"},
		{"/", "Search (C-r toggles regex)"},
		{"f", "Fuzzy-filter the queue"},
		{"e", "Edit the open file"},
		{"C-s", "Save"},
		{"n", "Save and open next entry"},
		{"d", "Mark selected done"},
		{"u", "Mark selected todo"},
		{"m", "Edit note for selected"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}

	for _, item := range helpItems {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(12).Render(item.key),
			item.desc,
		))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}

// truncate cuts s to at most n runes. The result is a byte prefix of s, so
// byte offsets into the original remain valid within it.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
