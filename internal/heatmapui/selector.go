package heatmapui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/cfheat/internal/heatmap"
)

// yearSelect is the year dropdown rendered as a row of tabs.
type yearSelect struct {
	options  []heatmap.YearOption
	value    int
	onChange func(v int)
}

func (s *yearSelect) SetOptions(opts []heatmap.YearOption) {
	s.options = append(s.options[:0], opts...)
}

func (s *yearSelect) SetValue(v int) {
	s.value = v
}

func (s *yearSelect) OnChange(fn func(v int)) {
	s.onChange = fn
}

func (s *yearSelect) index() int {
	for i, opt := range s.options {
		if opt.Value == s.value {
			return i
		}
	}
	return -1
}

// step moves by delta options. Options run newest first, so a positive
// delta goes back in time.
func (s *yearSelect) step(delta int) bool {
	if len(s.options) == 0 {
		return false
	}
	idx := s.index() + delta
	if idx < 0 || idx >= len(s.options) {
		return false
	}
	return s.choose(s.options[idx].Value)
}

func (s *yearSelect) choose(v int) bool {
	if v == s.value && s.index() >= 0 {
		return false
	}
	s.value = v
	if s.onChange != nil {
		s.onChange(v)
	}
	return true
}

func (s *yearSelect) label() string {
	if idx := s.index(); idx >= 0 {
		return s.options[idx].Label
	}
	return ""
}

// View renders the options that fit into width, keeping the active one
// visible.
func (s *yearSelect) View(width int) string {
	if len(s.options) == 0 {
		return ""
	}
	active := maxInt(s.index(), 0)
	parts := make([]string, len(s.options))
	for i, opt := range s.options {
		if i == active {
			parts[i] = activeYearStyle.Render(opt.Label)
		} else {
			parts[i] = inactiveYearStyle.Render(opt.Label)
		}
	}
	from, to := active, active+1
	used := lipgloss.Width(parts[active])
	for from > 0 || to < len(parts) {
		grew := false
		if to < len(parts) && used+1+lipgloss.Width(parts[to]) <= width {
			used += 1 + lipgloss.Width(parts[to])
			to++
			grew = true
		}
		if from > 0 && used+1+lipgloss.Width(parts[from-1]) <= width {
			used += 1 + lipgloss.Width(parts[from-1])
			from--
			grew = true
		}
		if !grew {
			break
		}
	}
	return strings.Join(parts[from:to], " ")
}
