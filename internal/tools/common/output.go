// Package common holds terminal output shared by the operator tools.
package common

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type Step struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

type ciResult struct {
	Title string `json:"title"`
	OK    bool   `json:"ok"`
	Steps []Step `json:"steps"`
	Error string `json:"error,omitempty"`
}

// PrintCIResult writes one JSON line for machine consumers.
func PrintCIResult(w io.Writer, title string, steps []Step, err error) {
	res := ciResult{Title: title, OK: err == nil, Steps: steps}
	if err != nil {
		res.Error = err.Error()
	}
	if w == nil {
		w = os.Stdout
	}
	_ = json.NewEncoder(w).Encode(res)
}

func RenderReport(title string, steps []Step, err error) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	for _, s := range steps {
		mark := passStyle.Render("PASS")
		if !s.OK {
			mark = failStyle.Render("FAIL")
		}
		line := fmt.Sprintf("%s  %s", mark, s.Name)
		if s.Detail != "" {
			line += "  " + dimStyle.Render(s.Detail)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if err != nil {
		b.WriteString(failStyle.Render("error: " + err.Error()))
	} else {
		b.WriteString(passStyle.Render(fmt.Sprintf("all %d steps passed", len(steps))))
	}
	return boxStyle.Render(b.String())
}
