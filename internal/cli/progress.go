package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/modelkit/uisync/pkg/sync"
)

// batchView renders live per-record status lines for a sync batch. When not
// live (plain mode, verbose logs), it is a no-op pass-through and results
// only appear in the final summary.
type batchView struct {
	verb    string
	live    bool
	program *tea.Program
}

func newBatchView(verb string, live bool) *batchView {
	return &batchView{verb: verb, live: live}
}

// observe feeds one completed record result into the view. Safe to call
// from worker goroutines.
func (v *batchView) observe(r sync.RecordResult) {
	if v.program != nil {
		v.program.Send(resultMsg{r})
	}
}

// run executes the batch under the live view. The batch runs in a goroutine
// while the view owns the terminal; its outcome is returned unchanged.
func (v *batchView) run(batch func() (*sync.Summary, error)) (*sync.Summary, error) {
	if !v.live {
		return batch()
	}

	v.program = tea.NewProgram(batchModel{verb: v.verb})

	type outcome struct {
		summary *sync.Summary
		err     error
	}
	resCh := make(chan outcome, 1)
	go func() {
		summary, err := batch()
		resCh <- outcome{summary, err}
		v.program.Send(doneMsg{})
	}()

	if _, err := v.program.Run(); err != nil {
		// The view failing must not lose the batch outcome.
		res := <-resCh
		return res.summary, res.err
	}
	res := <-resCh
	return res.summary, res.err
}

type resultMsg struct{ r sync.RecordResult }
type doneMsg struct{}

// batchModel is the bubbletea model behind the live view.
type batchModel struct {
	verb    string
	results []sync.RecordResult
	done    bool
}

func (m batchModel) Init() tea.Cmd {
	return nil
}

func (m batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.results = append(m.results, msg.r)
		return m, nil
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m batchModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.verb+"...") + "\n")
	for _, r := range m.results {
		switch r.Status {
		case sync.StatusSuccess:
			b.WriteString(styleIconSuccess.Render(iconSuccess) + " " + StyleSuccess.Render(r.Record))
		case sync.StatusSkipped:
			b.WriteString(StyleDim.Render(iconSkipped) + " " + StyleDim.Render(r.Record))
		case sync.StatusError:
			b.WriteString(styleIconError.Render(iconError) + " " + r.Record)
		}
		if r.Status == sync.StatusError && r.Err != nil {
			b.WriteString(" " + StyleError.Render(r.Err.Error()))
		}
		b.WriteString("\n")
	}
	b.WriteString(StyleDim.Render(fmt.Sprintf("%d records done", len(m.results))))
	return b.String()
}
