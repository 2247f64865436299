package browse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/eiannone/keyboard"

	"github.com/chmdznr/gnome-l10n-sync/internal/sync"
	"github.com/chmdznr/gnome-l10n-sync/internal/view"
	"github.com/chmdznr/gnome-l10n-sync/pkg/models"
)

// Browser drives the keyboard loop
type Browser struct {
	runner   *sync.Runner
	target   sync.Target
	out      io.Writer
	model    *Model
	entries  []models.ModuleStat
	job      *sync.Job
	status   string
	interval time.Duration
}

// New creates a browser for target writing to out
func New(runner *sync.Runner, target sync.Target, out io.Writer, pageSize int) *Browser {
	return &Browser{
		runner:   runner,
		target:   target,
		out:      out,
		model:    NewModel(pageSize),
		interval: 200 * time.Millisecond,
	}
}

// Run grabs the keyboard and blocks until the user quits or ctx is done
func (b *Browser) Run(ctx context.Context) error {
	keys, err := keyboard.GetKeys(16)
	if err != nil {
		return fmt.Errorf("open keyboard: %w", err)
	}
	defer keyboard.Close()
	defer b.runner.Stop()

	b.job = b.runner.Start(b.target, nil)
	b.draw()

	tick := time.NewTicker(b.interval)
	defer tick.Stop()

	for {
		var done <-chan struct{}
		if b.job != nil {
			done = b.job.Done()
		}
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			b.finishJob()
			b.draw()
		case <-tick.C:
			if b.job != nil {
				b.draw()
			}
		case ev := <-keys:
			if ev.Err != nil {
				return ev.Err
			}
			switch b.model.HandleKey(ev.Rune, ev.Key, len(b.current().Entries)) {
			case ActionQuit:
				return nil
			case ActionRefresh:
				b.job = b.runner.Refresh(b.target, nil)
				b.status = ""
				b.draw()
			case ActionRedraw:
				b.draw()
			}
		}
	}
}

func (b *Browser) finishJob() {
	res, err := b.job.Result()
	b.job = nil
	switch {
	case errors.Is(err, sync.ErrCanceled):
		b.status = "sync canceled"
	case err != nil:
		b.status = "error: " + err.Error()
	default:
		b.entries = res.Entries
		b.status = statusLine(res)
	}
}

func statusLine(res *sync.Result) string {
	if res.FromCache {
		return fmt.Sprintf("%d modules from cache", len(res.Entries))
	}
	if n := len(res.Skipped); n > 0 {
		return fmt.Sprintf("%d modules fetched, %d skipped", len(res.Entries), n)
	}
	return fmt.Sprintf("%d modules fetched", len(res.Entries))
}

func (b *Browser) current() view.View {
	return view.Compute(b.entries, b.model.Query)
}

func (b *Browser) draw() {
	f := Frame{Target: b.target, View: b.current(), Model: b.model, Status: b.status}
	if b.job != nil {
		p := b.job.Progress()
		f.Loading = &p
	}
	Render(b.out, f)
}
