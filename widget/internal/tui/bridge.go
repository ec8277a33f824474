package tui

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"checkout/widget/internal/checkout"
)

type stateMsg struct {
	state checkout.State
}

type statusChangeMsg struct {
	change checkout.StatusChange
}

// Bridge forwards presenter renders and status change notifications into the
// bubbletea event loop. It implements checkout.View and checkout.Notifier.
type Bridge struct {
	program atomic.Pointer[tea.Program]
}

func (b *Bridge) Attach(p *tea.Program) {
	b.program.Store(p)
}

func (b *Bridge) Render(s checkout.State) {
	if p := b.program.Load(); p != nil {
		p.Send(stateMsg{state: s})
	}
}

func (b *Bridge) NotifyStatusChange(_ context.Context, change checkout.StatusChange) error {
	if p := b.program.Load(); p != nil {
		p.Send(statusChangeMsg{change: change})
	}
	return nil
}
