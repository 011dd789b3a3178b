package ink

import (
	"fmt"
	"log/slog"
)

// Store is the persistence collaborator. Saves from the commit path are
// best-effort; the authoritative write happens when a page is flushed.
type Store interface {
	SaveStroke(pageID string, s *Stroke) error
	LoadPage(pageID string) ([]*Stroke, error)
	ReplacePage(pageID string, strokes []*Stroke) error
}

// Document binds the engine to one page of a ledger book at a time. The
// stroke collection and history stacks belong to exactly one page;
// switching pages flushes the outgoing page to the store, resets history,
// and loads the incoming page.
type Document struct {
	engine *Engine
	store  Store
	log    *slog.Logger
	pageID string
}

// NewDocument wires the engine to a store and loads the initial page.
func NewDocument(engine *Engine, store Store, pageID string, log *slog.Logger) (*Document, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	d := &Document{engine: engine, store: store, log: log}

	engine.SetCommitHook(d.CommitStroke)

	if err := d.load(pageID); err != nil {
		return nil, err
	}
	return d, nil
}

// PageID returns the current page.
func (d *Document) PageID() string { return d.pageID }

// SwitchPage flushes the current page and loads another. History does not
// survive the switch.
func (d *Document) SwitchPage(pageID string) error {
	if pageID == d.pageID {
		return nil
	}
	if err := d.Flush(); err != nil {
		// The outgoing page could not be persisted; keep editing it
		// rather than silently dropping ink.
		return fmt.Errorf("flush page %s: %w", d.pageID, err)
	}
	return d.load(pageID)
}

// Flush writes the current collection to the store as the page's
// authoritative content. Undone strokes are dropped and redone ones kept:
// the collection is the source of truth, not the command log.
func (d *Document) Flush() error {
	if d.pageID == "" {
		return nil
	}
	if err := d.store.ReplacePage(d.pageID, d.engine.Strokes()); err != nil {
		return err
	}
	d.log.Debug("page flushed", slog.String("page", d.pageID),
		slog.Int("strokes", len(d.engine.Strokes())))
	return nil
}

func (d *Document) load(pageID string) error {
	strokes, err := d.store.LoadPage(pageID)
	if err != nil {
		return fmt.Errorf("load page %s: %w", pageID, err)
	}
	d.pageID = pageID
	d.engine.ResetPage(strokes)
	return nil
}

// CommitStroke is the fire-and-forget per-commit save. Failures are
// logged and swallowed; the page flush will retry the whole collection.
// Exported so callers layering extra commit work (sync publishing) can
// chain it from their own hook.
func (d *Document) CommitStroke(s *Stroke) {
	if err := d.store.SaveStroke(d.pageID, s); err != nil {
		d.log.Warn("stroke save failed", slog.String("id", s.ID), slog.Any("err", err))
	}
}
