package vcard

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cardshare/digital-card-api/internal/domain"
	"github.com/cardshare/digital-card-api/internal/ports/out/hostenv"
)

// Exporter builds cards and hands them to the hosting environment.
type Exporter struct {
	saver     hostenv.Saver
	clipboard hostenv.Clipboard
	log       *zap.Logger
}

// NewExporter wires an exporter. A nil saver or clipboard skips that side effect.
func NewExporter(saver hostenv.Saver, clipboard hostenv.Clipboard, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{saver: saver, clipboard: clipboard, log: log}
}

// ExportResult carries the built card and the outcome of each side effect.
// SaveErr and ClipboardErr are *SideEffectError when set.
type ExportResult struct {
	Card         Card
	SaveErr      error
	ClipboardErr error
}

// Export builds the card for p, then saves it and copies the phone number concurrently.
//
// The only returned error is a build failure; side-effect failures are reported on the
// result and never discard the card.
func (e *Exporter) Export(ctx context.Context, p domain.Profile) (ExportResult, error) {
	card, err := BuildCard(p)
	if err != nil {
		return ExportResult{}, err
	}
	res := ExportResult{Card: card}

	// Side effects are independent: neither goroutine returns an error, so one failing
	// never cancels the other.
	var g errgroup.Group
	if e.saver != nil {
		g.Go(func() error {
			if err := e.saver.Save(ctx, card.Filename, ContentType, card.Data); err != nil {
				res.SaveErr = &SideEffectError{Action: ActionSave, Err: err}
			}
			return nil
		})
	}
	if e.clipboard != nil && card.Phone != "" {
		g.Go(func() error {
			if err := e.clipboard.Copy(ctx, card.Phone); err != nil {
				res.ClipboardErr = &SideEffectError{Action: ActionClipboard, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	if res.SaveErr != nil {
		e.log.Warn("contact card save failed", zap.String("filename", card.Filename), zap.Error(res.SaveErr))
	}
	if res.ClipboardErr != nil {
		e.log.Warn("contact phone clipboard copy failed", zap.Error(res.ClipboardErr))
	}
	return res, nil
}
