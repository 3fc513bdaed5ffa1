package vcard

import (
	"context"
	"errors"
	"testing"

	memhostenv "github.com/cardshare/digital-card-api/internal/adapters/memory/hostenv"
	"github.com/cardshare/digital-card-api/internal/domain"
)

func TestExporter_SavesAndCopies(t *testing.T) {
	t.Parallel()

	rec := memhostenv.NewRecorder()
	res, err := NewExporter(rec, rec, nil).Export(context.Background(), domain.Profile{FullName: "Jane Doe", ContactPhone: "555-1234"})
	if err != nil {
		t.Fatalf("Export err=%v", err)
	}
	if res.SaveErr != nil || res.ClipboardErr != nil {
		t.Fatalf("unexpected side-effect errors: %+v", res)
	}
	saved := rec.Saved()
	if len(saved) != 1 || saved[0].Filename != "Jane Doe.vcf" || string(saved[0].Data) != string(res.Card.Data) {
		t.Fatalf("saved=%+v", saved)
	}
	if copied := rec.Copied(); len(copied) != 1 || copied[0] != "555-1234" {
		t.Fatalf("copied=%v", copied)
	}
}

func TestExporter_ClipboardFailureKeepsCard(t *testing.T) {
	t.Parallel()

	saver := memhostenv.NewRecorder()
	clip := memhostenv.NewRecorder()
	clip.CopyErr = errors.New("no clipboard")

	res, err := NewExporter(saver, clip, nil).Export(context.Background(), domain.Profile{FullName: "Jane Doe", ContactPhone: "555-1234"})
	if err != nil {
		t.Fatalf("Export err=%v", err)
	}
	if len(res.Card.Data) == 0 {
		t.Fatalf("card discarded on clipboard failure")
	}
	var se *SideEffectError
	if !errors.As(res.ClipboardErr, &se) || se.Action != ActionClipboard {
		t.Fatalf("ClipboardErr=%v", res.ClipboardErr)
	}
	if !errors.Is(res.ClipboardErr, clip.CopyErr) {
		t.Fatalf("ClipboardErr does not wrap the cause: %v", res.ClipboardErr)
	}
	// The save still happened.
	if len(saver.Saved()) != 1 || res.SaveErr != nil {
		t.Fatalf("save affected by clipboard failure: saved=%d err=%v", len(saver.Saved()), res.SaveErr)
	}
}

func TestExporter_SaveFailureKeepsClipboard(t *testing.T) {
	t.Parallel()

	saver := memhostenv.NewRecorder()
	saver.SaveErr = errors.New("disk full")
	clip := memhostenv.NewRecorder()

	res, err := NewExporter(saver, clip, nil).Export(context.Background(), domain.Profile{FullName: "Jane Doe", ContactPhone: "555-1234"})
	if err != nil {
		t.Fatalf("Export err=%v", err)
	}
	var se *SideEffectError
	if !errors.As(res.SaveErr, &se) || se.Action != ActionSave {
		t.Fatalf("SaveErr=%v", res.SaveErr)
	}
	if len(clip.Copied()) != 1 {
		t.Fatalf("clipboard skipped after save failure")
	}
}

func TestExporter_NoPhoneSkipsClipboard(t *testing.T) {
	t.Parallel()

	rec := memhostenv.NewRecorder()
	if _, err := NewExporter(rec, rec, nil).Export(context.Background(), domain.Profile{FullName: "Jane Doe"}); err != nil {
		t.Fatalf("Export err=%v", err)
	}
	if len(rec.Copied()) != 0 {
		t.Fatalf("copied=%v, want none", rec.Copied())
	}
	if len(rec.Saved()) != 1 {
		t.Fatalf("saved=%d, want 1", len(rec.Saved()))
	}
}

func TestExporter_BuildFailureHasNoSideEffects(t *testing.T) {
	t.Parallel()

	rec := memhostenv.NewRecorder()
	_, err := NewExporter(rec, rec, nil).Export(context.Background(), domain.Profile{})
	if !errors.Is(err, ErrInsufficientContactData) {
		t.Fatalf("err=%v", err)
	}
	if len(rec.Saved()) != 0 || len(rec.Copied()) != 0 {
		t.Fatalf("side effects ran for a failed build")
	}
}

func TestExporter_NilAdapters(t *testing.T) {
	t.Parallel()

	res, err := NewExporter(nil, nil, nil).Export(context.Background(), domain.Profile{ContactPhone: "1"})
	if err != nil || len(res.Card.Data) == 0 {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}
