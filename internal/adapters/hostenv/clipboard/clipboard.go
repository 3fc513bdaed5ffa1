package clipboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when the host has no usable clipboard (headless servers, CI).
var ErrUnsupported = errors.New("clipboard unsupported on this host")

// System copies text to the operating system clipboard.
type System struct{}

func New() System { return System{} }

func (System) Copy(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
