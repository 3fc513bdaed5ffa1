package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardshare/digital-card-api/internal/adapters/hostenv/clipboard"
	"github.com/cardshare/digital-card-api/internal/adapters/hostenv/filesaver"
	"github.com/cardshare/digital-card-api/internal/adapters/storage"
	"github.com/cardshare/digital-card-api/internal/app/cards"
	platformclock "github.com/cardshare/digital-card-api/internal/platform/clock"
	"github.com/cardshare/digital-card-api/internal/ports/out/hostenv"
)

func newSlugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slug <slug>",
		Short: "Show how a name slug splits into name parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parts, err := cards.ParseSlug(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "first:  %s\n", parts.First)
			fmt.Fprintf(out, "middle: %s\n", parts.Middle)
			fmt.Fprintf(out, "last:   %s\n", parts.Last)
			return nil
		},
	}
}

func newResolveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <company> <slug>",
		Short: "Resolve a public card address to its profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer c.close()
			svc, err := c.cardsService(cmd)
			if err != nil {
				return err
			}
			card, found, err := svc.Lookup(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintln(out, "no matching profile")
				return nil
			}
			p := card.Profile
			fmt.Fprintf(out, "name:      %s\n", p.DisplayName())
			fmt.Fprintf(out, "company:   %s\n", p.CompanyName)
			if p.JobTitle != "" {
				fmt.Fprintf(out, "title:     %s\n", p.JobTitle)
			}
			if p.ContactPhone != "" {
				fmt.Fprintf(out, "phone:     %s\n", p.ContactPhone)
			}
			if p.ContactTelephone != "" {
				fmt.Fprintf(out, "telephone: %s\n", p.ContactTelephone)
			}
			if p.ContactEmail != "" {
				fmt.Fprintf(out, "email:     %s\n", p.ContactEmail)
			}
			fmt.Fprintf(out, "url:       %s\n", card.URL)
			return nil
		},
	}
}

func newExportCmd(c *cli) *cobra.Command {
	var (
		outDir      string
		noClipboard bool
	)
	cmd := &cobra.Command{
		Use:   "export <company> <slug>",
		Short: "Write the profile's contact card and copy its phone number",
		Long: `Write <full name>.vcf into --out and copy the contact phone number to the
system clipboard. A clipboard failure is reported but does not fail the export.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer c.close()
			svc, err := c.cardsService(cmd)
			if err != nil {
				return err
			}
			var cb hostenv.Clipboard
			if !noClipboard {
				cb = clipboard.New()
			}
			res, err := svc.ExportVCard(cmd.Context(), args[0], args[1], filesaver.New(outDir), cb)
			if err != nil {
				return err
			}
			if res.SaveErr != nil {
				return res.SaveErr
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wrote %s\n", filepath.Join(outDir, res.Card.Filename))
			switch {
			case res.ClipboardErr != nil && errors.Is(res.ClipboardErr, clipboard.ErrUnsupported):
				fmt.Fprintln(cmd.ErrOrStderr(), "clipboard unavailable on this host; phone number not copied")
			case res.ClipboardErr != nil:
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", res.ClipboardErr)
			case cb != nil && res.Card.Phone != "":
				fmt.Fprintf(out, "copied %s to clipboard\n", res.Card.Phone)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "directory to write the .vcf into")
	cmd.Flags().BoolVar(&noClipboard, "no-clipboard", false, "skip copying the phone number")
	return cmd
}

func newQRCmd(c *cli) *cobra.Command {
	var (
		outFile string
		size    int
	)
	cmd := &cobra.Command{
		Use:   "qr <company> <slug>",
		Short: "Render a PNG QR code linking to the public card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outFile == "" {
				return errors.New("--out is required")
			}
			defer c.close()
			svc, err := c.cardsService(cmd)
			if err != nil {
				return err
			}
			png, err := svc.QRCode(cmd.Context(), args[0], args[1], size)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outFile, png, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", outFile, svc.CardURL(args[0], args[1]))
			return nil
		},
	}
	cmd.Flags().StringVar(&outFile, "out", "", "PNG file to write")
	cmd.Flags().IntVar(&size, "size", cards.DefaultQRSize, "image size in pixels")
	return cmd
}

func newPurgeIdempotencyCmd(c *cli) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge-idempotency",
		Short: "Delete stored PATCH replay records older than a cutoff",
		Long: `Delete idempotency records created before now minus --older-than.
Without the flag the configured storage.idempotency_ttl (IDEMPOTENCY_TTL) is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer c.close()
			cfg, err := c.open(cmd)
			if err != nil {
				return err
			}
			ttl := cfg.Storage.IdempotencyTTL
			if olderThan > 0 {
				ttl = olderThan
			}
			n, err := storage.PurgeExpired(cmd.Context(), c.stores.Idempotency, platformclock.NewSystemClock(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d records older than %s\n", n, ttl)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "age cutoff (default: configured TTL)")
	return cmd
}

func getenvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
