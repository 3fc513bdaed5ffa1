package vcard

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cardshare/digital-card-api/internal/domain"
)

func cardLines(t *testing.T, c Card) []string {
	t.Helper()
	s := string(c.Data)
	if !strings.HasSuffix(s, "\r\n") {
		t.Fatalf("card does not end with CRLF: %q", s)
	}
	return strings.Split(strings.TrimSuffix(s, "\r\n"), "\r\n")
}

func TestBuildCard_WorkPhoneAndName(t *testing.T) {
	t.Parallel()

	c, err := BuildCard(domain.Profile{ContactPhone: "555-1234", FullName: "Jane Doe"})
	if err != nil {
		t.Fatalf("BuildCard err=%v", err)
	}
	want := []string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:Jane Doe",
		"TEL;TYPE=NAME:Jane Doe",
		"TEL;TYPE=WORK:555-1234",
		"END:VCARD",
	}
	if diff := cmp.Diff(want, cardLines(t, c)); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if c.Filename != "Jane Doe.vcf" {
		t.Fatalf("filename=%q", c.Filename)
	}
	if c.Phone != "555-1234" {
		t.Fatalf("phone=%q", c.Phone)
	}
}

func TestBuildCard_EmptyProfile(t *testing.T) {
	t.Parallel()

	c, err := BuildCard(domain.Profile{})
	if !errors.Is(err, ErrInsufficientContactData) {
		t.Fatalf("err=%v, want ErrInsufficientContactData", err)
	}
	if c.Data != nil || c.Filename != "" {
		t.Fatalf("expected no blob, got %+v", c)
	}
}

func TestBuildCard_PhoneOnlyUsesFallbackFilename(t *testing.T) {
	t.Parallel()

	c, err := BuildCard(domain.Profile{ContactTelephone: "555-9999"})
	if err != nil {
		t.Fatalf("BuildCard err=%v", err)
	}
	want := []string{"BEGIN:VCARD", "VERSION:3.0", "FN:", "TEL;TYPE=HOME:555-9999", "END:VCARD"}
	if diff := cmp.Diff(want, cardLines(t, c)); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if c.Filename != "contact.vcf" {
		t.Fatalf("filename=%q", c.Filename)
	}
	if c.Phone != "" {
		t.Fatalf("phone=%q, want empty", c.Phone)
	}
}

func TestBuildCard_NameFromPartsWhenFullNameMissing(t *testing.T) {
	t.Parallel()

	c, err := BuildCard(domain.Profile{FirstName: "John", MiddleName: "Q", LastName: "Smith"})
	if err != nil {
		t.Fatalf("BuildCard err=%v", err)
	}
	lines := cardLines(t, c)
	if lines[2] != "FN:John Q Smith" || lines[3] != "TEL;TYPE=NAME:John Q Smith" {
		t.Fatalf("lines=%q", lines)
	}
}

// Each optional line is present iff its source field is populated, and the order is fixed.
func TestBuildCard_OptionalLinesFollowFields(t *testing.T) {
	t.Parallel()

	for mask := 1; mask < 8; mask++ {
		p := domain.Profile{}
		if mask&1 != 0 {
			p.FullName = "Ann Lee"
		}
		if mask&2 != 0 {
			p.ContactPhone = "111"
		}
		if mask&4 != 0 {
			p.ContactTelephone = "222"
		}
		c, err := BuildCard(p)
		if err != nil {
			t.Fatalf("mask=%d err=%v", mask, err)
		}
		lines := cardLines(t, c)

		want := []string{"BEGIN:VCARD", "VERSION:3.0", "FN:" + p.FullName}
		if p.FullName != "" {
			want = append(want, "TEL;TYPE=NAME:"+p.FullName)
		}
		if p.ContactPhone != "" {
			want = append(want, "TEL;TYPE=WORK:"+p.ContactPhone)
		}
		if p.ContactTelephone != "" {
			want = append(want, "TEL;TYPE=HOME:"+p.ContactTelephone)
		}
		want = append(want, "END:VCARD")
		if diff := cmp.Diff(want, lines); diff != "" {
			t.Fatalf("mask=%d lines mismatch (-want +got):\n%s", mask, diff)
		}
	}
}

func TestBuildCard_EscapesText(t *testing.T) {
	t.Parallel()

	c, err := BuildCard(domain.Profile{FullName: "Doe, Jane; PhD"})
	if err != nil {
		t.Fatalf("BuildCard err=%v", err)
	}
	if lines := cardLines(t, c); lines[2] != `FN:Doe\, Jane\; PhD` {
		t.Fatalf("FN line=%q", lines[2])
	}
}

func TestFilename(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Jane Doe":     "Jane Doe.vcf",
		"":             "contact.vcf",
		"  ":           "contact.vcf",
		`a/b\c"d`:      "abcd.vcf",
		"line\r\nfeed": "linefeed.vcf",
	}
	for in, want := range cases {
		if got := Filename(in); got != want {
			t.Fatalf("Filename(%q)=%q, want %q", in, got, want)
		}
	}
}
