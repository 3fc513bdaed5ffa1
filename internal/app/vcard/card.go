package vcard

import (
	"strings"

	"github.com/cardshare/digital-card-api/internal/domain"
)

const (
	// ContentType is the media type of a built card.
	ContentType = "text/vcard; charset=utf-8"
	// FileExtension is appended to the suggested filename.
	FileExtension = ".vcf"

	fallbackFilename = "contact"
	lineBreak        = "\r\n"
)

// Phone roles used in TEL;TYPE= lines.
const (
	TypeName = "NAME"
	TypeWork = "WORK"
	TypeHome = "HOME"
)

// Card is a built contact card ready to be saved.
type Card struct {
	Data     []byte
	Filename string
	// Phone is the contactPhone value offered to the clipboard; "" when unset.
	Phone string
}

// BuildCard renders a profile as a vCard 3.0 blob.
//
// Lines are emitted in a fixed order: BEGIN/VERSION, FN, then TEL lines tagged NAME
// (when a full name is present), WORK (contactPhone) and HOME (contactTelephone), and END.
// Optional lines are omitted, never emitted empty. A profile with no phone and no
// name fails with ErrInsufficientContactData.
func BuildCard(p domain.Profile) (Card, error) {
	fullName := p.DisplayName()
	if p.ContactPhone == "" && p.ContactTelephone == "" && fullName == "" {
		return Card{}, ErrInsufficientContactData
	}

	lines := []string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:" + escapeText(fullName),
	}
	if fullName != "" {
		lines = append(lines, telLine(TypeName, fullName))
	}
	if p.ContactPhone != "" {
		lines = append(lines, telLine(TypeWork, p.ContactPhone))
	}
	if p.ContactTelephone != "" {
		lines = append(lines, telLine(TypeHome, p.ContactTelephone))
	}
	lines = append(lines, "END:VCARD")

	return Card{
		Data:     []byte(strings.Join(lines, lineBreak) + lineBreak),
		Filename: Filename(fullName),
		Phone:    p.ContactPhone,
	}, nil
}

// Filename returns the suggested download name for a card of the given full name.
func Filename(fullName string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', '\r', '\n', 0:
			return -1
		}
		return r
	}, fullName)
	if strings.TrimSpace(name) == "" {
		name = fallbackFilename
	}
	return name + FileExtension
}

func telLine(kind, value string) string {
	return "TEL;TYPE=" + kind + ":" + escapeText(value)
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
