package pdf

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// String encodes text as a PDF string. ASCII stays a literal string; other
// text becomes UTF-16BE with a byte order mark, written in hex.
func String(text string) string {
	if !isASCII(text) {
		enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
		res, _, err := transform.String(enc, text)
		if err != nil {
			// only invalid UTF-8 ends up here
			res, _, _ = transform.String(enc, strings.ToValidUTF8(text, "�"))
		}
		return "<" + strings.ToUpper(hex.EncodeToString([]byte(res))) + ">"
	}

	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ")", "\\)")
	text = strings.ReplaceAll(text, "(", "\\(")
	text = strings.ReplaceAll(text, "\r", "\\r")
	return "(" + text + ")"
}

// DateTime formats t as a PDF date string, e.g. (D:20240102150405+01'00').
func DateTime(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	d := time.Duration(offset) * time.Second
	hours := int(d.Hours())
	minutes := int(d.Minutes()) - hours*60
	return String(fmt.Sprintf("D:%s%s%02d'%02d'", t.Format("20060102150405"), sign, hours, minutes))
}

// ParseDateTime reads a PDF date as written by DateTime. Partial dates are
// accepted down to the year.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimPrefix(s, "D:")
	s = strings.ReplaceAll(s, "'", "")
	layouts := []string{"20060102150405-0700", "20060102150405Z", "20060102150405", "200601021504", "2006010215", "20060102", "200601", "2006"}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid PDF date %q", s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
