package app

import (
	"strings"
	"time"
	"unicode"
)

const fileTimeLayout = "02-01-2006_15-04-05"

// FileName builds recording_<DD-MM-YYYY_HH-MM-SS>[_<phone>].wav. The phone
// tag keeps only letters, digits, '-' and '_' and is left out when nothing
// remains.
func FileName(t time.Time, phone string) string {
	name := "recording_" + t.Format(fileTimeLayout)
	if tag := sanitizeTag(phone); tag != "" {
		name += "_" + tag
	}
	return name + ".wav"
}

func sanitizeTag(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return -1
	}, strings.TrimSpace(s))
}
