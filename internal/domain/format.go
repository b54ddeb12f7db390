package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MeasuredAtLayout is the timestamp layout used by the source page.
const MeasuredAtLayout = "2006-01-02 15:04:05"

var litresPrinter = message.NewPrinter(language.English)

// FormatLitres renders a stock quantity with thousands separators and the
// unit suffix used on the source page, e.g. 7675 -> "7,675 Lts.".
func FormatLitres(litres int) string {
	return litresPrinter.Sprintf("%d Lts.", litres)
}
