package spreadsheet

import (
	"fmt"
	"time"

	"github.com/bps3275/sinora/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// Rupiah renders an amount the way the office prints it, e.g. "Rp 1.500.000".
func Rupiah(amount int64) string {
	return "Rp " + idPrinter.Sprintf("%d", amount)
}

// tanggal renders a stored date as "05 Maret 2025"; unparseable input is returned as is.
func tanggal(date string) string {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), domain.BulanName(int(t.Month())), t.Year())
}

func periodeWaktu(mulai, berakhir string) string {
	return tanggal(mulai) + " s.d " + tanggal(berakhir)
}
