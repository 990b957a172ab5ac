package workflow

import "fmt"

var indonesianMonths = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatIndonesianDate renders a timestamp as e.g. "20 Maret 2024".
// Unparsable input renders as an empty cell.
func FormatIndonesianDate(timestamp string) string {
	t, err := parseAPITime(timestamp)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[int(t.Month())-1], t.Year())
}
