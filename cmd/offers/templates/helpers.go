package templates

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/delaneyj/screwless/offers"
)

func when(ts offers.Timestamp, now time.Time) string {
	t := ts.Time()
	var sb strings.Builder
	sb.WriteString(t.UTC().Format(time.RFC1123))
	sb.WriteString(" (")
	sb.WriteString(humanize.RelTime(t, now, "ago", "from now"))
	sb.WriteString(")")
	return sb.String()
}
