package alert

import (
	"fmt"
	"strings"
	"time"
)

// Status is the last-known state of the external air-alert feed. It is
// mutated only by the poller; readers always get a copy. Known is false until
// the first successful poll; Stale is true whenever the value is older than
// the refresh interval because a refresh attempt failed.
type Status struct {
	Active    bool
	Message   string
	Types     []string
	FetchedAt time.Time
	Stale     bool
	Known     bool
}

// Indicator renders the one-line status header shown above reminders and in
// the /alert command.
func (s Status) Indicator(city string) string {
	if !s.Known {
		return "❓ Статус тривоги невідомий"
	}
	if !s.Active {
		return fmt.Sprintf("✅ <b>В %s ТИХО</b>", strings.ToUpper(city))
	}
	emoji, text := "⚠️", "ТРИВОГА"
	for _, t := range s.Types {
		if t == "air_raid" {
			emoji, text = "🚨", "ПОВІТРЯНА ТРИВОГА"
			break
		}
	}
	return fmt.Sprintf("%s <b>%s В %s!</b>", emoji, text, strings.ToUpper(city))
}

// Describe renders the verbose status line for the /alert command, including
// how old the value is and whether it is stale.
func (s Status) Describe(city string, now time.Time) string {
	if !s.Known {
		return "❓ Статус тривоги ще невідомий, спробуйте за хвилину"
	}
	minutes := int(now.Sub(s.FetchedAt).Minutes())
	line := s.Indicator(city)
	if s.Message != "" {
		line += "\n" + s.Message
	}
	line += fmt.Sprintf("\n<i>оновлено %d хв тому</i>", minutes)
	if s.Stale {
		line += "\n<i>⚠️ дані можуть бути застарілими</i>"
	}
	return line
}
