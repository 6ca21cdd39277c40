package monitor

import (
	"fmt"
	"time"

	"crowd-monitor/internal/domain"
)

// ClosedMessage is published outside operating hours.
const ClosedMessage = "הספרייה הלאומית סגורה כעת."

// StatusMessage renders the live status text in Telegram Markdown.
func StatusMessage(level domain.LoadLevel, popularity *int, now time.Time) string {
	ts := now.Format("15:04")
	if popularity != nil {
		return fmt.Sprintf(
			"%s *עדכון עומס בספרייה הלאומית*\n\nרמת העומס כעת: *%s* (%d%%)\n\n_עודכן לאחרונה: %s_",
			level.Emoji, level.Label, *popularity, ts)
	}
	return fmt.Sprintf(
		"%s *עדכון עומס בספרייה הלאומית*\n\nלא ניתן היה לקבל את רמת העומס כעת.\n\n_נסיון אחרון: %s_",
		level.Emoji, ts)
}
