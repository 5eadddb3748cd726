package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rajasatyajit/QuakeAlert/internal/models"
)

// alertTemplate is the fixed Burmese channel copy. The wording is part
// of the product and is not configurable.
const alertTemplate = "⚠️ *မြေငလျင် သတိပေးချက်* ⚠️\n\n" +
	"*ပြင်းအား :* %s\n" +
	"*အနီးဆုံးမြို့ :* %s\n" +
	"*အချိန် :* %s\n" +
	"*ဗဟိုချက် တည်နေရာ :* %s, %s\n" +
	"*အနက် :* %s km\n\n" +
	"[အပြည့်စုံဖတ်ရှုရန်](%s)"

// Format renders one report as a MarkdownV2 alert. Every substituted
// value is escaped; the link URL follows the inline-link rule instead,
// which only escapes backslash and closing parenthesis.
func Format(report models.Report) string {
	magnitude := strconv.FormatFloat(report.Magnitude, 'f', -1, 64)

	return fmt.Sprintf(alertTemplate,
		escape(magnitude),
		escape(report.NearestCity),
		escape(report.TimeLocal),
		escape(report.Latitude),
		escape(report.Longitude),
		escape(report.Depth),
		escapeLinkURL(report.Link),
	)
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func escapeLinkURL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `)`, `\)`)
}
