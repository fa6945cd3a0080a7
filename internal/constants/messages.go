package constants

// User-facing texts. Replies are in Polish; Markdown ones are sent with the
// legacy Telegram parse mode.

// Command messages
const (
	MsgWelcome = `🤖 **Bot do planowania emaili**

Cześć! Jestem botem AI, który pomoże Ci zaplanować wysyłkę emaili.

**Jak używać:**
• Napisz lub nagraj wiadomość opisującą email, który chcesz zaplanować
• Bot przeanalizuje wiadomość i zapyta o brakujące szczegóły
• Jeśli wspomnisz o załączniku, bot poprosi o przesłanie pliku
• Bot automatycznie zaplanuje wysyłkę na określony czas

**Przykłady:**
• "Wyślij przypomnienie o spotkaniu jutro o 9:00"
• "Zaplanuj email z raportem za 2 godziny"
• "Wyślij życzenia urodzinowe 25.12.2024 10:00"

**Komendy:**
/start - pokaż tę wiadomość
/help - pomoc
/status - status bota
/set - ustaw swój domyślny email
/jobs - zaplanowane emaile
/cancel - anuluj zaplanowane emaile
/reset - wyczyść historię rozmowy

Zacznij od opisania emaila, który chcesz zaplanować! 📧`

	MsgHelp = `📚 **Pomoc - Bot do planowania emaili**

**Funkcje:**
✅ Analiza wiadomości tekstowych i głosowych
✅ Automatyczne planowanie wysyłki emaili
✅ Obsługa załączników
✅ Pamięć konwersacji
✅ Inteligentne pytania o brakujące dane

**Formaty dat i godzin:**
• "za 30 minut" - za 30 minut
• "za 2 godziny" - za 2 godziny
• "za 1 dzień" - za dobę
• "25.12.2024 15:30" - 25 grudnia o 15:30
• "14:30" - dzisiaj o 14:30

**Przykłady użycia:**
• "Wyślij przypomnienie o spotkaniu za godzinę"
• "Zaplanuj email z raportem jutro o 8:00"
• "Wyślij życzenia urodzinowe z załącznikiem 25.12.2024 10:00"

**Komendy:**
• ` + "`/set twoj@email.com`" + ` - ustaw swój domyślny email
• ` + "`/set`" + ` - pokaż aktualny email
• ` + "`/jobs`" + ` - lista zaplanowanych emaili
• ` + "`/cancel`" + ` - anuluj zaplanowane emaile
• ` + "`/reset`" + ` - zacznij rozmowę od nowa

**Wsparcie:**
Jeśli masz problemy, napisz wiadomość opisującą co chcesz zrobić, a bot pomoże! 🤖`

	MsgEmailSet = "✅ **Email ustawiony!**\n\n" +
		"Twój domyślny adres email to: `%s`\n\n" +
		"Teraz wszystkie zaplanowane emaile będą wysyłane na ten adres! 📧"

	MsgEmailInvalid = "❌ **Nieprawidłowy format emaila!**\n\n" +
		"Użyj: `/set twoj@email.com`\n" +
		"Przykład: `/set jan.kowalski@gmail.com`"

	MsgEmailCurrent = "📧 **Twój aktualny email:** `%s`\n\n" +
		"**Aby zmienić email, użyj:**\n" +
		"`/set nowy@email.com`\n\n" +
		"**Przykład:**\n" +
		"`/set jan.kowalski@gmail.com`"

	MsgSessionCleared = "✅ Historia rozmowy wyczyszczona. Zaczynamy od nowa!"
	MsgNothingToReset = "ℹ️ Nie ma aktywnej rozmowy."
	MsgUnknownCommand = "❓ Nieznana komenda. Użyj /help, aby zobaczyć dostępne komendy."
)

// Status messages
const (
	MsgStatusHeader         = "📊 **Status bota**\n\n"
	MsgStatusActive         = "✅ Bot aktywny\n"
	MsgStatusScheduler      = "✅ Email scheduler: %s\n"
	MsgStatusLLM            = "✅ OpenAI API: %s\n"
	MsgStatusConversations  = "✅ Aktywne konwersacje: %d\n"
	MsgStatusPendingJobs    = "✅ Zaplanowane emaile: %d\n"
	MsgStatusYourEmail      = "\n📧 Twój email: `%s`"
	MsgStatusLLMConnected   = "Połączone"
	MsgStatusLLMUnavailable = "Nie skonfigurowane"
)

// Job messages
const (
	MsgJobsHeader     = "📅 **Zaplanowane emaile:**\n\n"
	MsgJobsEntry      = "%d. %s → `%s`\n   📝 %s\n"
	MsgJobsEmpty      = "📭 Nie masz zaplanowanych emaili."
	MsgJobsCancelled  = "🗑️ Anulowano zaplanowane emaile: %d"
	MsgJobsNoneCancel = "📭 Nie masz zaplanowanych emaili do anulowania."
)

// Voice messages
const (
	MsgTranscription     = "🎤 Transkrypcja: %s"
	MsgVoiceEmpty        = "❌ Nie udalo sie przetworzyc wiadomosci glosowej."
	MsgVoiceFailed       = "❌ Błąd podczas przetwarzania wiadomości głosowej."
	MsgVoiceUnconfigured = "❌ Transkrypcja wiadomości głosowych nie jest skonfigurowana."
)

// Config messages
const (
	MsgConfigLoadError       = "❌ Failed to load configuration: %v\n"
	MsgConfigValidationError = "❌ Configuration validation failed:\n"
	MsgConfigValid           = "✅ Configuration is valid"
	MsgConfigValidatePrefix  = "  - %v\n"
	MsgErrorFormat           = "Error: %v"
)
