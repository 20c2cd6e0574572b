package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
	"github.com/EnricoHuber/home-chatbot/internal/service"
)

// Fixed Italian replies.
const (
	replyNotAuthorized  = "⚠️ Non sei autorizzato a usare questo bot."
	replyTechnicalIssue = "⚠️ Scusa, ho avuto un problema tecnico. Riprova tra poco!"
	replyOnlyPDF        = "⚠️ Per favore invia solo file PDF."
	replyDocumentAdded  = "✅ Documento aggiunto al database delle conoscenze!"
	replyDocumentError  = "❌ Errore nel processare il documento."
	replyContentShort   = "⚠️ Il contenuto è troppo corto. Scrivi almeno 10 caratteri."
	replyKnowledgeError = "❌ Errore nell'aggiungere la conoscenza. Riprova!"
	replyStatsError     = "❌ Errore nel recuperare le statistiche."
)

const helpText = `🤖 Comandi disponibili:

/start - Avvia il bot
/help - Mostra questo messaggio
/stats - Statistiche del bot
/info - Informazioni sul database conoscenze
/addknowledge - Aggiungi nuova conoscenza al database

💬 Esempi di domande:
• "Come pulire il forno naturalmente?"
• "Come risparmiare energia in casa?"
• "Come rimuovere il calcare?"

📚 Aggiungere conoscenze:
1. Testo: /addknowledge [categoria] testo della conoscenza
2. PDF: invia un file PDF direttamente`

const infoText = `ℹ️ Informazioni sul Bot

Sono un assistente domestico intelligente che utilizza:
• 🧠 AI per comprendere le tue domande
• 📚 Database di conoscenze specializzato
• 🔍 Ricerca semantica per trovare info rilevanti

📚 Puoi insegnarmi cose nuove:
• Usa /addknowledge per aggiungere testo
• Inviami documenti PDF`

const addKnowledgeUsage = `📚 Come aggiungere conoscenza:

Formato:
/addknowledge [categoria] testo della conoscenza

Categorie disponibili:
• pulizia
• utenze
• manutenzione
• casa
• generale (default)

Esempio:
/addknowledge utenze Il contratto luce scade il 31/12/2025`

// TelegramBot is the subset of the bot API the handler needs, extracted so
// tests can substitute a mock.
type TelegramBot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetSelf() tgbotapi.User
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
}

type tgBotWrapper struct {
	bot *tgbotapi.BotAPI
}

func (w *tgBotWrapper) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return w.bot.GetUpdatesChan(config)
}

func (w *tgBotWrapper) StopReceivingUpdates() {
	w.bot.StopReceivingUpdates()
}

func (w *tgBotWrapper) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return w.bot.Send(c)
}

func (w *tgBotWrapper) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return w.bot.Request(c)
}

func (w *tgBotWrapper) GetSelf() tgbotapi.User {
	return w.bot.Self
}

func (w *tgBotWrapper) GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error) {
	return w.bot.GetFile(config)
}

// Chatbot answers chat turns.
type Chatbot interface {
	Answer(ctx context.Context, callerID, text string) (*service.Answer, error)
}

// Knowledge covers the ingestion operations reachable from chat commands.
type Knowledge interface {
	Ingest(ctx context.Context, rawText, category string) (*domain.KnowledgeItem, error)
	IngestDocument(ctx context.Context, text, category, filename string) ([]*domain.KnowledgeItem, error)
	Stats(ctx context.Context) (*service.Stats, error)
}

// Extractor turns uploaded documents into plain text.
type Extractor interface {
	CanExtract(filename string) bool
	Extract(r io.Reader, filename string) (string, error)
}

// Config for the Telegram transport.
type Config struct {
	Token string
	// AllowedUsers is an allow-list of Telegram user IDs. Empty admits all.
	AllowedUsers []int64
}

// Bot is the Telegram transport: it long-polls for updates and forwards
// text to the chat orchestrator and documents to the ingestor.
type Bot struct {
	cfg        Config
	bot        TelegramBot
	chatbot    Chatbot
	knowledge  Knowledge
	extractor  Extractor
	httpClient *http.Client
	logger     *log.Logger
	cancel     context.CancelFunc
}

// NewBot creates the Telegram transport. extractor may be nil to reject
// document uploads.
func NewBot(cfg Config, chatbot Chatbot, knowledge Knowledge, extractor Extractor, logger *log.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Bot{
		cfg:        cfg,
		chatbot:    chatbot,
		knowledge:  knowledge,
		extractor:  extractor,
		httpClient: http.DefaultClient,
		logger:     logger,
	}, nil
}

// SetBot injects the bot API (for testing).
func (b *Bot) SetBot(bot TelegramBot) {
	b.bot = bot
}

// Start authorizes against the Telegram API and begins long-polling in a
// background goroutine.
func (b *Bot) Start(ctx context.Context) error {
	if b.bot == nil {
		api, err := tgbotapi.NewBotAPI(b.cfg.Token)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		b.bot = &tgBotWrapper{bot: api}
	}

	ctx, b.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case update := <-updates:
				if update.Message == nil {
					continue
				}
				b.handleMessage(ctx, update.Message)
			case <-ctx.Done():
				return
			}
		}
	}()

	b.logger.Printf(`{"level":"info","msg":"telegram polling started","bot":%q}`, b.bot.GetSelf().UserName)
	return nil
}

// Stop halts polling.
func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.bot != nil {
		b.bot.StopReceivingUpdates()
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	if len(b.cfg.AllowedUsers) == 0 {
		return true
	}
	for _, id := range b.cfg.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if !b.userAllowed(msg.From.ID) {
		b.logger.Printf(`{"level":"warn","msg":"telegram message rejected","user_id":%d}`, msg.From.ID)
		b.reply(msg.Chat.ID, replyNotAuthorized)
		return
	}

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	case msg.Text != "":
		b.handleText(ctx, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		name := msg.From.FirstName
		if name == "" {
			name = "utente"
		}
		b.reply(msg.Chat.ID, fmt.Sprintf(`🏠 Ciao %s! Sono il tuo assistente domestico.

Posso aiutarti con:
• 🧹 Consigli per la pulizia naturale
• 💡 Gestione delle utenze domestiche
• 🔧 Manutenzione della casa
• 📋 Organizzazione domestica

Fai una domanda o usa /help per vedere tutti i comandi disponibili!`, name))
	case "help":
		b.reply(msg.Chat.ID, helpText)
	case "info":
		b.reply(msg.Chat.ID, infoText)
	case "stats":
		b.handleStats(ctx, msg)
	case "addknowledge":
		b.handleAddKnowledge(ctx, msg)
	}
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	stats, err := b.knowledge.Stats(ctx)
	if err != nil {
		b.logger.Printf(`{"level":"error","msg":"stats failed","error":%q}`, err.Error())
		b.reply(msg.Chat.ID, replyStatsError)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Statistiche Bot\n\n📚 Database Conoscenze:\n")
	fmt.Fprintf(&sb, "  • Totale documenti: %d\n  • Categorie:\n", stats.Total)
	for _, cat := range domain.Categories() {
		if count := stats.Categories[cat]; count > 0 {
			fmt.Fprintf(&sb, "    • %s: %d\n", cat, count)
		}
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleAddKnowledge(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		b.reply(msg.Chat.ID, addKnowledgeUsage)
		return
	}

	// A leading known category selects it, everything else goes to the
	// default.
	category := ""
	content := args
	if first, rest, found := strings.Cut(args, " "); found && domain.IsKnownCategory(first) {
		category = first
		content = strings.TrimSpace(rest)
	}

	item, err := b.knowledge.Ingest(ctx, content, category)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeValidation) {
			b.reply(msg.Chat.ID, replyContentShort)
			return
		}
		b.logger.Printf(`{"level":"error","msg":"add knowledge failed","user_id":%d,"error":%q}`, msg.From.ID, err.Error())
		b.reply(msg.Chat.ID, replyKnowledgeError)
		return
	}

	preview := item.Content
	if len([]rune(preview)) > 100 {
		preview = string([]rune(preview)[:100]) + "..."
	}
	b.reply(msg.Chat.ID, fmt.Sprintf(`✅ Conoscenza aggiunta!

📁 Categoria: %s
📝 Contenuto: %s
🆔 ID: %s`, item.Category, preview, item.ID))
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	callerID := strconv.FormatInt(msg.From.ID, 10)

	// Best effort, the answer goes out either way.
	_, _ = b.bot.Request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping))

	answer, err := b.chatbot.Answer(ctx, callerID, msg.Text)
	if err != nil {
		b.logger.Printf(`{"level":"error","msg":"answer failed","caller_id":%q,"error":%q}`, callerID, err.Error())
		b.reply(msg.Chat.ID, replyTechnicalIssue)
		return
	}
	b.reply(msg.Chat.ID, answer.Text)
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	doc := msg.Document
	if b.extractor == nil || doc.MimeType != "application/pdf" || !b.extractor.CanExtract(doc.FileName) {
		b.reply(msg.Chat.ID, replyOnlyPDF)
		return
	}

	data, err := b.downloadFile(doc.FileID)
	if err != nil {
		b.logger.Printf(`{"level":"error","msg":"document download failed","file_id":%q,"error":%q}`, doc.FileID, err.Error())
		b.reply(msg.Chat.ID, replyDocumentError)
		return
	}

	text, err := b.extractor.Extract(bytes.NewReader(data), doc.FileName)
	if err != nil {
		b.logger.Printf(`{"level":"error","msg":"document extraction failed","filename":%q,"error":%q}`, doc.FileName, err.Error())
		b.reply(msg.Chat.ID, replyDocumentError)
		return
	}

	if _, err := b.knowledge.IngestDocument(ctx, text, "", doc.FileName); err != nil {
		b.logger.Printf(`{"level":"error","msg":"document ingestion failed","filename":%q,"error":%q}`, doc.FileName, err.Error())
		b.reply(msg.Chat.ID, replyDocumentError)
		return
	}

	b.reply(msg.Chat.ID, replyDocumentAdded)
}

func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	file, err := b.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get telegram file: %w", err)
	}

	resp, err := b.httpClient.Get(file.Link(b.cfg.Token))
	if err != nil {
		return nil, fmt.Errorf("download telegram file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download telegram file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read telegram file body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("telegram file is empty")
	}
	return data, nil
}

// reply sends text to a chat, splitting messages that exceed the Telegram
// per-message limit.
func (b *Bot) reply(chatID int64, text string) {
	const maxLen = 4000
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxLen {
			idx := strings.LastIndex(chunk[:maxLen], "\n")
			if idx > 0 {
				chunk = chunk[:idx]
			} else {
				chunk = chunk[:maxLen]
			}
		}
		text = text[len(chunk):]

		if _, err := b.bot.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			b.logger.Printf(`{"level":"error","msg":"telegram send failed","chat_id":%d,"error":%q}`, chatID, err.Error())
			return
		}
	}
}
