// Package telegram provides Telegram Bot integration using the Telego library.
// It moves updates from Telegram onto the internal message bus and sends
// replies from the bus back to Telegram.
//
// Features:
//   - Long polling for receiving updates
//   - Text, command, voice and document messages
//   - Allow-list based user authorization and per-user rate limiting
//   - Typing indicator driven by processing events
//   - Markdown replies with a plain-text fallback
//   - File downloads for voice notes and attachments
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/mymmrac/telego"
)

const (
	defaultSendTimeout     = 10 * time.Second
	defaultDownloadTimeout = 30 * time.Second
)

// User-facing replies sent directly by the connector.
const (
	ReplyUnauthorized = "⛔ Nie masz dostępu do tego bota."
	ReplyRateLimited  = "⏳ Zbyt wiele wiadomości. Spróbuj ponownie za chwilę."
)

var ErrNotStarted = errors.New("telegram connector is not started")

// Commands is the command menu registered with Telegram.
var Commands = []telego.BotCommand{
	{Command: "start", Description: "Powitanie i instrukcja"},
	{Command: "help", Description: "Pomoc i przykłady"},
	{Command: "status", Description: "Status bota"},
	{Command: "set", Description: "Ustaw domyślny adres email"},
	{Command: "jobs", Description: "Lista zaplanowanych emaili"},
	{Command: "cancel", Description: "Anuluj zaplanowane emaile"},
	{Command: "reset", Description: "Wyczyść historię rozmowy"},
}

// Connector represents the Telegram bot connector
type Connector struct {
	cfg        config.TelegramConfig
	logger     *logger.Logger
	bus        *bus.MessageBus
	bot        BotInterface
	httpClient *http.Client
	limiter    *userLimiter

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool

	typingManager   *TypingManager
	longPollManager *LongPollManager
	updateHandler   *UpdateHandler
}

// New creates a new Telegram connector
func New(cfg config.TelegramConfig, log *logger.Logger, msgBus *bus.MessageBus) *Connector {
	log = log.Component("telegram")
	conn := &Connector{
		cfg:           cfg,
		logger:        log,
		bus:           msgBus,
		httpClient:    &http.Client{},
		limiter:       newUserLimiter(cfg.RateLimitPerMinute),
		typingManager: NewTypingManager(nil, log),
	}
	conn.longPollManager = NewLongPollManager(conn, log)
	conn.updateHandler = NewUpdateHandler(conn, log, msgBus)
	return conn
}

// Start initializes the Telegram bot and starts listening for updates
func (c *Connector) Start(ctx context.Context) error {
	if c.cfg.Token == "" {
		return fmt.Errorf("invalid config: telegram token is required")
	}

	bot, err := telego.NewBot(c.cfg.Token)
	if err != nil {
		return fmt.Errorf("failed to initialize telegram bot: %w", err)
	}

	return c.start(ctx, NewBotAdapter(bot))
}

func (c *Connector) start(ctx context.Context, bot BotInterface) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	if !c.bus.IsStarted() {
		return fmt.Errorf("message bus must be started before the telegram connector")
	}

	c.bot = bot
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.typingManager.SetContext(c.ctx)
	c.typingManager.bot = bot

	botUser, err := c.bot.GetMe(c.ctx)
	if err != nil {
		c.cancel()
		return fmt.Errorf("failed to get bot info: %w", err)
	}

	c.logger.Info("telegram bot initialized",
		logger.Field{Key: "bot_id", Value: botUser.ID},
		logger.Field{Key: "username", Value: botUser.Username})

	if err := c.registerCommands(); err != nil {
		c.logger.ErrorCtx(c.ctx, "failed to register bot commands", err)
	}

	outboundCh := c.bus.SubscribeOutbound(c.ctx)
	eventCh := c.bus.SubscribeEvent(c.ctx)

	c.wg.Add(3)
	go func() {
		defer c.wg.Done()
		c.handleOutbound(outboundCh)
	}()
	go func() {
		defer c.wg.Done()
		c.handleEvents(eventCh)
	}()
	go func() {
		defer c.wg.Done()
		c.longPollManager.Start(c.ctx)
	}()

	c.started = true
	return nil
}

// Stop gracefully stops the Telegram connector
func (c *Connector) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	c.mu.Unlock()

	c.logger.Info("stopping telegram connector")

	c.typingManager.StopAll()
	c.cancel()
	c.wg.Wait()

	c.logger.Info("telegram connector stopped gracefully")
	return nil
}

// registerCommands registers bot commands with Telegram
func (c *Connector) registerCommands() error {
	err := c.bot.SetMyCommands(c.ctx, &telego.SetMyCommandsParams{Commands: Commands})
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	c.logger.Info("bot commands registered successfully")
	return nil
}

// isAllowedUser checks if the user is allowed based on the whitelist configuration
func (c *Connector) isAllowedUser(userID int64) bool {
	if len(c.cfg.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.cfg.AllowedUsers, userID)
}

// handleOutbound sends replies from the message bus to Telegram
func (c *Connector) handleOutbound(outboundCh <-chan bus.OutboundMessage) {
	c.logger.Info("outbound message handler started")

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("outbound message handler stopped")
			return
		case msg, ok := <-outboundCh:
			if !ok {
				c.logger.Info("outbound channel closed")
				return
			}
			c.send(msg)
		}
	}
}

// handleEvents processes lifecycle events from the message bus
func (c *Connector) handleEvents(eventCh <-chan bus.Event) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}

			switch event.Type {
			case bus.EventTypeProcessingStart:
				c.typingManager.Start(event)
			case bus.EventTypeProcessingEnd:
				c.typingManager.Stop(event)
			}
		}
	}
}

// sendContext returns a context bounded by the configured send timeout.
func (c *Connector) sendContext() (context.Context, context.CancelFunc) {
	timeout := c.cfg.SendTimeout()
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return context.WithTimeout(c.ctx, timeout)
}
