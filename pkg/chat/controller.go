package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/esita/esita/pkg/logger"
)

// Fixed assistant texts for locally-resolved outcomes.
const (
	timeoutReply    = "The request timed out. The server might be waking up, please try again in a moment."
	networkReply    = "I couldn't reach the server. Please check your connection and try again."
	emptyReply      = "I couldn't come up with a reply. Please try again."
	errorMarkPrefix = "⚠️ "
)

// Controller drives the send lifecycle: it validates input, answers canned
// intents locally, and otherwise runs one bounded request against the chat
// API, reconciling the outcome into the transcript and the connectivity flag.
// At most one request is in flight at a time; sends arriving while one is
// outstanding are dropped, not queued.
type Controller struct {
	store         *Store
	client        *Client
	botName       string
	creatorName   string
	historyWindow int

	mu      sync.Mutex
	sending bool
	online  bool
}

func NewController(store *Store, client *Client, botName, creatorName string, historyWindow int) *Controller {
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &Controller{
		store:         store,
		client:        client,
		botName:       botName,
		creatorName:   creatorName,
		historyWindow: historyWindow,
	}
}

// Sending reports whether a chat request is currently outstanding.
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Online reports the advisory connectivity flag. It never gates a send.
func (c *Controller) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *Controller) setOnline(v bool) {
	c.mu.Lock()
	c.online = v
	c.mu.Unlock()
}

// Probe runs the startup health check and records connectivity from its
// outcome. It is independent of the send lifecycle.
func (c *Controller) Probe(ctx context.Context) {
	err := c.client.Health(ctx)
	c.setOnline(err == nil)
	if err != nil {
		logger.WarnCF("chat", "Health probe failed", map[string]interface{}{"error": err.Error()})
		return
	}
	logger.DebugCF("chat", "Health probe ok", nil)
}

// Send runs one full send lifecycle for the given input. Empty input and
// sends while a request is outstanding are silent no-ops. The call blocks
// until the outcome has been appended to the transcript.
func (c *Controller) Send(ctx context.Context, input string) {
	text := strings.TrimSpace(input)
	if text == "" {
		return
	}

	// Canned intents never enter the sending state and never touch the
	// network, but they still respect the single-flight guard.
	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return
	}
	intent := Classify(text)
	if intent == IntentNone {
		c.sending = true
	}
	c.mu.Unlock()

	c.store.Append(RoleUser, text)

	switch intent {
	case IntentCreator:
		c.store.Append(RoleAssistant, fmt.Sprintf("I was created by %s.", c.creatorName))
		return
	case IntentIdentity:
		c.store.Append(RoleAssistant, fmt.Sprintf("I'm %s, your AI assistant. Ask me anything!", c.botName))
		return
	}

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	// The window is derived after the user turn was appended, so the model
	// sees its caller's latest message as part of the history.
	history := c.store.RecentWindow(c.historyWindow)

	reply, err := c.client.Send(ctx, text, history)
	c.reconcile(reply, err)
}

func (c *Controller) reconcile(reply string, err error) {
	if err == nil {
		c.store.Append(RoleAssistant, reply)
		c.setOnline(true)
		return
	}

	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrTimeout):
		c.store.Append(RoleAssistant, timeoutReply)
		c.setOnline(false)
	case errors.As(err, &statusErr):
		c.store.Append(RoleAssistant, errorMarkPrefix+statusErr.Message)
		c.setOnline(false)
	case errors.Is(err, ErrEmptyReply):
		// The transport succeeded even though content was absent.
		c.store.Append(RoleAssistant, emptyReply)
		c.setOnline(true)
	default:
		c.store.Append(RoleAssistant, networkReply)
		c.setOnline(false)
	}

	logger.WarnCF("chat", "Send resolved with error", map[string]interface{}{"error": err.Error()})
}
