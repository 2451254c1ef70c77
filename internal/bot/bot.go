// Package bot turns chat messages into task service calls and renders the
// replies.
package bot

import (
	"context"
	"log/slog"
	"strings"

	"taskbot/internal/logging"
	"taskbot/internal/services"
	"taskbot/internal/validation"
)

// Message is one inbound chat message.
type Message struct {
	OwnerID int64
	Text    string
}

// Document is a file attached to a reply.
type Document struct {
	Filename string
	Content  []byte
}

// Reply is the bot's answer. Exactly one of Text or Document is set.
type Reply struct {
	Text     string
	Document *Document
	Caption  string
}

// TextReply builds a plain text reply.
func TextReply(text string) Reply {
	return Reply{Text: text}
}

// Handler dispatches messages to commands.
type Handler struct {
	registry     *CommandRegistry
	service      services.TaskService
	formatter    *Formatter
	validator    *validation.TaskValidator
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewHandler wires every command against service.
func NewHandler(service services.TaskService, opts Options) *Handler {
	opts = opts.withDefaults()
	h := &Handler{
		service:      service,
		formatter:    NewFormatter(opts),
		validator:    validation.NewTaskValidator(),
		errorHandler: NewErrorHandler(),
		logger:       logging.OrDiscard(opts.Logger),
	}
	h.registry = NewCommandRegistry(h)
	return h
}

// Handle answers msg. Failures become user facing text, never an error.
func (h *Handler) Handle(ctx context.Context, msg Message) Reply {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return TextReply(msgEmptyTask)
	}

	name, args, isCommand := parseCommand(text)
	if !isCommand {
		name, args = "add", text
	}

	logging.Debugf("owner %d command %q", msg.OwnerID, name)
	reply, err := h.registry.Execute(ctx, name, msg, args)
	if err != nil {
		h.logger.Debug("command failed", "command", name, "owner_id", msg.OwnerID, "error", err)
		return TextReply(h.errorHandler.Message(err))
	}
	return reply
}

// parseCommand splits "/done@taskbot 3" into ("done", "3", true).
func parseCommand(text string) (name, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text, " ")
	if nl := strings.IndexByte(head, '\n'); nl >= 0 {
		rest = head[nl+1:] + " " + rest
		head = head[:nl]
	}
	head = strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}
