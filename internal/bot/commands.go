package bot

import (
	"context"
	"fmt"
	"strings"

	"taskbot/internal/domain"
	"taskbot/internal/errors"
)

// StartCommand prints the help text.
type StartCommand struct{}

func NewStartCommand() *StartCommand { return &StartCommand{} }

func (c *StartCommand) Execute(ctx context.Context, msg Message, args string) (Reply, error) {
	return TextReply(msgHelp), nil
}

// AddCommand appends a task. Plain text messages are routed here too.
type AddCommand struct{ h *Handler }

func NewAddCommand(h *Handler) *AddCommand { return &AddCommand{h: h} }

func (c *AddCommand) Execute(ctx context.Context, msg Message, args string) (Reply, error) {
	if strings.TrimSpace(args) == "" {
		return TextReply(msgEmptyTask), nil
	}
	task, err := c.h.service.Add(ctx, msg.OwnerID, args)
	if err != nil {
		return Reply{}, err
	}
	return TextReply(fmt.Sprintf(msgTaskAdded, task.Position, task.Text)), nil
}

// ListCommand shows the owner's tasks.
type ListCommand struct{ h *Handler }

func NewListCommand(h *Handler) *ListCommand { return &ListCommand{h: h} }

func (c *ListCommand) Execute(ctx context.Context, msg Message, args string) (Reply, error) {
	tasks, err := c.h.service.List(ctx, msg.OwnerID)
	if err != nil {
		return Reply{}, err
	}
	c.h.logger.Debug("listing tasks",
		"owner_id", msg.OwnerID,
		"total", len(tasks),
		"pending", domain.CountPending(tasks))
	return TextReply(c.h.formatter.FormatList(tasks)), nil
}

// DoneCommand marks one task as done.
type DoneCommand struct{ h *Handler }

func NewDoneCommand(h *Handler) *DoneCommand { return &DoneCommand{h: h} }

func (c *DoneCommand) Execute(ctx context.Context, msg Message, args string) (Reply, error) {
	position, err := c.h.parsePositionArg(args, msgDoneUsage)
	if err != nil {
		return Reply{}, err
	}
	found, err := c.h.service.Complete(ctx, msg.OwnerID, position)
	if err != nil {
		return Reply{}, err
	}
	if !found {
		return TextReply(msgTaskNotFound), nil
	}
	return TextReply(fmt.Sprintf(msgTaskDone, position)), nil
}

// DeleteCommand removes one task; later tasks are renumbered.
type DeleteCommand struct{ h *Handler }

func NewDeleteCommand(h *Handler) *DeleteCommand { return &DeleteCommand{h: h} }

func (c *DeleteCommand) Execute(ctx context.Context, msg Message, args string) (Reply, error) {
	position, err := c.h.parsePositionArg(args, msgDeleteUsage)
	if err != nil {
		return Reply{}, err
	}
	found, err := c.h.service.Delete(ctx, msg.OwnerID, position)
	if err != nil {
		return Reply{}, err
	}
	if !found {
		return TextReply(msgTaskNotFound), nil
	}
	return TextReply(fmt.Sprintf(msgTaskDeleted, position)), nil
}

// ClearAllCommand deletes every task of the owner.
type ClearAllCommand struct{ h *Handler }

func NewClearAllCommand(h *Handler) *ClearAllCommand { return &ClearAllCommand{h: h} }

func (c *ClearAllCommand) Execute(ctx context.Context, msg Message, args string) (Reply, error) {
	count, err := c.h.service.ClearAll(ctx, msg.OwnerID)
	if err != nil {
		return Reply{}, err
	}
	if count == 0 {
		return TextReply(msgNothingToDelete), nil
	}
	return TextReply(fmt.Sprintf(msgAllDeleted, count)), nil
}

// DoneAllCommand marks every pending task as done.
type DoneAllCommand struct{ h *Handler }

func NewDoneAllCommand(h *Handler) *DoneAllCommand { return &DoneAllCommand{h: h} }

func (c *DoneAllCommand) Execute(ctx context.Context, msg Message, args string) (Reply, error) {
	count, err := c.h.service.CompleteAll(ctx, msg.OwnerID)
	if err != nil {
		return Reply{}, err
	}
	if count == 0 {
		return TextReply(msgNothingToMark), nil
	}
	return TextReply(fmt.Sprintf(msgAllDone, count)), nil
}

// ExportCommand sends the task list as a CSV document.
type ExportCommand struct{ h *Handler }

func NewExportCommand(h *Handler) *ExportCommand { return &ExportCommand{h: h} }

func (c *ExportCommand) Execute(ctx context.Context, msg Message, args string) (Reply, error) {
	tasks, err := c.h.service.List(ctx, msg.OwnerID)
	if err != nil {
		return Reply{}, err
	}
	if len(tasks) == 0 {
		return TextReply(msgNothingToExport), nil
	}

	content, err := c.h.formatter.ExportCSV(tasks)
	if err != nil {
		return Reply{}, errors.WrapError(err, errors.ErrorTypeUnavailable, "export failed")
	}
	return Reply{
		Document: &Document{Filename: c.h.formatter.ExportFilename(), Content: content},
		Caption:  msgExportCaption,
	}, nil
}

// parsePositionArg expects exactly one task number.
func (h *Handler) parsePositionArg(args, usage string) (int64, error) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return 0, errors.NewValidationError(usage, nil)
	}
	position, err := h.validator.ParsePosition(fields[0])
	if err != nil {
		return 0, err
	}
	return position, nil
}
