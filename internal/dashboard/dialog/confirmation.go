package dialog

import (
	"context"
	"errors"
	"sync"
)

var ErrAlreadyResolved = errors.New("confirmation already resolved")

// Confirmation asks the user to confirm an action. Exactly one of the two callbacks
// runs, exactly once per dialog.
type Confirmation struct {
	Title       string
	Description string

	mu        sync.Mutex
	resolved  bool
	onConfirm func(ctx context.Context) error
	onCancel  func()
}

func NewConfirmation(title, description string, onConfirm func(ctx context.Context) error, onCancel func()) *Confirmation {
	return &Confirmation{
		Title:       title,
		Description: description,
		onConfirm:   onConfirm,
		onCancel:    onCancel,
	}
}

// Confirm runs onConfirm and returns its error.
func (c *Confirmation) Confirm(ctx context.Context) error {
	if err := c.claim(); err != nil {
		return err
	}
	if c.onConfirm == nil {
		return nil
	}
	return c.onConfirm(ctx)
}

func (c *Confirmation) Cancel() error {
	if err := c.claim(); err != nil {
		return err
	}
	if c.onCancel != nil {
		c.onCancel()
	}
	return nil
}

func (c *Confirmation) Resolved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolved
}

func (c *Confirmation) claim() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved {
		return ErrAlreadyResolved
	}
	c.resolved = true
	return nil
}
