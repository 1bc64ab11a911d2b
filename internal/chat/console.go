// Package chat connects a bot to a line-oriented console room.
//
// Every line read from the input is a room message. Replies are written
// to the output, styled with a prompt and colours when the output is a
// terminal.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
	"github.com/Aman-CERP/shapeshifter/internal/ui"
)

// DefaultName is the speaker name shown in front of bot replies.
const DefaultName = "shapeshifter"

// Handler receives room messages. *bot.Bot satisfies it.
type Handler interface {
	HandleMessage(ctx context.Context, msg string)
	Prefix() string
	Done() <-chan struct{}
	Wait()
}

// Option configures a Console.
type Option func(*Console)

// WithName sets the speaker name shown in front of replies.
func WithName(name string) Option {
	return func(c *Console) { c.name = name }
}

// WithImplicitReply turns lines without the command prefix into replies.
func WithImplicitReply(on bool) Option {
	return func(c *Console) { c.implicit = on }
}

// WithWait makes the console wait for each command to finish before
// reading the next line. Scripted input wants this; an interactive user
// who types ahead gets the busy notice instead.
func WithWait(on bool) Option {
	return func(c *Console) { c.wait = on }
}

// WithUI sets the output styling.
func WithUI(cfg ui.Config) Option {
	return func(c *Console) {
		c.styled = cfg.Mode() == ui.ModeStyled
		c.styles = cfg.Styles()
	}
}

// Console is a chat room on an input and output stream.
type Console struct {
	in  io.Reader
	out io.Writer

	name     string
	implicit bool
	wait     bool
	styled   bool
	styles   ui.Styles

	mu sync.Mutex
}

// NewConsole creates a console reading from in and writing to out.
// Styling follows out unless WithUI overrides it.
func NewConsole(in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		in:   in,
		out:  out,
		name: DefaultName,
	}
	WithUI(ui.NewConfig(out))(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send writes a bot reply. It implements bot.Sender.
func (c *Console) Send(_ context.Context, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.styled {
		_, err = fmt.Fprintf(c.out, "%s %s\n", c.styles.Speaker.Render(c.name+">"), c.styles.Reply.Render(msg))
		c.prompt()
	} else {
		_, err = fmt.Fprintln(c.out, msg)
	}
	return err
}

// Notice writes an out-of-band line, such as a load report.
func (c *Console) Notice(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, c.styles.Dim.Render(msg))
}

// Error writes an error line.
func (c *Console) Error(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, c.styles.Error.Render(shaperrors.FormatForUser(err)))
}

// prompt must be called with mu held.
func (c *Console) prompt() {
	if c.styled {
		_, _ = fmt.Fprint(c.out, c.styles.Prompt.Render("> "))
	}
}

// Message turns an input line into a room message for h.
// ok is false when the line is not for the bot.
func (c *Console) Message(h Handler, line string) (msg string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	if strings.HasPrefix(line, h.Prefix()) {
		return line, true
	}
	if c.implicit {
		return h.Prefix() + "reply " + line, true
	}
	return "", false
}

// Run feeds input lines to h until the input ends, ctx is cancelled or
// the bot dies. Commands still running when the input ends are waited for.
func (c *Console) Run(ctx context.Context, h Handler) error {
	stop := make(chan struct{})
	defer close(stop)
	lines, scanErr := c.scan(stop)

	if c.styled {
		c.mu.Lock()
		_, _ = fmt.Fprintln(c.out, c.styles.Header.Render("Shapeshifter")+" "+
			c.styles.Dim.Render(fmt.Sprintf("(%slist for commands, Ctrl-D to leave)", h.Prefix())))
		c.prompt()
		c.mu.Unlock()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.Done():
			return c.closeDead(h)
		case line, ok := <-lines:
			if dead(h) {
				return c.closeDead(h)
			}
			if !ok {
				h.Wait()
				if err := <-scanErr; err != nil {
					return shaperrors.IOError("reading console input failed", err)
				}
				slog.Info("console_closed", slog.String("reason", "eof"))
				return nil
			}
			msg, ok := c.Message(h, line)
			if !ok {
				c.mu.Lock()
				c.prompt()
				c.mu.Unlock()
				continue
			}
			h.HandleMessage(ctx, msg)
			if c.wait {
				h.Wait()
			}
		}
	}
}

// dead reports whether the bot has been told to die. Lines read after
// that are dropped.
func dead(h Handler) bool {
	select {
	case <-h.Done():
		return true
	default:
		return false
	}
}

func (c *Console) closeDead(h Handler) error {
	h.Wait()
	slog.Info("console_closed", slog.String("reason", "die"))
	return nil
}

// scan reads lines in the background until the input ends or stop is
// closed. The line channel is closed at the end of input, after which
// scanErr yields the scanner error.
func (c *Console) scan(stop <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(scanErr)
		defer close(lines)

		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	return lines, scanErr
}
