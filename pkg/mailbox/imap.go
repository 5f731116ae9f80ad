// Package mailbox reads verification messages from an IMAP inbox.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/pkg/config"
)

// ErrNoMessage is returned when the inbox holds no unseen message.
var ErrNoMessage = errors.New("no unseen message")

// Message is the parsed content of an inbound verification mail.
type Message struct {
	From       string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// Client polls a single IMAP folder. Each call opens and closes its own session.
type Client struct {
	cfg    config.MailboxConfig
	logger *zap.Logger
}

// New builds a mailbox client.
func New(cfg config.MailboxConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	return &Client{cfg: cfg, logger: logger}
}

// Address is the inbox address users send verification codes to.
func (c *Client) Address() string {
	return c.cfg.Address
}

// LatestUnseen fetches the newest unseen message and marks it seen.
func (c *Client) LatestUnseen(ctx context.Context) (*Message, error) {
	conn, err := client.DialTLS(c.cfg.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", c.cfg.Addr, err)
	}
	if c.cfg.Timeout > 0 {
		conn.Timeout = c.cfg.Timeout
	}
	defer func() {
		if err := conn.Logout(); err != nil {
			c.logger.Debug("imap logout failed", zap.Error(err))
		}
	}()

	stop := context.AfterFunc(ctx, func() { _ = conn.Terminate() })
	defer stop()

	if err := conn.Login(c.cfg.Username, c.cfg.Password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := conn.Select(c.cfg.Folder, false); err != nil {
		return nil, fmt.Errorf("select %s: %w", c.cfg.Folder, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	seqNums, err := conn.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search unseen: %w", err)
	}
	if len(seqNums) == 0 {
		return nil, ErrNoMessage
	}
	latest := seqNums[0]
	for _, n := range seqNums[1:] {
		if n > latest {
			latest = n
		}
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(latest)
	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- conn.Fetch(seqSet, items, messages)
	}()

	var fetched *imap.Message
	for msg := range messages {
		fetched = msg
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch message %d: %w", latest, err)
	}
	if fetched == nil {
		return nil, ErrNoMessage
	}

	return parse(fetched, section)
}

func parse(msg *imap.Message, section *imap.BodySectionName) (*Message, error) {
	out := &Message{}
	if env := msg.Envelope; env != nil {
		out.Subject = env.Subject
		out.ReceivedAt = env.Date
		if len(env.From) > 0 {
			out.From = env.From[0].Address()
		}
	}

	literal := msg.GetBody(section)
	if literal == nil {
		return out, nil
	}
	reader, err := mail.CreateReader(literal)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	var body strings.Builder
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read part: %w", err)
		}
		if _, ok := part.Header.(*mail.InlineHeader); !ok {
			continue
		}
		b, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		body.Write(b)
		body.WriteByte('\n')
	}
	out.Body = body.String()
	return out, nil
}
