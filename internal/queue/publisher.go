package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

const (
    // DialTimeout bounds the TCP connect and AMQP handshake.
    DialTimeout = 3 * time.Second
    // RedialBackoff is how long Publish fails fast after a failed dial.
    RedialBackoff = 5 * time.Second
)

// ErrBrokerUnavailable is returned by Publish while the publisher waits
// out RedialBackoff.
var ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

// dial opens a broker connection with DialTimeout applied.
func dial(url string) (*amqp.Connection, error) {
    return amqp.DialConfig(url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(DialTimeout),
    })
}

// Publisher sends ReservationEvents to the reservation.events queue.
// The broker connection is opened on first use and re-opened after it
// drops.  A failed dial is not retried for RedialBackoff, so an
// unreachable broker costs at most one DialTimeout per window instead
// of one per request.  Errors are logged and returned so callers can
// ignore them without interrupting the request flow.
type Publisher struct {
    url    string
    logger *slog.Logger
    dial   func(url string) (*amqp.Connection, error)
    now    func() time.Time

    mu      sync.Mutex
    conn    *amqp.Connection
    ch      *amqp.Channel
    retryAt time.Time
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
    return &Publisher{url: url, logger: logger, dial: dial, now: time.Now}
}

// Publish marshals ev and publishes it as a persistent message.
func (p *Publisher) Publish(ctx context.Context, ev ReservationEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        p.logger.Error("rabbitmq: marshal event failed", "error", err)
        return err
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        if !errors.Is(err, ErrBrokerUnavailable) {
            p.logger.Warn("rabbitmq: channel unavailable", "error", err)
        }
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    ev.EventID,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",                // default exchange
        ReservationsQueue, // routing key = queue name
        false,             // mandatory
        false,             // immediate
        pub,
    ); err != nil {
        p.logger.Warn("rabbitmq: publish failed", "error", err, "event_id", ev.EventID)
        p.reset()
        return err
    }
    return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}

// channel returns an open channel, dialing the broker when needed.
// p.mu must be held.
func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    if p.now().Before(p.retryAt) {
        return nil, ErrBrokerUnavailable
    }
    conn, err := p.dial(p.url)
    if err != nil {
        p.retryAt = p.now().Add(RedialBackoff)
        return nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    // Durable so messages survive broker restarts.
    if err := declare(ch); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

func declare(ch *amqp.Channel) error {
    if _, err := ch.QueueDeclare(
        ReservationsQueue, // name
        true,              // durable
        false,             // autoDelete
        false,             // exclusive
        false,             // noWait
        nil,               // args
    ); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    return nil
}
