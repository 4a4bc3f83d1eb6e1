package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer reads the reservation.events queue and appends one line per
// event to a log file.
type Consumer struct {
    url     string
    logPath string
    logger  *slog.Logger
}

// NewConsumer returns a Consumer writing to logPath (logs/reservations.log
// when empty).
func NewConsumer(url, logPath string, logger *slog.Logger) *Consumer {
    if logPath == "" {
        logPath = filepath.Join("logs", "reservations.log")
    }
    return &Consumer{url: url, logPath: logPath, logger: logger}
}

// Run connects to RabbitMQ, declares the queue and consumes messages
// until ctx is cancelled.  Dropped connections are retried with
// exponential backoff; a message that cannot be handled is rejected
// without requeue so the loop keeps going.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := dial(c.url)
        if err != nil {
            c.logger.Warn("reservation-consumer: failed to dial broker", "error", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.logger.Warn("reservation-consumer: consume loop ended; reconnecting", "error", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.logger.Warn("reservation-consumer: set QoS failed", "error", err)
    }
    if err := declare(ch); err != nil {
        return err
    }
    msgs, err := ch.Consume(ReservationsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handleMessage(d.Body); err != nil {
                c.logger.Error("reservation-consumer: handle message failed", "error", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handleMessage(body []byte) error {
    var ev ReservationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as a single human-friendly log line.
func FormatLine(ev ReservationEvent) string {
    return fmt.Sprintf("[%s] %s | event_id=%s | reservation_id=%d | user_id=%d | showtime_id=%d | seat=%s | status=%s | price=%s | actor_id=%d\n",
        ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.EventID, ev.ReservationID, ev.UserID,
        ev.ShowtimeID, ev.SeatNumber, ev.Status, ev.Price.StringFixed(2), ev.ActorID)
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
