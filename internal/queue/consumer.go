package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AlertLogFile is the file under the consumer's log directory that receives
// one line per event.
const AlertLogFile = "alerts.log"

const maxBackoff = 30 * time.Second

// Consumer drains the SOS and blood request queues into an append-only log
// file for the on-call desk.
type Consumer struct {
	url string
	dir string
	log *zap.Logger

	mu sync.Mutex // serialises appends from both queues
}

func NewConsumer(url, dir string, log *zap.Logger) *Consumer {
	return &Consumer{url: url, dir: dir, log: log}
}

// Run connects to the broker and consumes until ctx is done, reconnecting
// with exponential backoff whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("alert consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("alert consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("alert consumer: set QoS failed", zap.Error(err))
	}

	sos, err := c.subscribe(ch, QueueSOSAlert)
	if err != nil {
		return err
	}
	blood, err := c.subscribe(ch, QueueBloodRequestPosted)
	if err != nil {
		return err
	}
	c.log.Info("alert consumer: listening", zap.Strings("queues", []string{QueueSOSAlert, QueueBloodRequestPosted}))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-sos:
			if !ok {
				return errors.New("sos deliveries closed")
			}
			c.deliver(QueueSOSAlert, d)
		case d, ok := <-blood:
			if !ok {
				return errors.New("blood request deliveries closed")
			}
			c.deliver(QueueBloodRequestPosted, d)
		}
	}
}

func (c *Consumer) subscribe(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

func (c *Consumer) deliver(queue string, d amqp.Delivery) {
	if err := c.handle(queue, d.Body); err != nil {
		c.log.Error("alert consumer: handle failed", zap.String("queue", queue), zap.Error(err))
		// rejected without requeue so a poison message cannot spin
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// handle formats body and appends it to the alert log.
func (c *Consumer) handle(queue string, body []byte) error {
	line, err := formatLine(queue, body)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, AlertLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open alert log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write alert log: %w", err)
	}
	return nil
}

// formatLine renders one newline-terminated log line for an event.
func formatLine(queue string, body []byte) (string, error) {
	switch queue {
	case QueueSOSAlert:
		var ev SOSAlertEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", queue, err)
		}
		if ev.AlertID == "" {
			return "", errors.New("sos alert without alert_id")
		}
		loc := "unknown"
		if ev.Lat != nil && ev.Lng != nil {
			loc = fmt.Sprintf("%.5f,%.5f", *ev.Lat, *ev.Lng)
		}
		nearest := "[]"
		if len(ev.NearestHospitals) > 0 {
			nearest = "[" + strings.Join(ev.NearestHospitals, "; ") + "]"
		}
		return fmt.Sprintf("[%s] SOS ALERT | id=%s | type=%s | user=%s | location=%s | client_time=%q | nearest=%s\n",
			ev.ReceivedAt, ev.AlertID, ev.EmergencyType, userLabel(ev.UserID), loc, ev.ClientTimestamp, nearest), nil

	case QueueBloodRequestPosted:
		var ev BloodRequestPostedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", queue, err)
		}
		if ev.RequestID == 0 {
			return "", errors.New("blood request without request_id")
		}
		return fmt.Sprintf("[%s] Blood request | id=%d | group=%s | urgency=%s | hospital=%q | location=%q | contact=%s | user=%s\n",
			ev.PostedAt, ev.RequestID, ev.BloodGroup, ev.Urgency, ev.Hospital, ev.Location, ev.Contact, userLabel(ev.UserID)), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}

func userLabel(id *uint64) string {
	if id == nil {
		return "anonymous"
	}
	return fmt.Sprint(*id)
}

// sleep waits d or until ctx is done; it reports whether d elapsed.
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
