package kafka

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/catalog-categories/internal/usecase"
	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/DRSN-tech/catalog-categories/pkg/jitter"
	"github.com/DRSN-tech/catalog-categories/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
)

const (
	defaultBatchLimit   = 10
	pollInterval        = 5 * time.Second
	notificationTimeout = 30 * time.Second
	reconnectBase       = 2 * time.Second
	reconnectMax        = time.Minute
	retryBase           = time.Second
	retryMax            = 5 * time.Minute
	maxAttempts         = 10
)

// OutboxWorker переносит события из outbox_events в Kafka.
// Обработка запускается по NOTIFY, а периодический опрос подбирает пропущенные и возвращённые в очередь события.
type OutboxWorker struct {
	repo       usecase.OutboxRepository
	logger     logger.Logger
	producer   usecase.MessageProducer
	stop       chan struct{}
	stopOnce   sync.Once
	stopListen context.CancelFunc
	wg         sync.WaitGroup
	dbConnStr  string
	channel    string
	batchLimit int
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	dbConnStr string,
	channel string,
	batchLimit int,
) *OutboxWorker {
	if batchLimit <= 0 {
		batchLimit = defaultBatchLimit
	}

	return &OutboxWorker{
		repo:       repo,
		logger:     logger,
		producer:   producer,
		stop:       make(chan struct{}),
		dbConnStr:  dbConnStr,
		channel:    channel,
		batchLimit: batchLimit,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	// WaitForNotification не видит w.stop, поэтому слушатель останавливается отменой контекста
	listenCtx, cancel := context.WithCancel(ctx)
	w.stopListen = cancel

	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	// Запускаем слушатель уведомлений
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(listenCtx)
	}()
}

// Stop останавливает воркер и ждёт завершения горутин, но не дольше ctx.
func (w *OutboxWorker) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() {
		close(w.stop)
		if w.stopListen != nil {
			w.stopListen()
		}
	})

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return e.Wrap("outbox worker stop", ctx.Err())
	}
}

func (w *OutboxWorker) run(ctx context.Context) {
	// Обрабатываем "остатки" при старте
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Outbox worker stopped by context cancellation")
			return
		case <-w.stop:
			w.logger.Infof("Outbox worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	var conn *pgx.Conn

	connect := func() error {
		c, err := pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		if _, err := c.Exec(ctx, "LISTEN "+w.channel); err != nil {
			_ = c.Close(ctx)
			return e.Wrap("failed to LISTEN", err)
		}

		conn = c
		w.logger.Infof("Subscribed to '%s' channel", w.channel)
		return nil
	}

	backoff := jitter.NewBackoff(reconnectBase, reconnectMax)
	for conn == nil {
		if err := connect(); err != nil {
			w.logger.Warnf("Connect failed: %v", err)
			if !w.sleep(ctx, backoff.Next()) {
				return
			}
		}
	}
	defer func() {
		if conn != nil {
			_ = conn.Close(context.Background())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		waitCtx, cancel := context.WithTimeout(ctx, notificationTimeout)
		notif, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}

			w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
			_ = conn.Close(ctx)
			conn = nil

			backoff.Reset()
			for conn == nil {
				if !w.sleep(ctx, backoff.Next()) {
					return
				}
				if err := connect(); err != nil {
					w.logger.Warnf("Reconnect failed (attempt %d): %v", backoff.Attempt(), err)
				}
			}
			continue
		}

		if notif != nil && notif.Channel == w.channel {
			w.logger.Debugf("Received outbox notification, draining outbox events")
			w.drain(ctx)
		}
	}
}

// sleep ждёт d; возвращает false, если воркер остановлен раньше.
func (w *OutboxWorker) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-w.stop:
		return false
	}
}

// drain обрабатывает пачки, пока выборка возвращает полную пачку.
// Неотправленные события уходят либо в failed, либо в очередь с отложенным next_attempt_at,
// поэтому повторно в этом же проходе не выбираются.
func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		fetched, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Batch processing failed: %v", err)
			return
		}
		if fetched < w.batchLimit {
			return
		}
	}
}

// processBatch возвращает количество выбранных событий.
func (w *OutboxWorker) processBatch(ctx context.Context) (int, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, w.batchLimit)
	if err != nil {
		return 0, err
	}

	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			w.handleFailure(ctx, event, err)
			continue
		}

		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	return len(events), nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	req := usecase.NewWriteRawMessageReq(event.CategoryID.String(), event.EventType, event.Payload)
	if err := w.producer.WriteRawMessage(ctx, req); err != nil {
		if isRetryableError(err) {
			return e.Wrap("Temporary Kafka failure, will retry", err)
		}
		return e.Wrap("Permanent Kafka failure", err)
	}
	return nil
}

// handleFailure переводит событие в failed при постоянной ошибке или исчерпании попыток,
// иначе откладывает следующую попытку по экспоненте.
func (w *OutboxWorker) handleFailure(ctx context.Context, event *usecase.OutboxEvent, sendErr error) {
	attempt := event.Attempts + 1

	if !isRetryableError(sendErr) || attempt >= maxAttempts {
		w.logger.Errorf(sendErr, "event %s moved to failed after %d attempt(s)", event.EventID, attempt)
		if err := w.repo.MarkAsFailed(ctx, event.ID, sendErr.Error()); err != nil {
			w.logger.Warnf("mark as failed error: %v", err)
		}
		return
	}

	delay := jitter.ExponentialBackoff(retryBase, retryMax, event.Attempts, jitter.DefaultJitter)
	w.logger.Warnf("event %s not sent (attempt %d), retry in %s: %v", event.EventID, attempt, delay, sendErr)
	if err := w.repo.ReleaseToPending(ctx, event.ID, delay); err != nil {
		w.logger.Warnf("release to pending failed: %v", err)
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var writeErrs kafka.WriteErrors
	if errors.As(err, &writeErrs) {
		for _, werr := range writeErrs {
			if werr != nil && !isRetryableError(werr) {
				return false
			}
		}
		return writeErrs.Count() > 0
	}

	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
