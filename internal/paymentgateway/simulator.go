package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	internalerrors "github.com/mir-ashiq/Travelers-sub001/internal"
)

// intentJob is one queued sandbox payment waiting to resolve.
type intentJob struct {
	GatewayRef string
	BookingID  int64
	Amount     int64
	Currency   string
}

type simulatorWorker struct {
	id         int
	workerPool chan chan intentJob
	jobChannel chan intentJob
	logger     *slog.Logger
}

func newSimulatorWorker(id int, workerPool chan chan intentJob, logger *slog.Logger) *simulatorWorker {
	return &simulatorWorker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan intentJob),
		logger:     logger,
	}
}

func (w *simulatorWorker) start(ctx context.Context, wg *sync.WaitGroup, processFunc func(intentJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.workerPool <- w.jobChannel

			select {
			case job := <-w.jobChannel:
				w.logger.Debug("simulator worker processing intent", "worker_id", w.id, "gateway_ref", job.GatewayRef)
				processFunc(job)
			case <-ctx.Done():
				w.logger.Debug("simulator worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

// Simulator is the sandbox gateway used by local development and the worker
// command. Intents resolve asynchronously on a worker pool and post signed
// webhook callbacks back to the processor, exercising the same signature
// verification path as production traffic.
type Simulator struct {
	webhookURL    string
	webhookSecret []byte
	logger        *slog.Logger

	jobQueue   chan intentJob
	workerPool chan chan intentJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewSimulator(cfg Config, logger *slog.Logger) *Simulator {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	jobQueueSize := cfg.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	s := &Simulator{
		webhookURL:    cfg.WebhookURL,
		webhookSecret: []byte(cfg.WebhookSecret),
		logger:        logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan intentJob, jobQueueSize),
		workerPool: make(chan chan intentJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	s.startWorkerPool()
	return s
}

func (s *Simulator) startWorkerPool() {
	s.once.Do(func() {
		for i := 0; i < s.maxWorkers; i++ {
			worker := newSimulatorWorker(i, s.workerPool, s.logger)
			worker.start(s.ctx, &s.wg, s.resolveIntent)
		}

		go s.dispatch()

		s.logger.Info("gateway simulator worker pool started",
			"max_workers", s.maxWorkers,
			"queue_size", cap(s.jobQueue))
	})
}

func (s *Simulator) dispatch() {
	s.wg.Add(1)
	defer s.wg.Done()

	for {
		select {
		case job := <-s.jobQueue:
			select {
			case jobChannel := <-s.workerPool:
				select {
				case jobChannel <- job:
				case <-s.ctx.Done():
					return
				}
			case <-s.ctx.Done():
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Simulator) Shutdown() {
	s.logger.Info("shutting down gateway simulator")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("gateway simulator shutdown complete")
}

// CreatePaymentIntent issues a sandbox intent immediately and queues its
// asynchronous resolution.
func (s *Simulator) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	intent := &Intent{
		ID:           "pi_sim_" + uuid.NewString(),
		ClientSecret: "secret_" + uuid.NewString(),
		Status:       "requires_payment",
	}

	job := intentJob{
		GatewayRef: intent.ID,
		BookingID:  req.BookingID,
		Amount:     req.Amount,
		Currency:   req.Currency,
	}

	select {
	case s.jobQueue <- job:
		s.logger.Info("simulator: intent queued",
			"gateway_ref", intent.ID,
			"booking_id", req.BookingID,
			"queue_length", len(s.jobQueue))
	default:
		s.logger.Warn("simulator: job queue full, rejecting intent",
			"booking_id", req.BookingID,
			"queue_capacity", cap(s.jobQueue))
		return nil, internalerrors.NewUpstreamError("gateway queue full, try again later", nil)
	}

	return intent, nil
}

// CreateRefund acknowledges immediately and posts the charge.refunded
// callback asynchronously, like the sandbox gateway does.
func (s *Simulator) CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error) {
	refund := &Refund{
		ID:             "re_sim_" + uuid.NewString(),
		GatewayRef:     req.GatewayRef,
		AmountRefunded: req.Amount,
		Status:         "succeeded",
	}

	go s.postCallback(map[string]interface{}{
		"type": "charge.refunded",
		"data": map[string]interface{}{
			"gateway_ref":     req.GatewayRef,
			"amount_refunded": req.Amount,
		},
	})

	return refund, nil
}

func (s *Simulator) resolveIntent(job intentJob) {
	delay := time.Duration(1+rand.Intn(4)) * time.Second

	select {
	case <-time.After(delay):
	case <-s.ctx.Done():
		s.logger.Info("simulator: intent resolution cancelled", "gateway_ref", job.GatewayRef)
		return
	}

	if rand.Float32() < 0.9 {
		s.logger.Info("simulator: intent succeeded",
			"gateway_ref", job.GatewayRef,
			"delay_seconds", delay.Seconds())
		s.postCallback(map[string]interface{}{
			"type": "payment_intent.succeeded",
			"data": map[string]interface{}{
				"gateway_ref": job.GatewayRef,
				"amount":      job.Amount,
				"currency":    job.Currency,
			},
		})
		return
	}

	s.logger.Info("simulator: intent failed",
		"gateway_ref", job.GatewayRef,
		"delay_seconds", delay.Seconds())
	s.postCallback(map[string]interface{}{
		"type": "payment_intent.payment_failed",
		"data": map[string]interface{}{
			"gateway_ref":    job.GatewayRef,
			"failure_reason": "card_declined",
		},
	})
}

// postCallback signs the payload and POSTs it to the webhook endpoint.
func (s *Simulator) postCallback(payload map[string]interface{}) {
	select {
	case <-s.ctx.Done():
		return
	default:
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("simulator: failed to marshal callback", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		s.logger.Error("simulator: failed to build callback request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(s.webhookSecret, body))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		s.logger.Error("simulator: callback delivery failed", "error", err, "webhook_url", s.webhookURL)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("simulator: callback rejected",
			"status_code", resp.StatusCode,
			"type", fmt.Sprint(payload["type"]))
	}
}
