package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap/zapcore"

	"upsolve/logger"
	"upsolve/model"
	"upsolve/natsclient"
)

type ResolveRequest struct {
	UserID string `json:"userId"`
}

type ExtractRequest struct {
	QuestionID string `json:"questionId"`
	Refresh    bool   `json:"refresh"`
}

// Worker answers resolve and extract requests arriving over NATS.
type Worker struct {
	svc     *UpsolveService
	nc      *natsclient.NatsClient
	logger  *logger.Logger
	timeout time.Duration
	subs    []*nats.Subscription
}

func NewWorker(svc *UpsolveService, nc *natsclient.NatsClient, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Nop()
	}
	return &Worker{svc: svc, nc: nc, logger: log, timeout: 15 * time.Minute}
}

// Start subscribes to the request subjects in the worker queue group.
func (w *Worker) Start() error {
	handlers := map[string]func(context.Context, []byte) model.GenericResponse{
		natsclient.SubjectResolveRequest: w.handleResolve,
		natsclient.SubjectExtractRequest: w.handleExtract,
	}
	for subject, h := range handlers {
		sub, err := w.nc.QueueSubscribe(subject, natsclient.QueueGroup, func(msg *nats.Msg) {
			w.reply(msg, h)
		})
		if err != nil {
			w.Stop()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		w.subs = append(w.subs, sub)
	}
	return nil
}

// Stop drops the subscriptions.
func (w *Worker) Stop() {
	for _, sub := range w.subs {
		_ = sub.Unsubscribe()
	}
	w.subs = nil
}

func (w *Worker) reply(msg *nats.Msg, h func(context.Context, []byte) model.GenericResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	resp := h(ctx, msg.Data)
	data, err := json.Marshal(resp)
	if err != nil {
		w.logger.Log(zapcore.ErrorLevel, uuid.New().String(), "Failed to marshal reply", map[string]any{
			"subject":   msg.Subject,
			"errorType": "MARSHAL_ERROR",
		}, "NATS", err)
		return
	}
	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(data); err != nil {
		w.logger.Log(zapcore.ErrorLevel, uuid.New().String(), "Failed to send reply", map[string]any{
			"subject":   msg.Subject,
			"errorType": "NATS_ERROR",
		}, "NATS", err)
	}
}

func (w *Worker) handleResolve(ctx context.Context, data []byte) model.GenericResponse {
	var req ResolveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	res, err := w.svc.ResolveForUser(ctx, req.UserID)
	if err != nil {
		return failure(err)
	}
	return success(res)
}

func (w *Worker) handleExtract(ctx context.Context, data []byte) model.GenericResponse {
	var req ExtractRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	st, err := w.svc.GetStatement(ctx, req.QuestionID, req.Refresh)
	if err != nil {
		return failure(err)
	}
	return success(st)
}

func success(payload interface{}) model.GenericResponse {
	return model.GenericResponse{Success: true, Status: http.StatusOK, Payload: payload}
}

func failure(err error) model.GenericResponse {
	info := ErrorInfo(err)
	return model.GenericResponse{Success: false, Status: info.Code, Error: info}
}
