package jobs

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// WorkerServer runs the asynq handlers.
type WorkerServer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logrus.Entry
}

func NewWorkerServer(redisOpt asynq.RedisClientOpt, concurrency int, compactor Compactor) *WorkerServer {
	log := logrus.WithField("component", "worker_server")
	if concurrency <= 0 {
		concurrency = 10
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retry, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.WithFields(logrus.Fields{
				"task_type": task.Type(),
				"retries":   retry,
				"max_retry": maxRetry,
			}).Errorf("task failed: %v", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.Handle(TypeWhiteboardSnapshot, NewSnapshotHandler(compactor))

	return &WorkerServer{server: server, mux: mux, log: log}
}

// Start runs the handlers in the background until Shutdown.
func (ws *WorkerServer) Start() error {
	ws.log.Info("worker server starting")
	return ws.server.Start(ws.mux)
}

func (ws *WorkerServer) Shutdown() {
	ws.log.Info("shutting down worker server")
	ws.server.Shutdown()
	ws.log.Info("worker server stopped")
}
