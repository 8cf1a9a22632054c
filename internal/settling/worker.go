package settling

import (
	"context"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

type SettleGameArgs struct {
	GameID uuid.UUID `json:"game_id"`
}

func (SettleGameArgs) Kind() string { return "settle_game" }

// SettleGameWorker runs settlement generation off the request path. A nil
// return from the service means the job is done, even when the game failed
// to reconcile; real errors are returned so river retries them.
type SettleGameWorker struct {
	river.WorkerDefaults[SettleGameArgs]
	svc Service
}

func NewSettleGameWorker(svc Service) *SettleGameWorker {
	return &SettleGameWorker{svc: svc}
}

func (w *SettleGameWorker) Work(ctx context.Context, job *river.Job[SettleGameArgs]) error {
	return w.svc.SettleGame(ctx, job.Args.GameID)
}
