package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/jobs"
	"github.com/segyhp/deposit-engine/pkg/response"
)

// AccrualRunReader exposes the accrual run history.
type AccrualRunReader interface {
	LatestRun(ctx context.Context) (*domain.AccrualRun, error)
}

// JobHandler triggers scheduled jobs on demand. Runs go through the same
// lock as the scheduler, so a manual trigger never overlaps a cron run.
type JobHandler struct {
	runner *jobs.Runner
	runs   AccrualRunReader
	jobs   map[string]jobs.Job
}

func NewJobHandler(runner *jobs.Runner, runs AccrualRunReader, registered ...jobs.Job) *JobHandler {
	byName := make(map[string]jobs.Job, len(registered))
	for _, job := range registered {
		byName[job.Name()] = job
	}
	return &JobHandler{
		runner: runner,
		runs:   runs,
		jobs:   byName,
	}
}

func (h *JobHandler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/jobs/{job}", h.Trigger).Methods(http.MethodPost)
	api.HandleFunc("/jobs/daily-accrual/runs/latest", h.LatestAccrualRun).Methods(http.MethodGet)
}

func (h *JobHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["job"]
	job, ok := h.jobs[name]
	if !ok {
		response.NotFound(w, "unknown job "+name)
		return
	}

	summary, err := h.runner.Run(r.Context(), job)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, summary)
}

func (h *JobHandler) LatestAccrualRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.LatestRun(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, run)
}
