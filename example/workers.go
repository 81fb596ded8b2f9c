package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/tasks"
)

var errMissingRecipient = errors.New("email: recipient is required")

type emailMessage struct {
	To       string `json:"to"`
	Template string `json:"template"`
}

func sendEmail(log *slog.Logger) tasks.ProcessorFunc {
	return func(ctx context.Context, j *tasks.RawJob) (any, error) {
		var msg emailMessage
		if err := j.Decode(&msg); err != nil {
			return nil, err
		}
		if msg.To == "" {
			return nil, errMissingRecipient
		}
		log.InfoContext(ctx, "email sent", slog.String("to", msg.To), slog.String("template", msg.Template))
		return map[string]string{"delivered_to": msg.To}, nil
	}
}

type resizeRequest struct {
	Image string `json:"image"`
	Width int    `json:"width"`
}

func resize(ctx context.Context, j *tasks.RawJob) (any, error) {
	var req resizeRequest
	if err := j.Decode(&req); err != nil {
		return nil, err
	}
	return map[string]string{"url": fmt.Sprintf("%s@%dw", req.Image, req.Width)}, nil
}

// thumbnailWorker fans one image out into a resize job per width and
// completes once every child finished.
type thumbnailWorker struct {
	svc *tasks.Service
	job *tasks.RawJob
}

func thumbnails(svc *tasks.Service) tasks.WorkerFactory {
	return func(j *tasks.RawJob) tasks.Runner {
		return &thumbnailWorker{svc: svc, job: j}
	}
}

func (w *thumbnailWorker) Run(ctx context.Context) (any, error) {
	var req struct {
		Image  string `json:"image"`
		Widths []int  `json:"widths"`
	}
	if err := w.job.Decode(&req); err != nil {
		return nil, err
	}

	subs, ok := tasks.SubTasksFrom(ctx)
	if !ok {
		return nil, errors.New("thumbnails: no sub-task tracker")
	}
	target, err := w.svc.Queue("resize")
	if err != nil {
		return nil, err
	}

	// A retried attempt waits for the children still pending from the previous one.
	if w.job.Attempt > 1 {
		if _, err := subs.Restore(ctx, target); err != nil {
			return nil, err
		}
	} else {
		for _, width := range req.Widths {
			p := tasks.CreateParams{JobID: fmt.Sprintf("%s-%d", w.job.ID, width)}
			if _, err := subs.Create(ctx, target, resizeRequest{Image: req.Image, Width: width}, p); err != nil {
				return nil, err
			}
		}
	}

	results, err := subs.Wait(ctx)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(results))
	for i, r := range results {
		if r.Err != nil {
			return nil, fmt.Errorf("resize %s: %w", r.ID, r.Err)
		}
		_ = tasks.ReportProgress(ctx, (i+1)*100/len(results))
		var out struct {
			URL string `json:"url"`
		}
		if err := decodeResult(r.Job, &out); err != nil {
			return nil, err
		}
		urls = append(urls, out.URL)
	}
	return map[string][]string{"thumbnails": urls}, nil
}

func decodeResult(j *tasks.RawJob, v any) error {
	if j == nil || len(j.Result) == 0 {
		return nil
	}
	return json.Unmarshal(j.Result, v)
}
