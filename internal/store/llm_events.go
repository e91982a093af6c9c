package store

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// LLMEvent records one call to a language model provider.
type LLMEvent struct {
	ID           int64
	CreatedAt    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecorder is implemented by anything that can persist LLM call
// records.
type LLMEventRecorder interface {
	AppendLLMEvent(ctx context.Context, ev *LLMEvent) error
}

// QueryOpts filters LLM event listings.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact match when set
	Since   time.Time // created_at >= Since when set
}

// LLMUsage aggregates calls per purpose and model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int64
	Failures     int64
	InputTokens  int64
	OutputTokens int64
	LatencyMs    int64
}

// LLMEventRepo stores and reports on LLM calls.
type LLMEventRepo struct {
	s *Store
}

var _ LLMEventRecorder = (*LLMEventRepo)(nil)

func (r *LLMEventRepo) AppendLLMEvent(ctx context.Context, ev *LLMEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	id, err := r.s.insert(ctx, "append llm event", r.s.builder().
		Insert(llmEventsTable.Name).
		Columns("created_at", "provider", "model", "purpose", "input_tokens", "output_tokens",
			"latency_ms", "success", "error_message", "request_body", "response_body").
		Values(ev.CreatedAt, ev.Provider, ev.Model, ev.Purpose, ev.InputTokens, ev.OutputTokens,
			ev.LatencyMs, ev.Success, nullString(ev.ErrorMessage), nullString(ev.RequestBody),
			nullString(ev.ResponseBody)))
	if err != nil {
		return err
	}
	ev.ID = id
	return nil
}

var llmEventColumns = []string{
	"id", "created_at", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

// ListLLMEvents returns events newest first.
func (r *LLMEventRepo) ListLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	sel := r.s.builder().
		Select(llmEventColumns...).
		From(entsql.Table(llmEventsTable.Name)).
		OrderBy(entsql.Desc("id"))
	var preds []*entsql.Predicate
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}
	if !opts.Since.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.Since))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	return r.scanEvents(ctx, "list llm events", sel)
}

// GetLLMEvent returns nil, nil when id does not exist.
func (r *LLMEventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error) {
	sel := r.s.builder().
		Select(llmEventColumns...).
		From(entsql.Table(llmEventsTable.Name)).
		Where(entsql.EQ("id", id))
	found, err := r.scanEvents(ctx, "get llm event", sel)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

func (r *LLMEventRepo) scanEvents(ctx context.Context, op string, sel *entsql.Selector) ([]LLMEvent, error) {
	var out []LLMEvent
	err := r.s.query(ctx, op, sel, func(rows *entsql.Rows) error {
		var (
			ev                    LLMEvent
			errMsg, reqBody, resp sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.CreatedAt, &ev.Provider, &ev.Model, &ev.Purpose,
			&ev.InputTokens, &ev.OutputTokens, &ev.LatencyMs, &ev.Success,
			&errMsg, &reqBody, &resp); err != nil {
			return err
		}
		ev.ErrorMessage = errMsg.String
		ev.RequestBody = reqBody.String
		ev.ResponseBody = resp.String
		out = append(out, ev)
		return nil
	})
	return out, err
}

// LLMUsageByPurpose aggregates token usage and latency per purpose and
// model, ordered by purpose then model.
func (r *LLMEventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	sel := r.s.builder().
		Select(
			"purpose",
			"model",
			entsql.As(entsql.Count("*"), "calls"),
			entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
			entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
			entsql.As(entsql.Sum("latency_ms"), "latency_ms"),
		).
		From(entsql.Table(llmEventsTable.Name)).
		GroupBy("purpose", "model").
		OrderBy(entsql.Asc("purpose"), entsql.Asc("model"))
	var out []LLMUsage
	err := r.s.query(ctx, "llm usage", sel, func(rows *entsql.Rows) error {
		var u LLMUsage
		var in, outTok, lat sql.NullInt64
		if err := rows.Scan(&u.Purpose, &u.Model, &u.Calls, &in, &outTok, &lat); err != nil {
			return err
		}
		u.InputTokens, u.OutputTokens, u.LatencyMs = in.Int64, outTok.Int64, lat.Int64
		out = append(out, u)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Failures are counted separately so the grouped query stays portable.
	failSel := r.s.builder().
		Select("purpose", "model", entsql.As(entsql.Count("*"), "failures")).
		From(entsql.Table(llmEventsTable.Name)).
		Where(entsql.EQ("success", false)).
		GroupBy("purpose", "model")
	failures := make(map[[2]string]int64)
	err = r.s.query(ctx, "llm usage failures", failSel, func(rows *entsql.Rows) error {
		var purpose, model string
		var n int64
		if err := rows.Scan(&purpose, &model, &n); err != nil {
			return err
		}
		failures[[2]string{purpose, model}] = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Failures = failures[[2]string{out[i].Purpose, out[i].Model}]
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
