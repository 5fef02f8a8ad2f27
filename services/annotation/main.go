package annotation

import (
	"context"
	"io"
	"log/slog"
	"time"

	"bgdb/annotator/models"
)

type (
	// SourceAdapter queries one external genomic API for one variant
	// and returns a normalized annotation result.
	SourceAdapter interface {
		Name() string

		// Fields lists every store field this adapter writes (and
		// clears under --clear-not-found).
		Fields() []string

		// SelectionFields lists the fields whose absence makes a
		// record a candidate. Usually equal to Fields; the gnomAD
		// annotator keys candidacy off gnomad_all alone.
		SelectionFields() []string

		Fetch(ctx context.Context, v *models.Variant) (models.AnnotationResult, error)
	}

	// PatchWriter issues a partial update against the remote store.
	PatchWriter interface {
		Patch(ctx context.Context, variantId string, fields map[string]interface{}) error
	}

	// Pipeline drives one full annotation run: select candidates,
	// fetch, merge, patch. Strictly sequential; every per-record
	// failure is counted, logged and survived.
	Pipeline struct {
		adapter SourceAdapter
		writer  PatchWriter
		policy  models.Policy
		logger  *slog.Logger
	}
)

func NewPipeline(adapter SourceAdapter, writer PatchWriter, policy models.Policy, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		adapter: adapter,
		writer:  writer,
		policy:  policy,
		logger:  logger,
	}
}

// Run processes every eligible record once, in selector order, and
// returns the run summary. Each record's patch is independent and
// idempotent, so an interrupted run can simply be repeated.
func (p *Pipeline) Run(ctx context.Context, records []models.Variant) models.RunSummary {
	summary := models.NewRunSummary(p.adapter.Name())

	selected := Select(records, p.adapter.SelectionFields(), p.policy)
	summary.Selected = len(selected)

	p.logger.Info("starting annotation run",
		"run_id", summary.RunId,
		"adapter", summary.Adapter,
		"candidates", len(selected),
		"test_mode", p.policy.TestMode,
		"overwrite", p.policy.Overwrite)

	for index := range selected {
		variant := &selected[index]
		p.logger.Info("processing variant",
			"n", index+1, "of", len(selected), "id", variant.Id)

		result, err := p.adapter.Fetch(ctx, variant)
		if err != nil {
			summary.Errored++
			p.logger.Error("annotation lookup failed",
				"adapter", p.adapter.Name(), "id", variant.Id, "error", err)
			continue
		}

		switch result.Status {
		case models.StatusSkipped:
			summary.Skipped++
			p.logger.Info("skipping variant", "id", variant.Id, "reason", result.Reason)

		case models.StatusNotFound:
			summary.NotFound++
			p.logger.Info("no upstream match", "adapter", p.adapter.Name(), "id", variant.Id)

			if p.policy.ClearNotFound && p.policy.Overwrite && hasAny(variant, p.adapter.Fields()) {
				if p.apply(ctx, clearPatch(variant.Id, p.adapter.Fields()), &summary) {
					summary.Cleared++
					p.logger.Info("cleared stale annotation", "id", variant.Id)
				}
			}

		case models.StatusFound:
			patch := models.PatchRequest{VariantId: variant.Id, Fields: result.Fields}
			if p.apply(ctx, patch, &summary) {
				summary.Updated++
			}
		}
	}

	summary.FinishedAt = time.Now()
	p.logger.Info("annotation run complete",
		"run_id", summary.RunId,
		"adapter", summary.Adapter,
		"selected", summary.Selected,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"not_found", summary.NotFound,
		"cleared", summary.Cleared,
		"errored", summary.Errored,
		"write_failed", summary.WriteFailed)

	return summary
}

// apply hands the patch to the writer, or only logs it in test mode.
// Returns whether the patch counts as applied.
func (p *Pipeline) apply(ctx context.Context, patch models.PatchRequest, summary *models.RunSummary) bool {
	if p.policy.TestMode {
		p.logger.Info("test mode: would patch", "id", patch.VariantId, "fields", patch.Fields)
		return true
	}

	if err := p.writer.Patch(ctx, patch.VariantId, patch.Fields); err != nil {
		summary.WriteFailed++
		p.logger.Error("patch rejected by store", "id", patch.VariantId, "error", err)
		return false
	}
	return true
}

func clearPatch(variantId string, fields []string) models.PatchRequest {
	cleared := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		cleared[field] = nil
	}
	return models.PatchRequest{VariantId: variantId, Fields: cleared}
}
