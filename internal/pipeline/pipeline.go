// Package pipeline turns one uploaded document into one persisted
// referral record: validate -> convert -> store -> extract -> assemble ->
// persist. Persistence happens exactly once, after every prior stage
// succeeded; an abort anywhere leaves no trace in the record store.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"referral-intake-service/constants"
	"referral-intake-service/internal/content"
	"referral-intake-service/internal/entity"
	"referral-intake-service/internal/format"
	"referral-intake-service/internal/llm"
	"referral-intake-service/internal/repository"
)

// UnknownField is the sentinel persisted when the extraction result
// omits or empties a required clinical field.
const UnknownField = "Unknown"

// Upload is one user-submitted document.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StorageResolver is satisfied by storage.Resolver. It never fails:
// a remote-storage problem degrades to an embedded data URL.
type StorageResolver interface {
	Resolve(ctx context.Context, filename, mimeType string, data []byte) (string, entity.StorageKind)
}

type Ingestion struct {
	logger    *slog.Logger
	content   *content.Extractor
	storage   StorageResolver
	extractor llm.DocumentExtractor
	repo      repository.ReferralRepository
	newID     func() string
}

func NewIngestion(
	logger *slog.Logger,
	extractor *content.Extractor,
	resolver StorageResolver,
	docs llm.DocumentExtractor,
	repo repository.ReferralRepository,
) *Ingestion {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestion{
		logger:    logger,
		content:   extractor,
		storage:   resolver,
		extractor: docs,
		repo:      repo,
		newID:     NewReferralID,
	}
}

type storageOutcome struct {
	path string
	kind entity.StorageKind
}

// Run executes the whole ingestion for one upload and returns the
// persisted record. The declared media type is validated before any
// conversion or network work; storage resolution runs concurrently with
// the extraction call since neither depends on the other's result.
func (p *Ingestion) Run(ctx context.Context, up Upload) (*entity.Referral, error) {
	rid := uuid.New().String()
	start := time.Now()
	mimeType := constants.NormalizeMIMEType(up.ContentType)

	p.logger.Info("ingest.start",
		"req_id", rid,
		"filename", up.Filename,
		"mime_type", mimeType,
		"bytes", len(up.Data),
	)

	category, err := format.Classify(mimeType)
	if err != nil {
		p.logger.Warn("ingest.rejected", "req_id", rid, "mime_type", mimeType, "error", err)
		return nil, err
	}

	payload, err := p.content.Extract(category, mimeType, up.Data)
	if err != nil {
		p.logger.Error("ingest.convert_failed", "req_id", rid, "category", category, "error", err)
		return nil, err
	}

	// Storage works on the original bytes regardless of the format
	// branch and can never abort the pipeline.
	storageCh := make(chan storageOutcome, 1)
	go func() {
		path, kind := p.storage.Resolve(ctx, up.Filename, mimeType, up.Data)
		storageCh <- storageOutcome{path: path, kind: kind}
	}()

	req := llm.ExtractRequest{}
	if payload.Text != "" {
		req.Text = payload.Text
	} else {
		req.Binary = &llm.BinaryPayload{MimeType: payload.MimeType, Base64Data: payload.Base64Data}
	}

	fields, _, err := p.extractor.ExtractReferral(ctx, req)
	if err != nil {
		<-storageCh
		p.logger.Error("ingest.extract_failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	stored := <-storageCh
	status := ResolveStatus(fields.IsReferral)

	rec := &entity.Referral{
		ID:           p.newID(),
		PatientName:  orUnknown(fields.PatientName),
		ReferredBy:   orUnknown(fields.ReferredBy),
		ReferredTo:   orUnknown(fields.ReferredTo),
		Diagnosis:    orUnknown(fields.Diagnosis),
		DOB:          fields.DOB,
		ReferralDate: fields.ReferralDate,
		Notes:        fields.Summary,
		FilePath:     stored.path,
		MimeType:     mimeType,
		Status:       status,
		StorageKind:  stored.kind,
	}

	if err := p.repo.Create(ctx, rec); err != nil {
		p.logger.Error("ingest.persist_failed", "req_id", rid, "id", rec.ID, "error", err)
		return nil, fmt.Errorf("persist referral: %w", err)
	}

	p.logger.Info("ingest.ok",
		"req_id", rid,
		"id", rec.ID,
		"status", rec.Status,
		"storage_kind", rec.StorageKind,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// orUnknown applies the sentinel default to a required field the service
// returned empty. This is deliberately the assembler's job so "what the
// service said" stays distinct from "what we persist".
func orUnknown(s string) string {
	if s == "" {
		return UnknownField
	}
	return s
}
