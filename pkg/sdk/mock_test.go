package billocr

import (
	"context"

	documentuc "github.com/kailas-cloud/billocr/internal/usecase/document"
	healthuc "github.com/kailas-cloud/billocr/internal/usecase/health"
)

// --- documentUseCase mock ---

type mockDocumentUC struct {
	processFn func(ctx context.Context, in documentuc.Upload) (documentuc.Result, error)
	got       documentuc.Upload
}

func (m *mockDocumentUC) Process(ctx context.Context, in documentuc.Upload) (documentuc.Result, error) {
	m.got = in
	return m.processFn(ctx, in)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
