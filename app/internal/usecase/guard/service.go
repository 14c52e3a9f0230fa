// Package guard refuses deletions that would orphan order history.
//
// Products stay while an open order references them, categories while they
// hold products and users while they have any order. Inspection and deletion
// happen in one store transaction so a concurrent order cannot slip between
// the check and the cascade.
package guard

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	domcategory "example.com/storefront/app/internal/domain/category"
	"example.com/storefront/app/internal/domain/deletion"
	domproduct "example.com/storefront/app/internal/domain/product"
	domuser "example.com/storefront/app/internal/domain/user"
)

type Recorder interface {
	DeletionBlocked(kind string)
}

type Service struct {
	repo     deletion.Repository
	recorder Recorder
	lg       *zap.Logger
}

func NewService(repo deletion.Repository, recorder Recorder, lg *zap.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, lg: lg}
}

// CanDelete reports whether id could be deleted right now.
func (s *Service) CanDelete(ctx context.Context, kind deletion.Kind, id int64) (*deletion.Report, error) {
	if !kind.IsValid() {
		return nil, deletion.ErrInvalidKind
	}
	report, err := s.repo.Inspect(ctx, kind, []int64{id})
	if err != nil {
		return nil, errors.Wrapf(err, "inspect %s", kind)
	}
	if len(report.Missing) > 0 {
		return nil, notFound(kind)
	}
	return report, nil
}

// Delete removes one row and everything it owns, or nothing.
func (s *Service) Delete(ctx context.Context, kind deletion.Kind, id int64) error {
	if !kind.IsValid() {
		return deletion.ErrInvalidKind
	}
	report, err := s.repo.Delete(ctx, kind, []int64{id})
	if err != nil {
		return errors.Wrapf(err, "delete %s", kind)
	}
	if len(report.Missing) > 0 {
		return notFound(kind)
	}
	return s.refused(report)
}

// DeleteProducts deletes a batch of products. If any product is missing or
// blocked, none are deleted and the returned *deletion.BlockedError lists
// every offender.
func (s *Service) DeleteProducts(ctx context.Context, ids []int64) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return deletion.ErrEmptyBatch
	}
	report, err := s.repo.Delete(ctx, deletion.KindProduct, ids)
	if err != nil {
		return errors.Wrap(err, "delete products")
	}
	if err := s.refused(report); err != nil {
		return err
	}
	s.lg.Info("Products deleted", zap.Int64s("ids", ids))
	return nil
}

func (s *Service) refused(report *deletion.Report) error {
	if report.Allowed() {
		return nil
	}
	if len(report.Blocked) > 0 && s.recorder != nil {
		s.recorder.DeletionBlocked(string(report.Kind))
	}
	err := &deletion.BlockedError{Report: report}
	s.lg.Info("Deletion refused", zap.String("kind", string(report.Kind)), zap.Error(err))
	return err
}

func notFound(kind deletion.Kind) error {
	switch kind {
	case deletion.KindProduct:
		return domproduct.ErrProductNotFound
	case deletion.KindCategory:
		return domcategory.ErrCategoryNotFound
	default:
		return domuser.ErrUserNotFound
	}
}

func dedupe(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
