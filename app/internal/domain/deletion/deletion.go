// Package deletion describes the outcome of guarded deletes: which requested
// rows are pinned by other records and which do not exist.
package deletion

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrInvalidKind = errors.New("invalid deletion kind")
	ErrEmptyBatch  = errors.New("no ids to delete")
)

type Kind string

const (
	KindProduct  Kind = "product"
	KindCategory Kind = "category"
	KindUser     Kind = "user"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindProduct, KindCategory, KindUser:
		return true
	default:
		return false
	}
}

// Report is the result of inspecting a batch of ids of one kind. Blocked maps
// each pinned id to the references pinning it: order codes for products and
// users, product ids for categories.
type Report struct {
	Kind    Kind
	Blocked map[int64][]string
	Missing []int64
}

func NewReport(kind Kind) *Report {
	return &Report{Kind: kind, Blocked: map[int64][]string{}}
}

func (r *Report) Block(id int64, ref string) {
	if !slices.Contains(r.Blocked[id], ref) {
		r.Blocked[id] = append(r.Blocked[id], ref)
	}
}

func (r *Report) Allowed() bool {
	return len(r.Blocked) == 0 && len(r.Missing) == 0
}

// BlockedIDs returns the pinned ids in ascending order.
func (r *Report) BlockedIDs() []int64 {
	ids := make([]int64, 0, len(r.Blocked))
	for id := range r.Blocked {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// BlockedError is returned when a guarded delete was refused. Nothing in the
// batch was deleted.
type BlockedError struct {
	Report *Report
}

func (e *BlockedError) Error() string {
	var parts []string
	for _, id := range e.Report.BlockedIDs() {
		parts = append(parts, fmt.Sprintf("%d by [%s]", id, strings.Join(e.Report.Blocked[id], ", ")))
	}
	if len(e.Report.Missing) > 0 {
		missing := make([]string, 0, len(e.Report.Missing))
		for _, id := range e.Report.Missing {
			missing = append(missing, strconv.FormatInt(id, 10))
		}
		parts = append(parts, "missing ["+strings.Join(missing, ", ")+"]")
	}
	return fmt.Sprintf("cannot delete %s: %s", e.Report.Kind, strings.Join(parts, "; "))
}

// Repository inspects and deletes rows of one kind. Delete runs the check and
// the cascade in a single transaction and deletes only when the report allows
// it; the returned report is authoritative either way.
type Repository interface {
	Inspect(ctx context.Context, kind Kind, ids []int64) (*Report, error)
	Delete(ctx context.Context, kind Kind, ids []int64) (*Report, error)
}
