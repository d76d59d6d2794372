package category

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jlzm/MoneyNotes/internal/core/ledger"
	"github.com/jlzm/MoneyNotes/internal/infra/kv"
	apperrors "github.com/jlzm/MoneyNotes/internal/shared/errors"
	"github.com/jlzm/MoneyNotes/pkg/logger"
)

// customBlobVersion tags the persisted custom-categories blob.
const customBlobVersion = 1

type customBlob struct {
	Version int        `json:"version"`
	Items   []Category `json:"items"`
}

// Spec describes a custom category to be created.
type Spec struct {
	Name      string           `json:"name"`
	Icon      string           `json:"icon"`
	Type      ledger.Direction `json:"type"`
	SortOrder int              `json:"sortOrder"`
}

// Validate checks the spec shape.
func (s Spec) Validate() error {
	if s.Name == "" {
		return apperrors.Validation("name is required")
	}
	if !s.Type.Valid() {
		return apperrors.Validation("type must be income or expense")
	}
	return nil
}

// Update describes a partial edit of a custom category. Nil fields
// are left unchanged.
type Update struct {
	Name      *string `json:"name,omitempty"`
	Icon      *string `json:"icon,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty"`
}

// Registry merges the system catalog with the user's custom
// categories. Mutations persist the custom set before committing it
// in memory, so storage and memory always agree.
type Registry struct {
	store  kv.Store
	logger *logger.Logger

	mu     sync.Mutex
	custom []Category
}

// NewRegistry creates a registry persisting through kv.
func NewRegistry(store kv.Store, log *logger.Logger) *Registry {
	return &Registry{
		store:  store,
		logger: log.WithField("component", "category"),
	}
}

// Load restores the custom set from the persisted blob.
func (r *Registry) Load(ctx context.Context) error {
	raw, found, err := r.store.Read(ctx, kv.KeyCustomCategories)
	if err != nil {
		return apperrors.Persistence("could not load custom categories", err)
	}
	if !found {
		return nil
	}

	var blob customBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return apperrors.Persistence("custom categories blob is corrupt", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom = blob.Items
	return nil
}

// Resolve looks a category up by ID in the system catalog and the
// custom set.
func (r *Registry) Resolve(id string) (Category, error) {
	for _, c := range systemExpenseCategories {
		if c.ID == id {
			return c, nil
		}
	}
	for _, c := range systemIncomeCategories {
		if c.ID == id {
			return c, nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.custom {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, apperrors.NotFound("category")
}

// List returns all categories of the given direction: the system set
// in declared order followed by the custom set, the whole sequence
// ordered by sort weight ascending with stable ties.
func (r *Registry) List(direction ledger.Direction) []Category {
	var system []Category
	switch direction {
	case ledger.DirectionIncome:
		system = systemIncomeCategories
	default:
		system = systemExpenseCategories
	}

	out := make([]Category, len(system))
	copy(out, system)

	r.mu.Lock()
	for _, c := range r.custom {
		if c.Type == direction {
			out = append(out, c)
		}
	}
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

// Add assigns a fresh custom ID and appends the category. The custom
// set is persisted before the in-memory commit; on persistence
// failure nothing changes.
func (r *Registry) Add(ctx context.Context, spec Spec) (Category, error) {
	c := Category{
		ID:        customIDPrefix + uuid.NewString(),
		Name:      spec.Name,
		Icon:      spec.Icon,
		Type:      spec.Type,
		IsCustom:  true,
		SortOrder: spec.SortOrder,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := append(r.cloneCustomLocked(), c)
	if err := r.persistLocked(ctx, next); err != nil {
		return Category{}, err
	}
	r.custom = next

	r.logger.Debug("custom category added", "id", c.ID, "name", c.Name)
	return c, nil
}

// UpdateCategory applies a partial edit to a custom category. System
// categories are read-only: editing one fails with NotFound, same as
// an ID that does not exist.
func (r *Registry) UpdateCategory(ctx context.Context, id string, upd Update) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOfCustomLocked(id)
	if idx < 0 {
		return Category{}, apperrors.NotFound("custom category")
	}

	next := r.cloneCustomLocked()
	if upd.Name != nil {
		next[idx].Name = *upd.Name
	}
	if upd.Icon != nil {
		next[idx].Icon = *upd.Icon
	}
	if upd.SortOrder != nil {
		next[idx].SortOrder = *upd.SortOrder
	}

	if err := r.persistLocked(ctx, next); err != nil {
		return Category{}, err
	}
	r.custom = next
	return next[idx], nil
}

// Remove deletes a custom category. System categories cannot be
// removed.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOfCustomLocked(id)
	if idx < 0 {
		return apperrors.NotFound("custom category")
	}

	next := r.cloneCustomLocked()
	next = append(next[:idx], next[idx+1:]...)

	if err := r.persistLocked(ctx, next); err != nil {
		return err
	}
	r.custom = next

	r.logger.Debug("custom category removed", "id", id)
	return nil
}

// persistLocked writes the prospective custom set. Caller must hold
// r.mu; the caller commits to memory only after this succeeds.
func (r *Registry) persistLocked(ctx context.Context, next []Category) error {
	blob := customBlob{Version: customBlobVersion, Items: next}
	data, err := json.Marshal(blob)
	if err != nil {
		return apperrors.Persistence("could not serialize custom categories",
			fmt.Errorf("marshal: %w", err))
	}
	if err := r.store.Write(ctx, kv.KeyCustomCategories, string(data)); err != nil {
		return apperrors.Persistence("could not save custom categories", err)
	}
	return nil
}

func (r *Registry) cloneCustomLocked() []Category {
	next := make([]Category, len(r.custom))
	copy(next, r.custom)
	return next
}

func (r *Registry) indexOfCustomLocked(id string) int {
	for i, c := range r.custom {
		if c.ID == id {
			return i
		}
	}
	return -1
}
