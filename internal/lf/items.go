package lf

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"lostfound/internal/model"
)

// ValidateItem checks the category-dependent required fields of item.
func ValidateItem(item *model.Item) error {
	var missing []string
	if strings.TrimSpace(item.LP) == "" {
		missing = append(missing, "lp")
	}
	if item.Category == "" {
		missing = append(missing, "kategoria")
	}
	if strings.TrimSpace(item.Description) == "" {
		missing = append(missing, "opis")
	}
	if strings.TrimSpace(item.ReceivedBy) == "" {
		missing = append(missing, "osoba_przyjmujaca")
	}
	if item.Category.RequiresOwner() {
		if strings.TrimSpace(model.StringValue(item.DocumentType)) == "" {
			missing = append(missing, "typ_dokumentu")
		}
		if strings.TrimSpace(model.StringValue(item.OwnerName)) == "" {
			missing = append(missing, "imie_nazwisko")
		}
	}
	if item.Category == model.CategoryPhones && strings.TrimSpace(model.StringValue(item.Brand)) == "" {
		missing = append(missing, "marka")
	}
	if len(missing) > 0 {
		return validationf("missing required fields: %s", strings.Join(missing, ", "))
	}

	if !item.Category.Valid() {
		return validationf("unknown category %q", item.Category)
	}
	if !item.Status.Valid() {
		return validationf("unknown status %q", item.Status)
	}
	return nil
}

// CreateItem validates and stores a new item. The lp must be unused.
// A blank status defaults to found.
func (s *LFService) CreateItem(ctx context.Context, item *model.Item) (*model.Item, error) {
	if item.Status == "" {
		item.Status = model.StatusFound
	}
	item.LP = strings.TrimSpace(item.LP)
	if err := ValidateItem(item); err != nil {
		return nil, err
	}

	release, err := s.acquireShared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.store.FindItemByLP(ctx, item.LP)
	if err != nil {
		return nil, classify(errors.Wrap(err, "checking lp"), ErrConfiguration)
	}
	if existing != nil {
		return nil, errors.Mark(errors.Newf("item with lp %q already exists", item.LP), ErrConflict)
	}

	now := model.NewTimestamp(s.now())
	item.CreatedAt = now
	item.ModifiedAt = now

	created, err := s.store.InsertItem(ctx, item)
	if err != nil {
		return nil, classify(errors.Wrap(err, "inserting item"), ErrWriteFailure)
	}
	s.logger.Info("item created", "id", created.ID, "lp", created.LP)
	return created, nil
}

// GetItem returns the item with the given id.
func (s *LFService) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	release, err := s.acquireShared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.getItem(ctx, id)
}

func (s *LFService) getItem(ctx context.Context, id int64) (*model.Item, error) {
	item, err := s.store.FindItemByID(ctx, id)
	if err != nil {
		return nil, classify(errors.Wrapf(err, "loading item %d", id), ErrConfiguration)
	}
	if item == nil {
		return nil, notFoundf("item %d not found", id)
	}
	return item, nil
}

// UpdateItem applies patch to an existing item. The lp and creation time
// never change; the modification time is refreshed.
func (s *LFService) UpdateItem(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	release, err := s.acquireShared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(item)
	if err := ValidateItem(item); err != nil {
		return nil, err
	}
	item.ModifiedAt = model.NewTimestamp(s.now())

	updated, err := s.store.UpdateItem(ctx, item)
	if err != nil {
		return nil, classify(errors.Wrapf(err, "updating item %d", id), ErrWriteFailure)
	}
	s.logger.Info("item updated", "id", id, "lp", updated.LP)
	return updated, nil
}

// ToggleStatus flips an item between found and returned.
func (s *LFService) ToggleStatus(ctx context.Context, id int64) (*model.Item, error) {
	release, err := s.acquireShared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Status = item.Status.Toggle()
	item.ModifiedAt = model.NewTimestamp(s.now())

	updated, err := s.store.UpdateItem(ctx, item)
	if err != nil {
		return nil, classify(errors.Wrapf(err, "updating item %d", id), ErrWriteFailure)
	}
	s.logger.Info("item status changed", "id", id, "status", updated.Status)
	return updated, nil
}

// DeleteItem removes the item with the given id.
func (s *LFService) DeleteItem(ctx context.Context, id int64) error {
	release, err := s.acquireShared(ctx)
	if err != nil {
		return err
	}
	defer release()

	ok, err := s.store.DeleteItem(ctx, id)
	if err != nil {
		return classify(errors.Wrapf(err, "deleting item %d", id), ErrWriteFailure)
	}
	if !ok {
		return notFoundf("item %d not found", id)
	}
	s.logger.Info("item deleted", "id", id)
	return nil
}

// SearchItems returns items matching filter, newest first.
func (s *LFService) SearchItems(ctx context.Context, filter model.ItemFilter) ([]*model.Item, error) {
	release, err := s.acquireShared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	items, err := s.store.SearchItems(ctx, filter)
	if err != nil {
		return nil, classify(errors.Wrap(err, "searching items"), ErrConfiguration)
	}
	return items, nil
}

// NextLP proposes the next free catalog number in category: the category
// prefix followed by one more than the highest number already used.
func (s *LFService) NextLP(ctx context.Context, category model.Category) (string, error) {
	if !category.Valid() {
		return "", validationf("unknown category %q", category)
	}

	items, err := s.SearchItems(ctx, model.ItemFilter{Category: category})
	if err != nil {
		return "", err
	}

	prefix := category.Prefix()
	highest := 0
	for _, item := range items {
		n, ok := lpNumber(item.LP, prefix)
		if ok && n > highest {
			highest = n
		}
	}
	return prefix + strconv.Itoa(highest+1), nil
}

// lpNumber returns the numeric part of lp when lp is prefix followed by digits.
func lpNumber(lp, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.ToUpper(lp), prefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Stats counts items by status and category.
func (s *LFService) Stats(ctx context.Context) (*model.Stats, error) {
	items, err := s.SearchItems(ctx, model.ItemFilter{})
	if err != nil {
		return nil, err
	}

	stats := &model.Stats{ByCategory: make(map[model.Category]int, len(model.Categories))}
	for _, c := range model.Categories {
		stats.ByCategory[c] = 0
	}
	for _, item := range items {
		stats.Total++
		switch item.Status {
		case model.StatusFound:
			stats.Found++
		case model.StatusReturned:
			stats.Returned++
		}
		stats.ByCategory[item.Category]++
	}
	return stats, nil
}
