package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/listarr/internal/models"
	"github.com/amaumene/listarr/internal/providers"
	"github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"
)

// Processor orchestrates list processing: fetch items from the provider,
// drop everything already in the global cache, submit the rest downstream
// and record the outcome as an execution.
type Processor struct {
	db         *models.Database
	registry   *providers.Registry
	settings   SettingsResolver
	tracker    *Tracker
	locks      *runLocks
	fetchDelay time.Duration
	logger     *logrus.Logger
}

// NewProcessor creates a new processor
func NewProcessor(
	db *models.Database,
	registry *providers.Registry,
	settings SettingsResolver,
	tracker *Tracker,
	fetchDelay time.Duration,
	logger *logrus.Logger,
) *Processor {
	return &Processor{
		db:         db,
		registry:   registry,
		settings:   settings,
		tracker:    tracker,
		locks:      newRunLocks(),
		fetchDelay: fetchDelay,
		logger:     logger,
	}
}

// BatchSummary aggregates the outcome of a cross-list run
type BatchSummary struct {
	BatchID     string `json:"batch_id"`
	Lists       int    `json:"lists"`
	TotalFound  int    `json:"total_found"`
	UniqueItems int    `json:"unique_items"`
	Skipped     int    `json:"skipped"`
	Requested   int    `json:"requested"`
	Failed      int    `json:"failed"`
}

// ProcessList runs the pipeline for a single list. A disabled list still
// processes: the enabled flag only gates automatic scheduling.
func (p *Processor) ProcessList(ctx context.Context, listID uint64, trigger models.TriggerKind, userID uint64) (*models.ProcessingExecution, error) {
	key := listLockKey(listID)
	if !p.locks.tryAcquire(key) {
		return nil, fmt.Errorf("%w: list %d", ErrRunInProgress, listID)
	}
	defer p.locks.release(key)

	return p.processList(ctx, listID, trigger, userID, models.NewBatchID(trigger))
}

// processList is the single-list pipeline, with the batch id supplied so
// batch runs can stamp their own id on per-list executions.
func (p *Processor) processList(ctx context.Context, listID uint64, trigger models.TriggerKind, userID uint64, batchID string) (*models.ProcessingExecution, error) {
	list, err := p.db.GetListByID(listID, userID)
	if err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrListNotFound, listID)
		}
		return nil, fmt.Errorf("failed to resolve list %d: %w", listID, err)
	}

	exec, err := p.tracker.Start(list.ID, batchID, trigger)
	if err != nil {
		return nil, err
	}

	requester, creds, err := p.resolveConfiguration(list)
	if err != nil {
		p.tracker.Fail(exec, err.Error())
		return exec, err
	}

	fetcher, err := p.registry.Get(list.Provider)
	if err != nil {
		p.tracker.Fail(exec, err.Error())
		return exec, err
	}

	items, err := fetcher.FetchItems(ctx, list.SourceURL, list.ItemLimit(), creds)
	if err != nil {
		p.tracker.Fail(exec, err.Error())
		return exec, err
	}

	unseen, err := p.db.FilterUncached(items)
	if err != nil {
		p.tracker.Fail(exec, err.Error())
		return exec, err
	}

	p.logger.WithFields(logrus.Fields{
		"list_id": list.ID,
		"name":    list.Name,
		"found":   len(items),
		"unseen":  len(unseen),
	}).Info("Fetched and filtered list items")

	result := requester.RequestItems(ctx, unseen)

	if err := p.db.RecordCached(list.ID, result.Succeeded); err != nil {
		p.tracker.Fail(exec, err.Error())
		return exec, err
	}

	// Partial downstream failure is still success; failed items stay out of
	// the cache and get retried on the next run.
	if err := p.tracker.Succeed(exec, len(items), len(result.Succeeded), len(result.Failed)); err != nil {
		return exec, err
	}

	return exec, nil
}

// fetchedList carries one list's fetch-phase outcome through a batch run
type fetchedList struct {
	list  *models.MediaList
	exec  *models.ProcessingExecution
	items []models.MediaItem
	ids   map[int64]struct{}
}

// ProcessBatch runs every enabled list in one pass, merging items across
// lists before touching the cache so overlapping lists never request the
// same item twice.
func (p *Processor) ProcessBatch(ctx context.Context, trigger models.TriggerKind, userID uint64) (*BatchSummary, error) {
	if !p.locks.tryAcquire(batchLockKey) {
		return nil, fmt.Errorf("%w: batch", ErrRunInProgress)
	}
	defer p.locks.release(batchLockKey)

	requester, ok := p.settings.Downstream(userID)
	if !ok {
		return nil, ErrDownstreamNotConfigured
	}

	lists, err := p.db.GetEnabledLists(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load enabled lists: %w", err)
	}

	batchID := models.NewBatchID(trigger)
	summary := &BatchSummary{BatchID: batchID, Lists: len(lists)}

	p.logger.WithFields(logrus.Fields{
		"batch_id": batchID,
		"lists":    len(lists),
		"trigger":  trigger,
	}).Info("Starting batch run")

	if len(lists) == 0 {
		return summary, nil
	}

	// Fetch phase: sequential, with a courtesy delay between lists. A fetch
	// failure is that list's error execution, never the batch's.
	var fetched []*fetchedList
	for i, list := range lists {
		if i > 0 && p.fetchDelay > 0 {
			time.Sleep(p.fetchDelay)
		}

		exec, err := p.tracker.Start(list.ID, batchID, trigger)
		if err != nil {
			p.logger.WithError(err).WithField("list_id", list.ID).Error("Failed to start execution, skipping list")
			continue
		}

		items, err := p.fetchListItems(ctx, list)
		if err != nil {
			p.tracker.Fail(exec, err.Error())
			continue
		}

		ids := make(map[int64]struct{}, len(items))
		for _, item := range items {
			ids[item.TMDBID] = struct{}{}
		}

		summary.TotalFound += len(items)
		fetched = append(fetched, &fetchedList{list: list, exec: exec, items: items, ids: ids})
	}

	// Merge phase: first occurrence wins, in list order
	var merged []models.MediaItem
	firstList := make(map[int64]uint64)
	for _, fl := range fetched {
		for _, item := range fl.items {
			if _, ok := firstList[item.TMDBID]; ok {
				continue
			}
			firstList[item.TMDBID] = fl.list.ID
			merged = append(merged, item)
		}
	}
	summary.UniqueItems = len(merged)

	// Cache phase: one global filter over the merged set
	unseen, err := p.db.FilterUncached(merged)
	if err != nil {
		p.failFetched(fetched, err.Error())
		return nil, err
	}
	summary.Skipped = summary.UniqueItems - len(unseen)

	// Request phase: a single submission for the whole batch
	result := requester.RequestItems(ctx, unseen)
	summary.Requested = len(result.Succeeded)
	summary.Failed = len(result.Failed)

	// Cache-write phase: attribute each item to the first list that
	// surfaced it; attribution is bookkeeping only.
	byList := make(map[uint64][]models.MediaItem)
	for _, item := range result.Succeeded {
		listID := firstList[item.TMDBID]
		byList[listID] = append(byList[listID], item)
	}
	for listID, items := range byList {
		if err := p.db.RecordCached(listID, items); err != nil {
			p.failFetched(fetched, err.Error())
			return nil, err
		}
	}

	// Finalize phase: per-list success with the subset of succeeded items
	// that appeared in that list's own fetched set. Failures stay aggregate
	// on the summary; splitting them across lists would be guesswork.
	for _, fl := range fetched {
		requested := 0
		for _, item := range result.Succeeded {
			if _, ok := fl.ids[item.TMDBID]; ok {
				requested++
			}
		}
		p.tracker.Succeed(fl.exec, len(fl.items), requested, 0)
	}

	p.logger.WithFields(logrus.Fields{
		"batch_id":  batchID,
		"found":     summary.TotalFound,
		"unique":    summary.UniqueItems,
		"skipped":   summary.Skipped,
		"requested": summary.Requested,
		"failed":    summary.Failed,
	}).Info("Batch run completed")

	return summary, nil
}

// fetchListItems resolves credentials and the fetcher for one list and
// fetches its items
func (p *Processor) fetchListItems(ctx context.Context, list *models.MediaList) ([]models.MediaItem, error) {
	creds, ok := p.settings.ProviderCredentials(list.UserID, list.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, list.Provider)
	}

	fetcher, err := p.registry.Get(list.Provider)
	if err != nil {
		return nil, err
	}

	return fetcher.FetchItems(ctx, list.SourceURL, list.ItemLimit(), creds)
}

// resolveConfiguration resolves the downstream client and provider
// credentials for one list's owner
func (p *Processor) resolveConfiguration(list *models.MediaList) (Requester, providers.Credentials, error) {
	requester, ok := p.settings.Downstream(list.UserID)
	if !ok {
		return nil, providers.Credentials{}, ErrDownstreamNotConfigured
	}

	creds, ok := p.settings.ProviderCredentials(list.UserID, list.Provider)
	if !ok {
		return nil, providers.Credentials{}, fmt.Errorf("%w: %s", ErrProviderNotConfigured, list.Provider)
	}

	return requester, creds, nil
}

// failFetched marks every still-running batch execution as failed
func (p *Processor) failFetched(fetched []*fetchedList, message string) {
	for _, fl := range fetched {
		p.tracker.Fail(fl.exec, message)
	}
}
