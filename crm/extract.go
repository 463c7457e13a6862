package crm

import (
	"context"
	"log/slog"

	"github.com/talentbridge/crmsync/core/schema"
)

// Extractor pulls raw records for one entity, page by page. It selects the
// fields the registry declares relevant (including any override fields) and
// passes records through otherwise untouched.
type Extractor struct {
	client *Client
	entity schema.Entity
	fields []string
	logger *slog.Logger
}

// NewExtractor creates an extractor for the given entity.
func NewExtractor(client *Client, entity schema.Entity) *Extractor {
	return &Extractor{
		client: client,
		entity: entity,
		fields: entity.APIFieldNames(),
		logger: slog.Default(),
	}
}

// WithLogger returns a copy of the extractor using the given logger.
func (e *Extractor) WithLogger(l *slog.Logger) *Extractor {
	tmp := *e
	tmp.logger = l
	return &tmp
}

// Pages returns a lazy iterator over the entity's record batches. The
// sequence is finite and not restartable; call Pages again to re-query from
// the first page.
func (e *Extractor) Pages() *PageIter {
	return &PageIter{extractor: e, page: 1, more: true}
}

// PageIter walks the CRM's pages for one entity. Each Next call fetches one
// page; iteration ends when the CRM reports no further records or returns an
// empty page.
type PageIter struct {
	extractor *Extractor
	page      int
	more      bool
}

// Next fetches the next batch of records. It returns nil records when the
// sequence is exhausted. After an error the iterator is finished.
func (it *PageIter) Next(ctx context.Context) ([]Record, error) {
	if !it.more {
		return nil, nil
	}

	p, err := it.extractor.client.FetchPage(ctx, it.extractor.entity.APIModule, it.extractor.fields, it.page)
	if err != nil {
		it.more = false
		return nil, err
	}

	it.extractor.logger.Info("fetched page",
		"entity", it.extractor.entity.Name, "page", it.page, "records", len(p.Records))

	it.page++
	it.more = p.More
	if len(p.Records) == 0 {
		it.more = false
		return nil, nil
	}
	return p.Records, nil
}
