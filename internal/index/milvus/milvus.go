package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"docmind/internal/config"
	"docmind/internal/core/apperr"
	"docmind/internal/core/schema"
	"docmind/internal/index"
	"docmind/pkg/logger"
)

const (
	fieldID         = "id"
	fieldDocumentID = "document_id"
	fieldFileName   = "file_name"
	fieldOrdinal    = "ordinal"
	fieldPage       = "page"
	fieldText       = "text"
	fieldEmbedding  = "embedding"

	maxVarCharLength = "8192"
	idVarCharLength  = "256"
)

var outputFields = []string{fieldID, fieldDocumentID, fieldFileName, fieldOrdinal, fieldPage, fieldText}

// Provider opens Milvus-backed session indexes. Each session maps to its
// own collection named session_<id>, so isolation is enforced by the store
// itself rather than by filter expressions.
type Provider struct {
	log    *logger.Logger
	client client.Client
	dim    int
}

// NewProvider connects to Milvus and returns a Provider.
func NewProvider(ctx context.Context, cfg config.MilvusConfig, log *logger.Logger) (*Provider, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", cfg.Address, err)
	}
	return &Provider{log: log, client: c, dim: cfg.Dim}, nil
}

// Close releases the underlying Milvus connection.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Open returns the session's collection, creating and loading it on first
// use.
func (p *Provider) Open(ctx context.Context, sessionID string) (index.SessionIndex, error) {
	name := collectionName(sessionID)

	has, err := p.client.HasCollection(ctx, name)
	if err != nil {
		return nil, apperr.StoreUnavailable(err)
	}

	if !has {
		if err := p.createCollection(ctx, name); err != nil {
			return nil, apperr.StoreUnavailable(err)
		}
		p.log.WithSession(sessionID).Info("created session collection " + name)
	}

	if err := p.client.LoadCollection(ctx, name, false); err != nil {
		return nil, apperr.StoreUnavailable(err)
	}

	return &Store{log: p.log.WithSession(sessionID), client: p.client, collection: name, dim: p.dim}, nil
}

func (p *Provider) createCollection(ctx context.Context, name string) error {
	collSchema := &entity.Schema{
		CollectionName: name,
		Description:    "per-session document chunk vectors",
		Fields: []*entity.Field{
			{Name: fieldID, DataType: entity.FieldTypeVarChar, PrimaryKey: true,
				TypeParams: map[string]string{entity.TypeParamMaxLength: idVarCharLength}},
			{Name: fieldDocumentID, DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{entity.TypeParamMaxLength: idVarCharLength}},
			{Name: fieldFileName, DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{entity.TypeParamMaxLength: idVarCharLength}},
			{Name: fieldOrdinal, DataType: entity.FieldTypeInt64},
			{Name: fieldPage, DataType: entity.FieldTypeInt64},
			{Name: fieldText, DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{entity.TypeParamMaxLength: maxVarCharLength}},
			{Name: fieldEmbedding, DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{entity.TypeParamDim: strconv.Itoa(p.dim)}},
		},
	}

	if err := p.client.CreateCollection(ctx, collSchema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	// Cosine is the metric the embedding models are trained against.
	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 128)
	if err != nil {
		return fmt.Errorf("failed to build index description: %w", err)
	}
	if err := p.client.CreateIndex(ctx, name, fieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("failed to create index on %s: %w", name, err)
	}

	return nil
}

// collectionName derives a Milvus-safe collection name from an opaque
// session id.
func collectionName(sessionID string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, sessionID)
	return "session_" + sanitized
}

// Store adapts one Milvus collection to the SessionIndex interface.
type Store struct {
	log        *logger.Logger
	client     client.Client
	collection string
	dim        int
}

func (s *Store) Upsert(ctx context.Context, records []schema.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	docIDs := make([]string, len(records))
	fileNames := make([]string, len(records))
	ordinals := make([]int64, len(records))
	pages := make([]int64, len(records))
	texts := make([]string, len(records))
	vectors := make([][]float32, len(records))

	for i, r := range records {
		ids[i] = r.ChunkID
		docIDs[i] = r.DocumentID
		fileNames[i] = r.FileName
		ordinals[i] = int64(r.Ordinal)
		pages[i] = int64(r.Page)
		texts[i] = r.Text
		vectors[i] = r.Vector
	}

	_, err := s.client.Upsert(ctx, s.collection, "",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldDocumentID, docIDs),
		entity.NewColumnVarChar(fieldFileName, fileNames),
		entity.NewColumnInt64(fieldOrdinal, ordinals),
		entity.NewColumnInt64(fieldPage, pages),
		entity.NewColumnVarChar(fieldText, texts),
		entity.NewColumnFloatVector(fieldEmbedding, s.dim, vectors),
	)
	if err != nil {
		return apperr.StoreUnavailable(fmt.Errorf("upsert into %s: %w", s.collection, err))
	}

	s.log.Debug(fmt.Sprintf("upserted %d records into %s", len(records), s.collection))
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]schema.ScoredRecord, error) {
	if k <= 0 {
		return nil, nil
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(10)
	results, err := s.client.Search(
		ctx, s.collection, nil, "", outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		fieldEmbedding, entity.COSINE, k, sp,
	)
	if err != nil {
		return nil, apperr.StoreUnavailable(fmt.Errorf("search %s: %w", s.collection, err))
	}

	var scored []schema.ScoredRecord
	for _, res := range results {
		records, err := decodeColumns(res.Fields, res.ResultCount)
		if err != nil {
			return nil, fmt.Errorf("decode search result from %s: %w", s.collection, err)
		}
		for i, r := range records {
			scored = append(scored, schema.ScoredRecord{
				EmbeddingRecord: r,
				Score:           res.Scores[i],
			})
		}
	}

	return scored, nil
}

func (s *Store) AllRecords(ctx context.Context) ([]schema.EmbeddingRecord, error) {
	fields := append(append([]string{}, outputFields...), fieldEmbedding)

	rs, err := s.client.Query(ctx, s.collection, nil, fmt.Sprintf(`%s != ""`, fieldID), fields)
	if err != nil {
		return nil, apperr.StoreUnavailable(fmt.Errorf("query %s: %w", s.collection, err))
	}

	count := 0
	if len(rs) > 0 {
		count = rs[0].Len()
	}

	records, err := decodeColumns(rs, count)
	if err != nil {
		return nil, fmt.Errorf("decode records from %s: %w", s.collection, err)
	}

	if vecCol, ok := findColumn(rs, fieldEmbedding).(*entity.ColumnFloatVector); ok {
		data := vecCol.Data()
		for i := range records {
			if i < len(data) {
				records[i].Vector = data[i]
			}
		}
	}

	return records, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	rs, err := s.client.Query(ctx, s.collection, nil, fmt.Sprintf(`%s != ""`, fieldID), []string{fieldID})
	if err != nil {
		return 0, apperr.StoreUnavailable(fmt.Errorf("count %s: %w", s.collection, err))
	}
	if len(rs) == 0 {
		return 0, nil
	}
	return rs[0].Len(), nil
}

func (s *Store) Drop(ctx context.Context) error {
	has, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return apperr.StoreUnavailable(err)
	}
	if !has {
		// Already gone; ending a session twice is fine.
		return nil
	}
	if err := s.client.DropCollection(ctx, s.collection); err != nil {
		return apperr.StoreUnavailable(fmt.Errorf("drop %s: %w", s.collection, err))
	}
	s.log.Info("dropped collection " + s.collection)
	return nil
}

// decodeColumns rebuilds EmbeddingRecords from a Milvus column set.
func decodeColumns(cols []entity.Column, count int) ([]schema.EmbeddingRecord, error) {
	idCol, ok := findColumn(cols, fieldID).(*entity.ColumnVarChar)
	if !ok {
		return nil, fmt.Errorf("missing %s column", fieldID)
	}

	ids := idCol.Data()
	var docIDs, fileNames, texts []string
	var ordinals, pages []int64

	if c, ok := findColumn(cols, fieldDocumentID).(*entity.ColumnVarChar); ok {
		docIDs = c.Data()
	}
	if c, ok := findColumn(cols, fieldFileName).(*entity.ColumnVarChar); ok {
		fileNames = c.Data()
	}
	if c, ok := findColumn(cols, fieldText).(*entity.ColumnVarChar); ok {
		texts = c.Data()
	}
	if c, ok := findColumn(cols, fieldOrdinal).(*entity.ColumnInt64); ok {
		ordinals = c.Data()
	}
	if c, ok := findColumn(cols, fieldPage).(*entity.ColumnInt64); ok {
		pages = c.Data()
	}

	records := make([]schema.EmbeddingRecord, 0, count)
	for i := 0; i < count && i < len(ids); i++ {
		r := schema.EmbeddingRecord{ChunkID: ids[i]}
		if i < len(docIDs) {
			r.DocumentID = docIDs[i]
		}
		if i < len(fileNames) {
			r.FileName = fileNames[i]
		}
		if i < len(texts) {
			r.Text = texts[i]
		}
		if i < len(ordinals) {
			r.Ordinal = int(ordinals[i])
		}
		if i < len(pages) {
			r.Page = int(pages[i])
		}
		records = append(records, r)
	}
	return records, nil
}

func findColumn(cols []entity.Column, name string) entity.Column {
	for _, c := range cols {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

var (
	_ index.Provider     = (*Provider)(nil)
	_ index.SessionIndex = (*Store)(nil)
)
