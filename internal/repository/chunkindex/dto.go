package chunkindex

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"github.com/kailas-cloud/newsdex/internal/db"
	"github.com/kailas-cloud/newsdex/internal/domain"
)

// Hash field names of a stored chunk.
const (
	fieldContent     = "__content"
	fieldVector      = "vector"
	fieldArticleID   = "article_id"
	fieldSource      = "source"
	fieldCategory    = "category"
	fieldPublishedAt = "published_at" // unix seconds
	fieldChunkIndex  = "chunk_index"
	fieldWordCount   = "word_count"
)

func chunkToFields(c domain.Chunk) map[string]string {
	fields := map[string]string{
		fieldContent:    c.Content,
		fieldVector:     vectorToBytes(c.Embedding),
		fieldArticleID:  c.ArticleID,
		fieldChunkIndex: strconv.Itoa(c.Meta.ChunkIndex),
		fieldWordCount:  strconv.Itoa(c.Meta.WordCount),
	}
	if c.Meta.Source != "" {
		fields[fieldSource] = c.Meta.Source
	}
	if c.Meta.Category != "" {
		fields[fieldCategory] = c.Meta.Category
	}
	if !c.Meta.PublishedAt.IsZero() {
		fields[fieldPublishedAt] = strconv.FormatInt(c.Meta.PublishedAt.Unix(), 10)
	}
	return fields
}

func entryToChunk(id string, fields map[string]string, includeVector bool) domain.Chunk {
	c := domain.Chunk{
		ID:        id,
		ArticleID: fields[fieldArticleID],
		Content:   fields[fieldContent],
	}
	c.Meta.Source = fields[fieldSource]
	c.Meta.Category = fields[fieldCategory]
	if ts, err := strconv.ParseInt(fields[fieldPublishedAt], 10, 64); err == nil && ts > 0 {
		c.Meta.PublishedAt = time.Unix(ts, 0).UTC()
	}
	if idx, err := strconv.Atoi(fields[fieldChunkIndex]); err == nil {
		c.Meta.ChunkIndex = idx
	}
	if wc, err := strconv.Atoi(fields[fieldWordCount]); err == nil {
		c.Meta.WordCount = wc
	}
	if includeVector {
		c.Embedding = bytesToVector(fields[fieldVector])
	}
	return c
}

func filterToDB(f domain.ChunkFilter) db.Filter {
	out := db.Filter{}
	if len(f.Sources) > 0 {
		out.AnyTags = map[string][]string{fieldSource: f.Sources}
	}
	if len(f.Categories) > 0 {
		if out.AnyTags == nil {
			out.AnyTags = map[string][]string{}
		}
		out.AnyTags[fieldCategory] = f.Categories
	}
	if len(f.ExcludeSources) > 0 {
		out.NotTags = map[string][]string{fieldSource: f.ExcludeSources}
	}
	if len(f.ExcludeCategories) > 0 {
		if out.NotTags == nil {
			out.NotTags = map[string][]string{}
		}
		out.NotTags[fieldCategory] = f.ExcludeCategories
	}
	if f.ExcludeArticleID != "" {
		if out.NotTags == nil {
			out.NotTags = map[string][]string{}
		}
		out.NotTags[fieldArticleID] = []string{f.ExcludeArticleID}
	}
	if !f.PublishedAfter.IsZero() {
		since := float64(f.PublishedAfter.Unix())
		out.Numeric = append(out.Numeric, db.NumericRange{Field: fieldPublishedAt, Min: &since})
	}
	return out
}

// vectorToBytes serializes []float32 to the little-endian binary blob stored
// in the vector hash field.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
