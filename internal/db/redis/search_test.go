package redis

import (
	"testing"

	"github.com/kailas-cloud/newsdex/internal/db"
)

func TestKNNArgsPageMatchesK(t *testing.T) {
	q := &db.KNNQuery{
		IndexName:    "idx:chunks",
		Vector:       []float32{0.1, 0.2, 0.3},
		K:            40,
		ReturnFields: []string{"article_id", "__vector_score"},
	}

	args := knnArgs(q)

	if args[0] != "idx:chunks" {
		t.Errorf("index = %q", args[0])
	}
	if args[1] != "*=>[KNN 40 @vector $BLOB]" {
		t.Errorf("query = %q", args[1])
	}
	// The result page must cover all K hits, not the server default of 10.
	limit := -1
	for i := 0; i+2 < len(args); i++ {
		if args[i] == "LIMIT" {
			limit = i
			break
		}
	}
	if limit == -1 {
		t.Fatalf("no LIMIT clause in %v", args)
	}
	if args[limit+1] != "0" || args[limit+2] != "40" {
		t.Errorf("LIMIT %s %s, want LIMIT 0 40", args[limit+1], args[limit+2])
	}
}

func TestKNNArgsPrependFilter(t *testing.T) {
	q := &db.KNNQuery{
		IndexName: "idx:chunks",
		Vector:    []float32{1},
		K:         5,
		Filter: db.Filter{
			AnyTags: map[string][]string{"category": {"technology"}},
		},
	}

	args := knnArgs(q)
	if args[1] != "(@category:{technology})=>[KNN 5 @vector $BLOB]" {
		t.Errorf("query = %q", args[1])
	}
}

func f64(v float64) *float64 { return &v }

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter db.Filter
		want   string
	}{
		{
			name:   "empty",
			filter: db.Filter{},
			want:   "",
		},
		{
			name: "single tag group",
			filter: db.Filter{
				AnyTags: map[string][]string{"source": {"techcrunch", "bbc"}},
			},
			want: "@source:{techcrunch|bbc}",
		},
		{
			name: "tag escaping",
			filter: db.Filter{
				AnyTags: map[string][]string{"source": {"the-verge"}},
			},
			want: `@source:{the\-verge}`,
		},
		{
			name: "negated tag",
			filter: db.Filter{
				NotTags: map[string][]string{"article_id": {"a1"}},
			},
			want: "-@article_id:{a1}",
		},
		{
			name: "numeric range open max",
			filter: db.Filter{
				Numeric: []db.NumericRange{{Field: "published_at", Min: f64(1700000000)}},
			},
			want: "@published_at:[1700000000 +inf]",
		},
		{
			name: "combined, fields sorted",
			filter: db.Filter{
				AnyTags: map[string][]string{
					"source":   {"bbc"},
					"category": {"technology"},
				},
				Numeric: []db.NumericRange{{Field: "published_at", Min: f64(100), Max: f64(200)}},
			},
			want: "@category:{technology} @source:{bbc} @published_at:[100 200]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildFilter(tt.filter); got != tt.want {
				t.Errorf("buildFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVectorToBytesLength(t *testing.T) {
	got := vectorToBytes([]float32{1, 2, 3})
	if len(got) != 12 {
		t.Errorf("want 12 bytes, got %d", len(got))
	}
	if vectorToBytes(nil) != "" {
		t.Error("nil vector must serialize to empty string")
	}
}
