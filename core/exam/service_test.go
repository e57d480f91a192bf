package exam

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeRepo struct {
	Repository
	searchFunc func(ctx context.Context, filter SearchFilter) (Page, error)
}

func (r fakeRepo) SearchQuestions(ctx context.Context, filter SearchFilter) (Page, error) {
	return r.searchFunc(ctx, filter)
}

func TestSearchFilter_Clean(t *testing.T) {
	tests := []struct {
		name        string
		filter      SearchFilter
		wantKeyword string
		wantLimit   int
	}{
		{name: "zero limit falls back to default", filter: SearchFilter{}, wantLimit: defaultPageSize},
		{name: "negative limit falls back to default", filter: SearchFilter{Limit: -3}, wantLimit: defaultPageSize},
		{name: "limit above max is clamped", filter: SearchFilter{Limit: 1000}, wantLimit: maxPageSize},
		{name: "valid limit is kept", filter: SearchFilter{Limit: 5}, wantLimit: 5},
		{
			name:        "keyword is trimmed",
			filter:      SearchFilter{Keyword: "  photosynthesis \n", Limit: 10},
			wantKeyword: "photosynthesis",
			wantLimit:   10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Clean()
			assert.Equal(t, tt.wantKeyword, tt.filter.Keyword)
			assert.Equal(t, tt.wantLimit, tt.filter.Limit)
		})
	}
}

func TestQuestion_Less(t *testing.T) {
	tests := []struct {
		name string
		a, b Question
		want bool
	}{
		{name: "recent year first", a: Question{Year: 2024}, b: Question{Year: 2020}, want: true},
		{name: "older year last", a: Question{Year: 2019}, b: Question{Year: 2023}, want: false},
		{name: "same year: paper ascending", a: Question{Year: 2024, Paper: "1"}, b: Question{Year: 2024, Paper: "2"}, want: true},
		{name: "same paper: number ascending", a: Question{Year: 2024, Paper: "1", Number: 2}, b: Question{Year: 2024, Paper: "1", Number: 7}, want: true},
		{name: "full tie broken by id", a: Question{Year: 2024, ID: "a"}, b: Question{Year: 2024, ID: "b"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Less(tt.b))
		})
	}
}

func TestMergePages(t *testing.T) {
	q1 := Question{ID: "q1", Year: 2024}
	q2 := Question{ID: "q2", Year: 2024}
	q3 := Question{ID: "q3", Year: 2023}

	tests := []struct {
		name  string
		pages []Page
		want  []Question
	}{
		{name: "no pages", want: []Question{}},
		{name: "single page", pages: []Page{{Questions: []Question{q1, q2}}}, want: []Question{q1, q2}},
		{
			name:  "overlapping pages are deduplicated",
			pages: []Page{{Questions: []Question{q1, q2}}, {Questions: []Question{q2, q3}}},
			want:  []Question{q1, q2, q3},
		},
		{
			name:  "first-seen order wins",
			pages: []Page{{Questions: []Question{q3}}, {Questions: []Question{q1, q3, q2}}},
			want:  []Question{q3, q1, q2},
		},
		{
			name:  "same page repeated",
			pages: []Page{{Questions: []Question{q1}}, {Questions: []Question{q1}}, {Questions: []Question{q1}}},
			want:  []Question{q1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := MergePages(tt.pages...)
			assert.Equal(t, tt.want, merged)

			seen := make(map[string]int)
			for _, q := range merged {
				seen[q.ID]++
			}
			for id, n := range seen {
				assert.Equalf(t, 1, n, "question %s appears %d times", id, n)
			}
		})
	}
}

func TestService_Search_cleansFilterAndPage(t *testing.T) {
	var gotFilter SearchFilter
	svc := NewService(fakeRepo{
		searchFunc: func(ctx context.Context, filter SearchFilter) (Page, error) {
			gotFilter = filter
			return Page{}, nil // repo may return a nil slice
		},
	})

	page, err := svc.Search(context.Background(), SearchFilter{Keyword: " algebra ", Limit: 0})
	assert.NoError(t, err)
	assert.NotNil(t, page.Questions)
	assert.Equal(t, "algebra", gotFilter.Keyword)
	assert.Equal(t, defaultPageSize, gotFilter.Limit)
}

func TestSubjectStats_withPercent(t *testing.T) {
	assert.Equal(t, float64(0), SubjectStats{}.withPercent().Percent)
	assert.InDelta(t, 25.0, SubjectStats{Completed: 1, Total: 4}.withPercent().Percent, 0.001)
	assert.InDelta(t, 100.0, SubjectStats{Completed: 7, Total: 7}.withPercent().Percent, 0.001)
}
