package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/testutil"
	"github.com/jackzampolin/bookwatch/internal/types"
)

const (
	waitFor = 2 * time.Second
	tick    = 2 * time.Millisecond
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s := New(Config{JobDelay: time.Millisecond, MaxWorkers: 2, Logger: testutil.Logger()})
	t.Cleanup(s.Close)
	return s
}

func seedBook(t *testing.T, s *Store) string {
	t.Helper()
	id, err := s.AddBook(BookSeed{
		ID:             "b1",
		Filename:       "book.epub",
		TargetLanguage: "german",
		Sections: []SectionSeed{
			{ID: "s1", Title: "One", Text: "Hello **world**"},
			{ID: "s2", Title: "Two", Text: "Second", FailWith: status.ErrorTranslation},
			{ID: "s3", Title: "Three", Text: "", Headings: []string{"Three A"}},
		},
	})
	require.NoError(t, err)
	return id
}

func bookStatus(t *testing.T, s *Store, id string) *types.BookStatus {
	t.Helper()
	bs, err := s.BookStatus(id)
	require.NoError(t, err)
	return bs
}

func TestAddBook(t *testing.T) {
	s := newStore(t)
	id := seedBook(t, s)

	bs := bookStatus(t, s, id)
	assert.Equal(t, status.BookIdle, bs.Status)
	assert.Equal(t, 3, bs.TotalSections)
	require.Len(t, bs.TOC, 4)
	assert.Equal(t, "s3", bs.TOC[3].ID)
	assert.Equal(t, "Three A", bs.TOC[3].Title)

	_, err := s.AddBook(BookSeed{ID: "b1"})
	assert.Error(t, err)

	_, err = s.AddBook(BookSeed{Sections: []SectionSeed{{ID: "x"}, {ID: "x"}}})
	assert.Error(t, err)
}

func TestStartAll_SettlesWithErrors(t *testing.T) {
	s := newStore(t)
	id := seedBook(t, s)

	launched, err := s.StartAll(id, types.JobRequest{TargetLanguage: "german", ModelName: "models/gemini-1.5-flash"})
	require.NoError(t, err)
	assert.Equal(t, 3, launched)
	assert.Equal(t, status.BookProcessing, bookStatus(t, s, id).Status)

	require.Eventually(t, func() bool {
		return bookStatus(t, s, id).Status == status.BookCompleteWithErrors
	}, waitFor, tick)

	bs := bookStatus(t, s, id)
	s1 := bs.Sections["s1"]
	assert.Equal(t, status.Translated, s1.Status)
	assert.Equal(t, "models/gemini-1.5-flash", s1.ModelName)
	require.NotNil(t, s1.InputTokenLimit)
	assert.Equal(t, 1048576, *s1.InputTokenLimit)

	assert.Equal(t, status.ErrorTranslation, bs.Sections["s2"].Status)
	assert.NotEmpty(t, bs.Sections["s2"].ErrorMessage)
	assert.Equal(t, status.CompletedEmpty, bs.Sections["s3"].Status)
	assert.Equal(t, 2, bs.TranslatedCount)
	assert.Equal(t, 1, bs.ErrorCount)

	text, err := s.Translation(id, "s1", "german")
	require.NoError(t, err)
	assert.Equal(t, "[german] Hello **world**", text)

	_, err = s.Translation(id, "s1", "french")
	assert.ErrorIs(t, err, ErrNotReady)

	launched, err = s.StartAll(id, types.JobRequest{TargetLanguage: "german"})
	require.NoError(t, err)
	assert.Zero(t, launched, "only unprocessed sections are picked up")
}

func TestStartSection_RetryAfterFailure(t *testing.T) {
	s := newStore(t)
	id := seedBook(t, s)
	req := types.JobRequest{TargetLanguage: "german"}

	_, err := s.StartSection(id, "s2", req)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return bookStatus(t, s, id).Sections["s2"].Status == status.ErrorTranslation
	}, waitFor, tick)

	_, err = s.StartSection(id, "s2", req)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return bookStatus(t, s, id).Sections["s2"].Status == status.Translated
	}, waitFor, tick)
}

func TestStartSection_Operations(t *testing.T) {
	tests := []struct {
		op   status.Operation
		want status.Status
	}{
		{status.OpTranslate, status.Translated},
		{status.OpSummarize, status.Summarized},
		{status.OpAnalyze, status.Analyzed},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			s := newStore(t)
			id := seedBook(t, s)
			_, err := s.StartSection(id, "s1", types.JobRequest{TargetLanguage: "german", OperationType: tt.op})
			require.NoError(t, err)
			require.Eventually(t, func() bool {
				return bookStatus(t, s, id).Sections["s1"].Status == tt.want
			}, waitFor, tick)
		})
	}
}

func TestStartSection_Errors(t *testing.T) {
	s := newStore(t)
	id := seedBook(t, s)

	_, err := s.StartSection("nope", "s1", types.JobRequest{})
	assert.ErrorIs(t, err, ErrBookNotFound)
	_, err = s.StartSection(id, "nope", types.JobRequest{})
	assert.ErrorIs(t, err, ErrSectionNotFound)
	_, err = s.Translation(id, "s1", "german")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name     string
		statuses []status.Status
		want     status.Book
	}{
		{"empty", nil, status.BookIdle},
		{"untouched", []status.Status{status.NotTranslated}, status.BookIdle},
		{"processing", []status.Status{status.Translated, status.Processing}, status.BookProcessing},
		{"complete", []status.Status{status.Translated, status.CompletedEmpty}, status.BookComplete},
		{"with_errors", []status.Status{status.Translated, status.ErrorUnknown}, status.BookCompleteWithErrors},
		{"partial", []status.Status{status.Translated, status.Idle}, status.BookIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &book{}
			for _, st := range tt.statuses {
				b.sections = append(b.sections, &section{status: st})
			}
			assert.Equal(t, tt.want, b.overall())
		})
	}
}

func TestDeleteBook(t *testing.T) {
	s := newStore(t)
	id := seedBook(t, s)
	_, err := s.StartAll(id, types.JobRequest{})
	require.NoError(t, err)

	require.NoError(t, s.DeleteBook(id))
	assert.ErrorIs(t, s.DeleteBook(id), ErrBookNotFound)
	_, err = s.BookStatus(id)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.Empty(t, s.BookIDs())
}

func TestLoadSeed(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.LoadSeed([]byte(DemoSeed)))
	assert.Equal(t, []string{"demo"}, s.BookIDs())

	bs := bookStatus(t, s, "demo")
	assert.Len(t, bs.Sections, 4)

	err := s.LoadSeed([]byte("books:\n  - id: x\n    colour: red\n"))
	assert.Error(t, err, "unknown fields are rejected")

	require.NoError(t, s.LoadSeed([]byte("models:\n  - name: local/tiny\n")))
	assert.Equal(t, []types.ModelInfo{{Name: "local/tiny"}}, s.Models())
}

func TestSetJobDelay(t *testing.T) {
	s := newStore(t)
	assert.Equal(t, time.Millisecond, s.JobDelay())

	s.SetJobDelay(time.Hour)
	assert.Equal(t, time.Hour, s.JobDelay())

	s.SetJobDelay(0)
	s.SetJobDelay(-time.Second)
	assert.Equal(t, time.Hour, s.JobDelay(), "non-positive delays are ignored")

	id := seedBook(t, s)
	_, err := s.StartSection(id, "s1", types.JobRequest{})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, status.Processing, bookStatus(t, s, id).Sections["s1"].Status)
}
