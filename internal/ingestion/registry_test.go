package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bossing/basket-service/internal/catalog"
)

type stubAdapter struct {
	store      catalog.Store
	categories []string
	listErr    error
	records    map[string][]Record
	fetchErr   map[string]error
	searchErr  error
	panics     bool
}

func newStub(id string) *stubAdapter {
	return &stubAdapter{
		store:    catalog.Store{ID: id, Name: id, Slug: id, Active: true},
		records:  make(map[string][]Record),
		fetchErr: make(map[string]error),
	}
}

func (s *stubAdapter) with(category string, records ...Record) *stubAdapter {
	s.categories = append(s.categories, category)
	for i := range records {
		records[i].StoreID = s.store.ID
	}
	s.records[category] = append(s.records[category], records...)
	return s
}

func (s *stubAdapter) Slug() string         { return s.store.Slug }
func (s *stubAdapter) Store() catalog.Store { return s.store }

func (s *stubAdapter) ListCategories(ctx context.Context) ([]string, error) {
	if s.panics {
		panic("boom")
	}
	return s.categories, s.listErr
}

func (s *stubAdapter) Fetch(ctx context.Context, category string) ([]Record, error) {
	if err := s.fetchErr[category]; err != nil {
		return nil, err
	}
	return s.records[category], nil
}

func (s *stubAdapter) SearchByText(ctx context.Context, query string) ([]Record, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	var out []Record
	for _, c := range s.categories {
		out = append(out, s.records[c]...)
	}
	return out, nil
}

func rec(id, name string, price int64) Record {
	return Record{CatalogID: id, Name: name, Price: price, PricePerUnit: price, Unit: "ud", Available: true}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg, err := NewRegistry(newStub("lidl"), newStub("bonpreu"))
	require.NoError(t, err)

	a, ok := reg.Get("lidl")
	require.True(t, ok)
	assert.Equal(t, "lidl", a.Slug())

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"bonpreu", "lidl"}, reg.Slugs())
	assert.Error(t, reg.Register(newStub("lidl")), "duplicate slug")
	assert.Error(t, reg.SetEnabled("missing", false))
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(newStub("lidl"), newStub("lidl"))
	assert.Error(t, err)
}

func TestRegistry_RunAll(t *testing.T) {
	healthy := newStub("lidl").
		with("lactics", rec("llet", "Llet Sencera", 79), rec("iogurt", "Iogurt Natural", 120)).
		with("pasta", rec("macarrons", "Macarrons", 95))

	partial := newStub("bonpreu").
		with("lactics", rec("llet", "Llet Sencera", 99)).
		with("pasta", rec("espaguetis", "Espaguetis", 110))
	partial.fetchErr["pasta"] = errors.New("upstream 500")

	broken := newStub("mercadona")
	broken.listErr = errors.New("connection refused")

	reg, err := NewRegistry(healthy, partial, broken)
	require.NoError(t, err)

	results := reg.RunAll(context.Background())
	require.Len(t, results, 3)

	assert.Equal(t, "lidl", results[0].Source)
	assert.Len(t, results[0].Records, 3)
	assert.False(t, results[0].Failed())

	assert.Equal(t, "bonpreu", results[1].Source)
	require.Len(t, results[1].Records, 1)
	assert.Equal(t, int64(99), results[1].Records[0].Price)
	require.Len(t, results[1].Errors, 1)
	assert.Contains(t, results[1].Errors[0], "pasta")

	assert.Equal(t, "mercadona", results[2].Source)
	assert.Empty(t, results[2].Records)
	assert.NotNil(t, results[2].Records)
	require.Len(t, results[2].Errors, 1)
	assert.Contains(t, results[2].Errors[0], "connection refused")
}

func TestRegistry_RunAll_RecoversPanics(t *testing.T) {
	bad := newStub("bad")
	bad.panics = true
	good := newStub("good").with("fruita", rec("poma", "Poma Golden", 250))

	reg, err := NewRegistry(bad, good)
	require.NoError(t, err)

	results := reg.RunAll(context.Background())
	require.Len(t, results, 2)
	assert.True(t, results[0].Failed())
	assert.Contains(t, results[0].Errors[0], "panic")
	assert.Len(t, results[1].Records, 1)
}

func TestRegistry_RunAll_SkipsDisabledAndInvalid(t *testing.T) {
	a := newStub("lidl").with("lactics",
		rec("llet", "Llet Sencera", 79),
		rec("", "Sense id", 10),
		rec("buit", "   ", 10),
		rec("llet", "Llet Sencera duplicada", 70),
	)
	b := newStub("bonpreu").with("lactics", rec("llet", "Llet", 99))

	reg, err := NewRegistry(a, b)
	require.NoError(t, err)
	require.NoError(t, reg.SetEnabled("bonpreu", false))
	reg.SetConcurrency(1)

	results := reg.RunAll(context.Background())
	require.Len(t, results, 1)
	require.Len(t, results[0].Records, 1)
	assert.Equal(t, "Llet Sencera", results[0].Records[0].Name)
}

func TestRegistry_SearchAll(t *testing.T) {
	good := newStub("lidl").with("lactics", rec("llet", "Llet Sencera", 79))
	bad := newStub("bonpreu")
	bad.searchErr = errors.New("timeout")

	reg, err := NewRegistry(good, bad)
	require.NoError(t, err)

	results := reg.SearchAll(context.Background(), "llet")
	require.Len(t, results, 2)
	assert.Len(t, results[0].Records, 1)
	assert.Empty(t, results[1].Records)
	assert.True(t, results[1].Failed())
}
