package property

import (
	"context"
	"errors"
	"testing"

	"github.com/ryoma-android/takahashi01-sub000/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	properties []*entity.Property
	createErr  error
	nextID     int64
}

func (f *fakeStore) List(ctx context.Context) ([]*entity.Property, error) {
	return f.properties, nil
}

func (f *fakeStore) Create(ctx context.Context, p *entity.Property) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	p.ID = f.nextID
	f.properties = append(f.properties, p)
	return nil
}

func existing(id int64, name string) *entity.Property {
	return &entity.Property{ID: id, Name: name}
}

func TestResolveSubstringMatch(t *testing.T) {
	store := &fakeStore{properties: []*entity.Property{existing(7, "Sample Heights")}, nextID: 7}
	r := NewResolver(store, zap.NewNop())

	id, created, err := r.Resolve(context.Background(), "sample heights annex")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(7), id)
}

func TestResolveExactMatchPreferredOverContainment(t *testing.T) {
	store := &fakeStore{
		properties: []*entity.Property{
			existing(1, "サンプル荘別館"),
			existing(2, "サンプル荘"),
		},
		nextID: 2,
	}
	r := NewResolver(store, zap.NewNop())

	id, created, err := r.Resolve(context.Background(), "サンプル荘")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(2), id, "exact match should win over the earlier containment match")
}

func TestResolveCreatesPlaceholderWhenUnmatched(t *testing.T) {
	store := &fakeStore{properties: []*entity.Property{existing(1, "花堂マンション")}, nextID: 1}
	r := NewResolver(store, zap.NewNop())

	id, created, err := r.Resolve(context.Background(), "福井中央アパート")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(2), id)

	p := store.properties[1]
	assert.Equal(t, "福井中央アパート", p.Name)
	assert.Equal(t, entity.PlaceholderPropertyType, p.Type)
	assert.Equal(t, entity.PlaceholderUnits, p.Units)
	assert.Zero(t, p.MonthlyIncome)
	assert.Equal(t, entity.PlaceholderLocation, p.Location)
	assert.Equal(t, entity.PlaceholderAddress, p.Address)
}

func TestResolveEmptyNameFails(t *testing.T) {
	r := NewResolver(&fakeStore{}, zap.NewNop())

	_, _, err := r.Resolve(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyPropertyName)
}

func TestResolveCreateFailurePropagates(t *testing.T) {
	store := &fakeStore{createErr: errors.New("insert failed")}
	r := NewResolver(store, zap.NewNop())

	_, _, err := r.Resolve(context.Background(), "新規物件")
	require.Error(t, err)
}

func TestResolveOrDefault(t *testing.T) {
	store := &fakeStore{properties: []*entity.Property{existing(3, "Sample Heights")}, nextID: 3}
	r := NewResolver(store, zap.NewNop())

	id, err := r.ResolveOrDefault(context.Background(), "SAMPLE HEIGHTS 2号館", 99)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	id, err = r.ResolveOrDefault(context.Background(), "無関係な物件", 99)
	require.NoError(t, err)
	assert.Equal(t, int64(99), id)

	id, err = r.ResolveOrDefault(context.Background(), "", 99)
	require.NoError(t, err)
	assert.Equal(t, int64(99), id)

	assert.Len(t, store.properties, 1, "ResolveOrDefault must never create properties")
}
