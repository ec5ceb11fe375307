package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryoma-android/takahashi01-sub000/internal/domain/entity"
	"github.com/ryoma-android/takahashi01-sub000/pkg/database"
	"github.com/ryoma-android/takahashi01-sub000/pkg/utils"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, utils.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, utils.NewTestLogger())
	require.NoError(t, migrator.RunMigrations("../../migrations"))

	return db
}

func createProperty(t *testing.T, repo *PropertyRepository, name string) *entity.Property {
	t.Helper()
	p := entity.NewPlaceholderProperty(name)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func amountOf(v float64) *float64 { return &v }

func TestPropertyRepositoryCRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewPropertyRepository(db.DB, utils.NewTestLogger())
	ctx := context.Background()

	p := createProperty(t, repo, "サンプル荘")
	require.NotZero(t, p.ID)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "サンプル荘", got.Name)
	assert.Equal(t, entity.PlaceholderPropertyType, got.Type)
	assert.Equal(t, entity.PlaceholderLocation, got.Location)

	got.Name = "サンプル荘本館"
	got.Units = 8
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "サンプル荘本館", updated.Name)
	assert.Equal(t, 8, updated.Units)

	require.NoError(t, repo.Delete(ctx, p.ID))

	missing, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, repo.Delete(ctx, p.ID), "deleting a missing property is an error")
}

func TestDocumentRepositoryListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	properties := NewPropertyRepository(db.DB, utils.NewTestLogger())
	documents := NewDocumentRepository(db.DB, utils.NewTestLogger())
	ctx := context.Background()

	p := createProperty(t, properties, "サンプル荘")

	var ids []int64
	for _, name := range []string{"first.jpg", "second.jpg", "third.jpg"} {
		d := &entity.Document{
			PropertyID: p.ID,
			Filename:   name,
			FileURL:    "http://localhost:8080/uploads/" + name,
			Status:     entity.DocumentStatusProcessed,
		}
		require.NoError(t, documents.Create(ctx, d))
		ids = append(ids, d.ID)
	}

	list, err := documents.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID, "newest document first")
	assert.Equal(t, ids[0], list[2].ID)
	assert.Equal(t, entity.DocumentTypeReceipt, list[0].Type, "type defaults on insert")
}

func TestDocumentRepositoryUpdateExtractedData(t *testing.T) {
	db := newTestDB(t)
	properties := NewPropertyRepository(db.DB, utils.NewTestLogger())
	documents := NewDocumentRepository(db.DB, utils.NewTestLogger())
	ctx := context.Background()

	p := createProperty(t, properties, "サンプル荘")
	d := &entity.Document{PropertyID: p.ID, Filename: "rent.jpg", Status: entity.DocumentStatusProcessed}
	require.NoError(t, documents.Create(ctx, d))

	require.NoError(t, documents.UpdateExtractedData(ctx, d.ID, `{"propertyName":"サンプル荘","contracts":[]}`))

	got, err := documents.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"propertyName":"サンプル荘","contracts":[]}`, got.ExtractedData)

	assert.Error(t, documents.UpdateExtractedData(ctx, 9999, `{}`))
}

func TestExpenseRepositoryNullableFields(t *testing.T) {
	db := newTestDB(t)
	properties := NewPropertyRepository(db.DB, utils.NewTestLogger())
	expenses := NewExpenseRepository(db.DB, utils.NewTestLogger())
	ctx := context.Background()

	p := createProperty(t, properties, "サンプル荘")

	e := &entity.Expense{
		PropertyID:  p.ID,
		Category:    entity.CategoryRent,
		Amount:      nil,
		Description: "102 空室",
		Date:        "2025-06-01",
		RoomNo:      "102",
		TenantName:  "空室",
	}
	require.NoError(t, expenses.Create(ctx, e))

	got, err := expenses.GetByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Amount, "null amount must round-trip as nil")
	assert.Nil(t, got.DocumentID)
}

func TestExpenseRepositoryDocumentScoping(t *testing.T) {
	db := newTestDB(t)
	properties := NewPropertyRepository(db.DB, utils.NewTestLogger())
	documents := NewDocumentRepository(db.DB, utils.NewTestLogger())
	expenses := NewExpenseRepository(db.DB, utils.NewTestLogger())
	ctx := context.Background()

	p := createProperty(t, properties, "サンプル荘")
	doc := &entity.Document{PropertyID: p.ID, Filename: "rent.jpg", Status: entity.DocumentStatusProcessed}
	require.NoError(t, documents.Create(ctx, doc))

	for _, room := range []string{"101", "102"} {
		require.NoError(t, expenses.Create(ctx, &entity.Expense{
			PropertyID: p.ID,
			Category:   entity.CategoryRent,
			Amount:     amountOf(50000),
			Date:       "2025-06-01",
			DocumentID: &doc.ID,
			RoomNo:     room,
			TenantName: "入居者",
		}))
	}
	require.NoError(t, expenses.Create(ctx, &entity.Expense{
		PropertyID: p.ID,
		Category:   "修繕費",
		Amount:     amountOf(12000),
		Date:       "2025-06-15",
	}))

	scoped, err := expenses.ListByDocumentID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, scoped, 2)

	removed, err := expenses.DeleteByDocumentID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	all, err := expenses.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "manually entered expense must survive the cascade")
}

func TestExpenseRepositoryListByMonth(t *testing.T) {
	db := newTestDB(t)
	properties := NewPropertyRepository(db.DB, utils.NewTestLogger())
	expenses := NewExpenseRepository(db.DB, utils.NewTestLogger())
	ctx := context.Background()

	p := createProperty(t, properties, "サンプル荘")
	for _, date := range []string{"2025-06-01", "2025-06-30", "2025-07-01"} {
		require.NoError(t, expenses.Create(ctx, &entity.Expense{
			PropertyID: p.ID,
			Category:   entity.CategoryRent,
			Amount:     amountOf(50000),
			Date:       date,
			RoomNo:     "101",
			TenantName: "田中太郎",
		}))
	}

	june, err := expenses.ListByMonth(ctx, "2025-06")
	require.NoError(t, err)
	assert.Len(t, june, 2)
}

func TestDeletingDocumentNullsExpenseReference(t *testing.T) {
	db := newTestDB(t)
	properties := NewPropertyRepository(db.DB, utils.NewTestLogger())
	documents := NewDocumentRepository(db.DB, utils.NewTestLogger())
	expenses := NewExpenseRepository(db.DB, utils.NewTestLogger())
	ctx := context.Background()

	p := createProperty(t, properties, "サンプル荘")
	doc := &entity.Document{PropertyID: p.ID, Filename: "rent.jpg", Status: entity.DocumentStatusProcessed}
	require.NoError(t, documents.Create(ctx, doc))

	e := &entity.Expense{
		PropertyID: p.ID,
		Category:   entity.CategoryRent,
		Amount:     amountOf(50000),
		Date:       "2025-06-01",
		DocumentID: &doc.ID,
		RoomNo:     "101",
		TenantName: "田中太郎",
	}
	require.NoError(t, expenses.Create(ctx, e))

	// Deleting only the document (skipping the expense cascade) must not
	// orphan the row; the schema clears the reference instead.
	require.NoError(t, documents.Delete(ctx, doc.ID))

	got, err := expenses.GetByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.DocumentID)
}

func TestWithTransactionRollsBackAllWrites(t *testing.T) {
	db := newTestDB(t)
	properties := NewPropertyRepository(db.DB, utils.NewTestLogger())
	documents := NewDocumentRepository(db.DB, utils.NewTestLogger())
	expenses := NewExpenseRepository(db.DB, utils.NewTestLogger())
	ctx := context.Background()

	p := createProperty(t, properties, "サンプル荘")

	errBoom := errors.New("boom")
	err := db.WithTransaction(ctx, func(txCtx context.Context) error {
		doc := &entity.Document{PropertyID: p.ID, Filename: "rent.jpg", Status: entity.DocumentStatusProcessed}
		if err := documents.Create(txCtx, doc); err != nil {
			return err
		}
		if err := expenses.Create(txCtx, &entity.Expense{
			PropertyID: p.ID,
			Category:   entity.CategoryRent,
			Amount:     amountOf(50000),
			Date:       "2025-06-01",
			DocumentID: &doc.ID,
		}); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	docs, err := documents.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	rows, err := expenses.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTaxInsuranceRepositoryCRUD(t *testing.T) {
	db := newTestDB(t)
	properties := NewPropertyRepository(db.DB, utils.NewTestLogger())
	repo := NewTaxInsuranceRepository(db.DB, utils.NewTestLogger())
	ctx := context.Background()

	p := createProperty(t, properties, "サンプル荘")

	ti := &entity.TaxInsurance{
		PropertyID: p.ID,
		Type:       "固定資産税",
		Name:       "2025年度固定資産税",
		Amount:     120000,
		DueDate:    "2025-06-30",
	}
	require.NoError(t, repo.Create(ctx, ti))

	got, err := repo.GetByID(ctx, ti.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Paid)

	got.Paid = true
	got.Memo = "6/15 振込済み"
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.GetByID(ctx, ti.ID)
	require.NoError(t, err)
	assert.True(t, updated.Paid)
	assert.Equal(t, "6/15 振込済み", updated.Memo)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, ti.ID))
	missing, err := repo.GetByID(ctx, ti.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
