package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/database/dbtest"
	"github.com/rpupo63/portfolio-backend/models"
)

func addProject(t *testing.T, db Database, title, kind string) *models.Project {
	t.Helper()
	ctx := context.Background()

	order, err := db.ProjectRepo().NextSortOrder(ctx)
	require.NoError(t, err)

	p := &models.Project{Title: title, Slug: uuid.NewString()[:8], Kind: kind, SortOrder: order}
	require.NoError(t, db.ProjectRepo().Add(ctx, p))
	return p
}

func TestProjectRepoCRUD(t *testing.T) {
	ctx := context.Background()
	db := New(dbtest.Open(t))

	canoe := addProject(t, db, "Cedar canoe", models.ProjectKindHobby)
	site := addProject(t, db, "Portfolio site", models.ProjectKindWork)
	assert.Equal(t, 0, canoe.SortOrder)
	assert.Equal(t, 1, site.SortOrder)

	require.NoError(t, db.ProjectTagRepo().Replace(ctx, canoe.ID, []string{"Woodworking", " woodworking", "boats", ""}))
	require.NoError(t, db.ProjectLinkRepo().Add(ctx, &models.ProjectLink{ProjectID: canoe.ID, Label: "Build log", URL: "https://example.com"}))

	found, err := db.ProjectRepo().FindBySlug(ctx, canoe.Slug)
	require.NoError(t, err)
	assert.Equal(t, []string{"boats", "woodworking"}, found.TagValues())
	require.Len(t, found.Links, 1)
	assert.Equal(t, models.LinkKindOther, found.Links[0].Kind)

	hobbies, err := db.ProjectRepo().FindAll(ctx, ProjectFilter{Kind: models.ProjectKindHobby})
	require.NoError(t, err)
	require.Len(t, hobbies, 1)
	assert.Equal(t, canoe.ID, hobbies[0].ID)

	found.Summary = "Strip-built"
	require.NoError(t, db.ProjectRepo().Update(ctx, found))
	reloaded, err := db.ProjectRepo().FindByID(ctx, canoe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Strip-built", reloaded.Summary)
	assert.Len(t, reloaded.Tags, 2)
}

func TestProjectRepoReorder(t *testing.T) {
	ctx := context.Background()
	db := New(dbtest.Open(t))

	a := addProject(t, db, "A", models.ProjectKindHobby)
	b := addProject(t, db, "B", models.ProjectKindHobby)
	c := addProject(t, db, "C", models.ProjectKindHobby)

	require.NoError(t, db.ProjectRepo().Reorder(ctx, []uuid.UUID{c.ID, a.ID, b.ID}))

	all, err := db.ProjectRepo().FindAll(ctx, ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{all[0].Title, all[1].Title, all[2].Title})

	err = db.ProjectRepo().Reorder(ctx, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProjectRepoDeleteRemovesChildren(t *testing.T) {
	ctx := context.Background()
	db := New(dbtest.Open(t))

	p := addProject(t, db, "Workbench", models.ProjectKindHobby)
	require.NoError(t, db.ProjectTagRepo().Replace(ctx, p.ID, []string{"wood"}))
	require.NoError(t, db.CommentRepo().Add(ctx, &models.Comment{ProjectID: p.ID, AuthorName: "Sam", Body: "Nice"}))
	require.NoError(t, db.CostRepo().AddMaterials(ctx, &models.MaterialItem{ProjectID: p.ID, Name: "Oak", Quantity: 1, UnitCost: 40}))
	receipt := &models.Receipt{ProjectID: &p.ID, Vendor: "Lumber Co", Currency: "USD"}
	require.NoError(t, db.ReceiptRepo().Add(ctx, receipt))

	require.NoError(t, db.ProjectRepo().Delete(ctx, p.ID))

	_, err := db.ProjectRepo().FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	tags, err := db.ProjectTagRepo().FindByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	materials, err := db.CostRepo().FindMaterials(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, materials)

	kept, err := db.ReceiptRepo().FindByID(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.ProjectID)

	assert.ErrorIs(t, db.ProjectRepo().Delete(ctx, p.ID), gorm.ErrRecordNotFound)
}

func TestProjectImageOrdering(t *testing.T) {
	ctx := context.Background()
	db := New(dbtest.Open(t))
	p := addProject(t, db, "Lamp", models.ProjectKindHobby)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		next, err := db.ProjectImageRepo().NextSortOrder(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, i, next)

		img := &models.ProjectImage{ProjectID: p.ID, URL: "u", ObjectKey: "k", SortOrder: next}
		require.NoError(t, db.ProjectImageRepo().Add(ctx, img))
		ids = append(ids, img.ID)
	}

	require.NoError(t, db.ProjectImageRepo().Reorder(ctx, p.ID, []uuid.UUID{ids[2], ids[0], ids[1]}))
	images, err := db.ProjectImageRepo().FindByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, ids[2], images[0].ID)

	other := addProject(t, db, "Other", models.ProjectKindHobby)
	_, err = db.ProjectImageRepo().FindByID(ctx, other.ID, ids[0])
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
