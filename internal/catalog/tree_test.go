package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stokpos-backend/internal/catalog"
	"stokpos-backend/internal/models"
)

func parent(id uint) *uint { return &id }

func TestResolveCategorySelection_LeafReturnsItself(t *testing.T) {
	// GIVEN: Alt kategorisi olmayan tek kategori
	cats := []models.Category{
		{ID: 1, Name: "İçecekler"},
	}

	// WHEN: Kategori seçilir
	got := catalog.ResolveCategorySelection([]uint{1}, cats)

	// THEN: Sadece kendisi döner
	assert.Equal(t, []uint{1}, got)
}

func TestResolveCategorySelection_IncludesDescendantsRecursively(t *testing.T) {
	// GIVEN: İçecekler > Gazlı > Kola şeklinde üç seviyeli ağaç
	cats := []models.Category{
		{ID: 1, Name: "İçecekler"},
		{ID: 2, Name: "Gazlı", ParentID: parent(1)},
		{ID: 3, Name: "Kola", ParentID: parent(2)},
		{ID: 4, Name: "Atıştırmalık"},
	}

	// WHEN: Sadece kök seçilir
	got := catalog.ResolveCategorySelection([]uint{1}, cats)

	// THEN: Tüm alt kategoriler kapsamdadır, ilgisiz dal değildir
	assert.Equal(t, []uint{1, 2, 3}, got)
}

func TestResolveCategorySelection_OverlappingSelectionDeduplicated(t *testing.T) {
	// GIVEN: Hem ebeveyn hem çocuğu seçilmiş
	cats := []models.Category{
		{ID: 1, Name: "İçecekler"},
		{ID: 2, Name: "Gazlı", ParentID: parent(1)},
	}

	// WHEN
	got := catalog.ResolveCategorySelection([]uint{1, 2, 2, 1}, cats)

	// THEN: Her id sonuçta bir kez geçer
	assert.Equal(t, []uint{1, 2}, got)
}

func TestResolveCategorySelection_CycleTerminates(t *testing.T) {
	// GIVEN: Bozuk veri - iki kategori birbirinin ebeveyni
	cats := []models.Category{
		{ID: 1, Name: "A", ParentID: parent(2)},
		{ID: 2, Name: "B", ParentID: parent(1)},
	}

	// WHEN: Döngüdeki bir kategori seçilir
	got := catalog.ResolveCategorySelection([]uint{1}, cats)

	// THEN: Sonsuz döngüye girmeden her iki id de döner
	assert.Equal(t, []uint{1, 2}, got)
}

func TestResolveCategorySelection_UnknownIDsSkipped(t *testing.T) {
	// GIVEN
	cats := []models.Category{
		{ID: 1, Name: "İçecekler"},
	}

	// WHEN: Var olmayan id'lerle karışık seçim
	got := catalog.ResolveCategorySelection([]uint{1, 99, 1000}, cats)

	// THEN: Bilinmeyenler sessizce atlanır
	assert.Equal(t, []uint{1}, got)

	// Sadece bilinmeyen id'ler boş sonuç verir, hata değil
	got = catalog.ResolveCategorySelection([]uint{99}, cats)
	assert.Empty(t, got)
}

func TestResolveCategorySelection_EmptySelection(t *testing.T) {
	cats := []models.Category{
		{ID: 1, Name: "İçecekler"},
	}

	got := catalog.ResolveCategorySelection(nil, cats)
	assert.Empty(t, got)
}

func TestBuildCategoryTree_NestsChildrenUnderParents(t *testing.T) {
	// GIVEN
	cats := []models.Category{
		{ID: 1, Name: "İçecekler"},
		{ID: 2, Name: "Gazlı", ParentID: parent(1)},
		{ID: 3, Name: "Atıştırmalık"},
	}

	// WHEN
	roots := catalog.BuildCategoryTree(cats)

	// THEN: İki kök, isim sırasıyla; çocuk ebeveynin altında
	require.Len(t, roots, 2)
	assert.Equal(t, "Atıştırmalık", roots[0].Name)
	assert.Equal(t, "İçecekler", roots[1].Name)
	require.Len(t, roots[1].Children, 1)
	assert.Equal(t, "Gazlı", roots[1].Children[0].Name)
}

func TestBuildCategoryTree_OrphanParentTreatedAsRoot(t *testing.T) {
	// GIVEN: Ebeveyni silinmiş kategori
	cats := []models.Category{
		{ID: 2, Name: "Gazlı", ParentID: parent(99)},
	}

	// WHEN
	roots := catalog.BuildCategoryTree(cats)

	// THEN: Kayıp ebeveynli kategori kök olarak görünür
	require.Len(t, roots, 1)
	assert.Equal(t, "Gazlı", roots[0].Name)
}
