package catalog

import (
	"sort"

	"stokpos-backend/internal/models"
)

// CategoryNode: Hiyerarşik kategori ağacı düğümü
type CategoryNode struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Children []*CategoryNode `json:"children"`
}

// BuildCategoryTree: Düz kategori listesinden ağaç kurar.
// Parent'ı listede olmayan (veya parent'ı silinmiş) kategoriler kök sayılır.
func BuildCategoryTree(categories []models.Category) []*CategoryNode {
	nodes := make(map[uint]*CategoryNode, len(categories))
	for _, cat := range categories {
		nodes[cat.ID] = &CategoryNode{
			ID:       cat.ID,
			Name:     cat.Name,
			Children: make([]*CategoryNode, 0),
		}
	}

	roots := make([]*CategoryNode, 0)
	for _, cat := range categories {
		node := nodes[cat.ID]
		if cat.ParentID != nil {
			if parent, ok := nodes[*cat.ParentID]; ok && *cat.ParentID != cat.ID {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*CategoryNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// ResolveCategorySelection: Seçilen kategori id'lerini, tüm alt kategorileri
// (transitif) dahil edecek şekilde düz bir id kümesine açar.
//
// - Aynı alt kategoriye iki seçili atadan ulaşılsa bile sonuçta bir kez yer alır.
// - Listede olmayan id'ler sessizce atlanır (kategori ağacı yüklenmemişse
//   seçim boş sonuç verir, hata değil).
// - Ziyaret kümesi sayesinde veride döngü olsa bile traversal sonlanır;
//   backend verisi ağaç varsayar ama bozuk parent_id zinciri sunucuyu kilitlememeli.
func ResolveCategorySelection(selected []uint, categories []models.Category) []uint {
	childrenOf := make(map[uint][]uint, len(categories))
	known := make(map[uint]bool, len(categories))
	for _, cat := range categories {
		known[cat.ID] = true
		if cat.ParentID != nil {
			childrenOf[*cat.ParentID] = append(childrenOf[*cat.ParentID], cat.ID)
		}
	}

	visited := make(map[uint]bool)
	var walk func(id uint)
	walk = func(id uint) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, child := range childrenOf[id] {
			walk(child)
		}
	}

	for _, id := range selected {
		if known[id] {
			walk(id)
		}
	}

	result := make([]uint, 0, len(visited))
	for id := range visited {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
