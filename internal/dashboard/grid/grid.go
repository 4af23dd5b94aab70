package grid

import (
	"github.com/ridloal/product-dashboard/internal/permission"
	"github.com/ridloal/product-dashboard/internal/product/domain"
)

const DefaultPageSize = 10

// PageSizeOptions are the sizes offered by the page size selector.
var PageSizeOptions = []int{5, 10, 20, 30}

type Column struct {
	Header string `json:"header"`
	Field  string `json:"field"`
}

func Columns() []Column {
	return []Column{
		{Header: "Name", Field: "name"},
		{Header: "Price", Field: "price"},
		{Header: "Currency", Field: "currency"},
		{Header: "Actions", Field: "actions"},
	}
}

type PageRequest struct {
	Page int `form:"page" json:"page"`
	Size int `form:"size" json:"size"`
}

// Row is one product plus the action buttons its actions cell offers.
type Row struct {
	Product   domain.Product `json:"product"`
	CanEdit   bool           `json:"can_edit"`
	CanDelete bool           `json:"can_delete"`
}

type Grid struct {
	Columns         []Column `json:"columns"`
	Rows            []Row    `json:"rows"`
	Page            int      `json:"page"`
	PageSize        int      `json:"page_size"`
	TotalPages      int      `json:"total_pages"`
	TotalRows       int      `json:"total_rows"`
	PageSizeOptions []int    `json:"page_size_options"`
}

func (g Grid) HasPrev() bool { return g.Page > 1 }
func (g Grid) HasNext() bool { return g.Page < g.TotalPages }
func (g Grid) PrevPage() int { return g.Page - 1 }
func (g Grid) NextPage() int { return g.Page + 1 }

// Build pages through products and decides per row which actions are rendered:
// edit iff UPDATE is granted, delete iff DELETE is granted.
func Build(products []domain.Product, perms []permission.Capability, req PageRequest) Grid {
	size := normalizeSize(req.Size)
	total := len(products)
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	canEdit := permission.Has(perms, permission.Update)
	canDelete := permission.Has(perms, permission.Delete)

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	rows := make([]Row, 0, end-start)
	for _, p := range products[start:end] {
		rows = append(rows, Row{Product: p, CanEdit: canEdit, CanDelete: canDelete})
	}

	options := make([]int, len(PageSizeOptions))
	copy(options, PageSizeOptions)
	return Grid{
		Columns:         Columns(),
		Rows:            rows,
		Page:            page,
		PageSize:        size,
		TotalPages:      pages,
		TotalRows:       total,
		PageSizeOptions: options,
	}
}

func normalizeSize(size int) int {
	for _, opt := range PageSizeOptions {
		if opt == size {
			return size
		}
	}
	return DefaultPageSize
}
