package domain

type Product struct {
	ID       int64   `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Price    float64 `json:"price" yaml:"price"` // Menggunakan float untuk kemudahan
	Currency string  `json:"currency" yaml:"currency"`
}

// ProductFields is a product without its identity: the payload of create and edit.
type ProductFields struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

func (p Product) Fields() ProductFields {
	return ProductFields{Name: p.Name, Price: p.Price, Currency: p.Currency}
}

func (f ProductFields) WithID(id int64) Product {
	return Product{ID: id, Name: f.Name, Price: f.Price, Currency: f.Currency}
}

// ProductInput is either CreateProduct or EditProduct.
type ProductInput interface {
	productInput()
}

type CreateProduct struct {
	Fields ProductFields
}

type EditProduct struct {
	ID     int64
	Fields ProductFields
}

func (CreateProduct) productInput() {}
func (EditProduct) productInput()   {}

// ProductForm is the raw, unvalidated input of the create/edit dialog.
type ProductForm struct {
	Name     string `form:"name" json:"name" binding:"required,min=2"`
	Price    string `form:"price" json:"price" binding:"required,numeric,positive"`
	Currency string `form:"currency" json:"currency" binding:"required,currency3"`
}
