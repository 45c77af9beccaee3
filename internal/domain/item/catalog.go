package item

import (
	"fmt"
)

// Catalog 読み取り専用のアイテムカタログ
type Catalog struct {
	items []Definition
	index map[string]int
}

// NewCatalog 定義一覧からカタログを作成。定義の順序は保持される
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		items: make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[d.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, d.ID)
		}
		c.index[d.ID] = len(c.items)
		c.items = append(c.items, d)
	}
	return c, nil
}

// Lookup アイテムIDで定義を取得
func (c *Catalog) Lookup(itemID string) (Definition, error) {
	i, ok := c.index[itemID]
	if !ok {
		return Definition{}, &NotFoundError{ItemID: itemID}
	}
	return c.items[i], nil
}

// All 全ての定義を定義順で返す
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.items))
	copy(out, c.items)
	return out
}

// Wards 防御アイテムの定義を定義順で返す
func (c *Catalog) Wards() []Definition {
	var out []Definition
	for _, d := range c.items {
		if d.IsWard() {
			out = append(out, d)
		}
	}
	return out
}

// MustNewCatalog テスト用ヘルパー
func MustNewCatalog(defs []Definition) *Catalog {
	c, err := NewCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}
