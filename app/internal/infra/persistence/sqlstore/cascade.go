package sqlstore

import (
	"github.com/go-faster/errors"

	"example.com/storefront/app/internal/domain/deletion"
)

// table is a node of the ownership graph: deleting a row deletes every row
// it owns first.
type table struct {
	name string
	owns []ownership
}

type ownership struct {
	fk    string // column in the owned table pointing at the owner's id
	table *table
}

// Order items are owned by orders, never by products: they must survive a
// product delete.
var ownershipGraph = map[deletion.Kind]*table{
	deletion.KindProduct: {
		name: "products",
		owns: []ownership{
			{fk: "product_id", table: &table{name: "product_features"}},
			{fk: "product_id", table: &table{name: "product_images"}},
			{fk: "product_id", table: &table{name: "cart_items"}},
		},
	},
	deletion.KindCategory: {name: "categories"},
	deletion.KindUser: {
		name: "users",
		owns: []ownership{
			{fk: "user_id", table: &table{
				name: "carts",
				owns: []ownership{{fk: "cart_id", table: &table{name: "cart_items"}}},
			}},
			{fk: "user_id", table: &table{
				name: "orders",
				owns: []ownership{{fk: "order_id", table: &table{name: "order_items"}}},
			}},
		},
	},
}

// planCascade returns the DELETE statements for removing n root rows of kind
// and everything they own, deepest tables first and the root last. Every
// statement takes the n root ids as its arguments.
func planCascade(kind deletion.Kind, n int) ([]string, error) {
	root, ok := ownershipGraph[kind]
	if !ok {
		return nil, errors.Wrapf(deletion.ErrInvalidKind, "%q", kind)
	}
	ids := placeholders(n)

	var stmts []string
	var walk func(t *table, selector string)
	walk = func(t *table, selector string) {
		for _, o := range t.owns {
			childSelector := "SELECT id FROM " + o.table.name + " WHERE " + o.fk + " IN (" + selector + ")"
			walk(o.table, childSelector)
			stmts = append(stmts, "DELETE FROM "+o.table.name+" WHERE "+o.fk+" IN ("+selector+")")
		}
	}
	walk(root, ids)
	stmts = append(stmts, "DELETE FROM "+root.name+" WHERE id IN ("+ids+")")
	return stmts, nil
}
