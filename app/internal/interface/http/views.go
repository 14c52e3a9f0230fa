package http

import (
	"github.com/shopspring/decimal"

	domcart "example.com/storefront/app/internal/domain/cart"
	domcategory "example.com/storefront/app/internal/domain/category"
	"example.com/storefront/app/internal/domain/deletion"
	domorder "example.com/storefront/app/internal/domain/order"
	"example.com/storefront/app/internal/domain/payment"
	domproduct "example.com/storefront/app/internal/domain/product"
	domuser "example.com/storefront/app/internal/domain/user"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(payment.MinorUnitExp)
}

func mapUser(u *domuser.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"name":       u.Name(),
		"email":      u.Email,
		"phone":      u.Phone,
		"address":    u.Address,
		"role_code":  u.RoleCode,
	}
}

func mapCategory(c *domcategory.Category) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
	}
}

func mapProduct(p *domproduct.Product) map[string]any {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       money(p.Price),
		"category_id": p.CategoryID,
		"is_active":   p.IsActive,
		"features":    features,
		"images":      images,
	}
}

func mapCartItem(item *domcart.Item) map[string]any {
	return map[string]any{
		"id":         item.ID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
		"amount":     money(item.Amount),
	}
}

func mapCart(cart *domcart.Cart) map[string]any {
	items := make([]map[string]any, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, map[string]any{
			"id":         item.ID,
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
			"name":       item.ProductName,
			"price":      money(item.ProductPrice),
			"amount":     money(item.Amount),
		})
	}
	return map[string]any{
		"user_id": cart.UserID,
		"items":   items,
		"total":   money(cart.Total()),
	}
}

func mapOrder(o *domorder.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]any{
			"id":         item.ID,
			"product_id": item.ProductID,
			"name":       item.DisplayName(),
			"available":  item.ProductAvailable(),
			"quantity":   item.Quantity,
			"amount":     money(item.Amount),
			"paid":       item.Paid,
		})
	}

	return map[string]any{
		"id":             o.ID,
		"order_code":     o.Code,
		"user_id":        o.UserID,
		"first_name":     o.Payer.FirstName,
		"last_name":      o.Payer.LastName,
		"full_name":      o.FullName(),
		"email":          o.Payer.Email,
		"phone":          o.Payer.Phone,
		"address":        o.Payer.Address,
		"amount":         money(o.Amount),
		"transaction_id": o.TransactionID,
		"status":         o.Status,
		"created_at":     o.CreatedAt,
		"items":          items,
	}
}

func mapOrders(orders []*domorder.Order) []map[string]any {
	resp := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, mapOrder(o))
	}
	return resp
}

func mapReport(r *deletion.Report) map[string]any {
	blocked := r.Blocked
	if blocked == nil {
		blocked = map[int64][]string{}
	}
	missing := r.Missing
	if missing == nil {
		missing = []int64{}
	}
	return map[string]any{
		"kind":      r.Kind,
		"deletable": r.Allowed(),
		"blocked":   blocked,
		"missing":   missing,
	}
}
