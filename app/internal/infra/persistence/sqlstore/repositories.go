package sqlstore

import (
	domcart "example.com/storefront/app/internal/domain/cart"
	domcategory "example.com/storefront/app/internal/domain/category"
	"example.com/storefront/app/internal/domain/deletion"
	domorder "example.com/storefront/app/internal/domain/order"
	domproduct "example.com/storefront/app/internal/domain/product"
	domuser "example.com/storefront/app/internal/domain/user"
)

var (
	_ domuser.Repository     = (*UserRepository)(nil)
	_ domcategory.Repository = (*CategoryRepository)(nil)
	_ domproduct.Repository  = (*ProductRepository)(nil)
	_ domcart.Repository     = (*CartRepository)(nil)
	_ domorder.Repository    = (*OrderRepository)(nil)
	_ deletion.Repository    = (*DeletionRepository)(nil)
)
