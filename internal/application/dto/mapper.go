package dto

import "github.com/jhoicas/stock-api/internal/domain/entity"

// ToProductResponse convierte la entidad a su representación HTTP.
func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		LowStock:    p.IsLowStock(),
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProductResponses convierte una lista; nunca devuelve nil.
func ToProductResponses(list []*entity.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, ToProductResponse(p))
	}
	return out
}

// ToMovementResponse convierte un movimiento. Producto o usuario borrados se exponen como null.
func ToMovementResponse(m *entity.StockMovement) StockMovementResponse {
	r := StockMovementResponse{
		ID:              m.ID,
		ProductName:     m.ProductName,
		ProductCategory: m.ProductCategory,
		Type:            m.Type.String(),
		Quantity:        m.Quantity,
		PreviousStock:   m.PreviousStock,
		NewStock:        m.NewStock,
		UserName:        m.UserName,
		UserEmail:       m.UserEmail,
		Reason:          m.Reason,
		CreatedAt:       m.CreatedAt,
	}
	if m.ProductID > 0 {
		id := m.ProductID
		r.ProductID = &id
	}
	if m.UserID > 0 {
		id := m.UserID
		r.UserID = &id
	}
	return r
}

// ToMovementResponses convierte una lista; nunca devuelve nil.
func ToMovementResponses(list []*entity.StockMovement) []StockMovementResponse {
	out := make([]StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovementResponse(m))
	}
	return out
}

// ToUserResponse convierte el usuario sin exponer el hash.
func ToUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		ImageURL:  u.ImageURL,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
