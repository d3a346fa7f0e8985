package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/stock"
)

// HeaderIdempotencyKey permite reintentar una escritura de stock sin duplicarla.
const HeaderIdempotencyKey = "Idempotency-Key"

// StockHandler expone el ledger de stock y sus consultas.
type StockHandler struct {
	ledger    *stock.LedgerUseCase
	reporting *stock.ReportingUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *stock.LedgerUseCase, reporting *stock.ReportingUseCase) *StockHandler {
	return &StockHandler{ledger: ledger, reporting: reporting}
}

// Add godoc
// @Summary      Registrar entrada de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId        path    int                     true   "ID del producto"
// @Param        Idempotency-Key  header  string                  false  "Clave de idempotencia"
// @Param        body             body    dto.StockChangeRequest  true   "quantity, reason"
// @Success      200  {object}  dto.StockOperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stock/add/{productId} [post]
func (h *StockHandler) Add(c *fiber.Ctx) error {
	in, err := h.changeInput(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.ledger.AddStock(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(operationResponse("stock agregado", res))
}

// Remove godoc
// @Summary      Registrar salida de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId        path    int                     true   "ID del producto"
// @Param        Idempotency-Key  header  string                  false  "Clave de idempotencia"
// @Param        body             body    dto.StockChangeRequest  true   "quantity, reason"
// @Success      200  {object}  dto.StockOperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stock/remove/{productId} [post]
func (h *StockHandler) Remove(c *fiber.Ctx) error {
	in, err := h.changeInput(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.ledger.RemoveStock(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(operationResponse("stock retirado", res))
}

// Adjust godoc
// @Summary      Ajustar stock a un valor absoluto (ADMIN)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId        path    int                     true   "ID del producto"
// @Param        Idempotency-Key  header  string                  false  "Clave de idempotencia"
// @Param        body             body    dto.StockAdjustRequest  true   "new_stock, reason"
// @Success      200  {object}  dto.StockOperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stock/adjust/{productId} [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return writeError(c, err)
	}
	var body dto.StockAdjustRequest
	if err := bindAndValidate(c, &body); err != nil {
		return writeError(c, err)
	}
	res, err := h.ledger.AdjustStock(c.UserContext(), stock.MovementInput{
		ProductID:      productID,
		Quantity:       *body.NewStock,
		ActorID:        GetUserID(c),
		Reason:         body.Reason,
		IdempotencyKey: c.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(operationResponse("stock ajustado", res))
}

// LowStock godoc
// @Summary      Productos con stock bajo (stock <= mínimo)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ProductResponse
// @Router       /api/stock/low [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.reporting.FindLowStockProducts(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToProductResponses(list))
}

// MovementsByProduct godoc
// @Summary      Historial de movimientos de un producto (más reciente primero)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path   int     true   "ID del producto"
// @Param        type       query  string  false  "INITIAL | IN | OUT | ADJUSTMENT"
// @Param        limit      query  int     false  "Límite (1-500)"  default(50)
// @Success      200  {array}  dto.StockMovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/movements/{productId} [get]
func (h *StockHandler) MovementsByProduct(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return writeError(c, err)
	}
	var q dto.MovementQuery
	if err := bindQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	list, err := h.reporting.FindMovementsByProduct(c.UserContext(), productID, stock.MovementQuery{Type: q.Type, Limit: q.Limit})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToMovementResponses(list))
}

// AllMovements godoc
// @Summary      Movimientos de todos los productos (más reciente primero)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        type   query  string  false  "INITIAL | IN | OUT | ADJUSTMENT"
// @Param        limit  query  int     false  "Límite (1-500)"  default(100)
// @Success      200  {array}  dto.StockMovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) AllMovements(c *fiber.Ctx) error {
	var q dto.MovementQuery
	if err := bindQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	list, err := h.reporting.FindAllMovements(c.UserContext(), stock.MovementQuery{Type: q.Type, Limit: q.Limit})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToMovementResponses(list))
}

// Summary godoc
// @Summary      Resumen del inventario
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockSummaryResponse
// @Router       /api/stock/summary [get]
func (h *StockHandler) Summary(c *fiber.Ctx) error {
	s, err := h.reporting.GetStockSummary(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockSummaryResponse{
		TotalProducts:   s.TotalProducts,
		LowStockCount:   s.LowStockCount,
		OutOfStockCount: s.OutOfStockCount,
		TotalValue:      s.TotalValue,
	})
}

// Verify godoc
// @Summary      Verificar el saldo contra el historial de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path  int  true  "ID del producto"
// @Success      200  {object}  dto.StockVerificationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/verify/{productId} [get]
func (h *StockHandler) Verify(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.reporting.VerifyProduct(c.UserContext(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockVerificationResponse{
		ProductID:     res.ProductID,
		Stock:         res.Stock,
		ReplayedStock: res.ReplayedStock,
		Consistent:    res.Consistent,
		MovementCount: res.MovementCount,
	})
}

func (h *StockHandler) changeInput(c *fiber.Ctx) (stock.MovementInput, error) {
	productID, err := paramID(c, "productId")
	if err != nil {
		return stock.MovementInput{}, err
	}
	var body dto.StockChangeRequest
	if err := bindAndValidate(c, &body); err != nil {
		return stock.MovementInput{}, err
	}
	return stock.MovementInput{
		ProductID:      productID,
		Quantity:       body.Quantity,
		ActorID:        GetUserID(c),
		Reason:         body.Reason,
		IdempotencyKey: c.Get(HeaderIdempotencyKey),
	}, nil
}

func operationResponse(message string, res *stock.MovementResult) dto.StockOperationResponse {
	return dto.StockOperationResponse{
		Message:  message,
		Product:  dto.ToProductResponse(res.Product),
		Movement: dto.ToMovementResponse(res.Movement),
		Replayed: res.Replayed,
	}
}
