package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	poapp "github.com/erp/procurement/internal/application/purchasing"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AttachmentFormField is the multipart field carrying an order attachment
const AttachmentFormField = "file"

// PurchaseOrderHandler handles purchase order API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService      *poapp.PurchaseOrderService
	maxAttachmentSize int64
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler. Uploaded
// attachments larger than maxAttachmentSize bytes are rejected.
func NewPurchaseOrderHandler(orderService *poapp.PurchaseOrderService, maxAttachmentSize int64) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		orderService:      orderService,
		maxAttachmentSize: maxAttachmentSize,
	}
}

// LineItemInput represents a line item in create and add requests.
// Omit variant_id for a manually entered item.
// @Description Purchase order line item
type LineItemInput struct {
	VariantID string          `json:"variant_id" example:"gid://shopify/ProductVariant/4711"`
	Title     string          `json:"title" binding:"required,max=255" example:"Walnut desk organizer"`
	SKU       string          `json:"sku" binding:"max=100" example:"ORG-WAL-01"`
	Quantity  int             `json:"quantity" binding:"gte=0" example:"10"`
	UnitCost  decimal.Decimal `json:"unit_cost" swaggertype:"string" example:"12.50"`
}

// CreatePurchaseOrderRequest represents a request to create a purchase order
// @Description Request body for creating a purchase order with its items
type CreatePurchaseOrderRequest struct {
	OrderNumber    string           `json:"order_number" binding:"required,max=50" example:"PO-1001"`
	VendorName     string           `json:"vendor_name" binding:"required,max=200" example:"Northwind Traders"`
	OrderDate      *time.Time       `json:"order_date" example:"2026-03-01T00:00:00Z"`
	ReadyDate      *time.Time       `json:"ready_date" binding:"required" example:"2026-03-15T00:00:00Z"`
	DueDate        *time.Time       `json:"due_date" example:"2026-04-01T00:00:00Z"`
	ShippingCost   decimal.Decimal  `json:"shipping_cost" swaggertype:"string" example:"10.00"`
	Note           string           `json:"note" binding:"max=5000"`
	Items          []LineItemInput  `json:"items" binding:"required,min=1,dive"`
	InitialPayment *decimal.Decimal `json:"initial_payment" swaggertype:"string" example:"20.00"`
}

// UpdateDetailsRequest is a partial header update; omitted fields keep their value
// @Description Request body for editing purchase order details
type UpdateDetailsRequest struct {
	OrderNumber *string    `json:"order_number" binding:"omitempty,max=50" example:"PO-1001A"`
	VendorName  *string    `json:"vendor_name" binding:"omitempty,max=200" example:"Northwind Traders"`
	Status      *string    `json:"status" binding:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED pending in_progress completed" example:"IN_PROGRESS"`
	OrderDate   *time.Time `json:"order_date" example:"2026-03-01T00:00:00Z"`
	ReadyDate   *time.Time `json:"ready_date" example:"2026-03-20T00:00:00Z"`
}

// UpdateStatusRequest overrides the order status
// @Description Request body for setting a purchase order status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING IN_PROGRESS COMPLETED pending in_progress completed" example:"COMPLETED"`
}

// UpdateShippingRequest sets the shipping cost
// @Description Request body for setting the shipping cost
type UpdateShippingRequest struct {
	ShippingCost decimal.Decimal `json:"shipping_cost" swaggertype:"string" example:"10.00"`
}

// UpdateDueDateRequest sets or clears the due date. A null due_date clears it.
// @Description Request body for setting the due date
type UpdateDueDateRequest struct {
	DueDate *time.Time `json:"due_date" example:"2026-04-01T00:00:00Z"`
}

// UpdateNoteRequest replaces the order note
// @Description Request body for replacing the note
type UpdateNoteRequest struct {
	Note string `json:"note" binding:"max=5000" example:"Vendor confirmed ship date by phone"`
}

// UpdateItemRequest sets a line item's quantity and unit cost
// @Description Request body for editing a line item
type UpdateItemRequest struct {
	Quantity int             `json:"quantity" binding:"gte=0" example:"4"`
	UnitCost decimal.Decimal `json:"unit_cost" swaggertype:"string" example:"11.75"`
}

// ReceiveItemRequest records units arriving against a line item
// @Description Request body for receiving units
type ReceiveItemRequest struct {
	Quantity int `json:"quantity" binding:"required" example:"3"`
}

// RecordPaymentRequest records a payment to the vendor
// @Description Request body for recording a payment
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"25.00"`
	PaidAt *time.Time      `json:"paid_at" example:"2026-03-05T00:00:00Z"`
}

// UpdatePaymentDateRequest changes when a payment was made
// @Description Request body for changing a payment date
type UpdatePaymentDateRequest struct {
	PaidAt *time.Time `json:"paid_at" binding:"required" example:"2026-03-06T00:00:00Z"`
}

// ListPurchaseOrdersQuery holds the list query parameters
type ListPurchaseOrdersQuery struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED pending in_progress completed"`
}

func toAppItems(items []LineItemInput) []poapp.LineItemInput {
	result := make([]poapp.LineItemInput, len(items))
	for i, item := range items {
		result[i] = toAppItem(item)
	}
	return result
}

func toAppItem(item LineItemInput) poapp.LineItemInput {
	return poapp.LineItemInput{
		VariantID: item.VariantID,
		Title:     item.Title,
		SKU:       item.SKU,
		Quantity:  item.Quantity,
		UnitCost:  item.UnitCost,
	}
}

// Create godoc
// @ID           createPurchaseOrder
// @Summary      Create a purchase order
// @Description  Create a purchase order with its line items and an optional initial payment
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        request body CreatePurchaseOrderRequest true "Purchase order"
// @Success      201 {object} dto.Response{data=poapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	appReq := poapp.CreatePurchaseOrderRequest{
		OrderNumber:  req.OrderNumber,
		VendorName:   req.VendorName,
		OrderDate:    req.OrderDate,
		ReadyDate:    req.ReadyDate,
		DueDate:      req.DueDate,
		ShippingCost: req.ShippingCost,
		Note:         req.Note,
		Items:        toAppItems(req.Items),
	}
	if req.InitialPayment != nil {
		appReq.InitialPayment = *req.InitialPayment
	}

	order, err := h.orderService.Create(c.Request.Context(), tenantID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// GetByID godoc
// @ID           getPurchaseOrderById
// @Summary      Get a purchase order
// @Description  Returns the order with items, payments and totals recomputed from stored rows
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=poapp.PurchaseOrderResponse}
// @Failure      404 {object} dto.Response
// @Router       /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// List godoc
// @ID           listPurchaseOrders
// @Summary      List purchase orders
// @Description  Newest first, optionally filtered by status and a search over PO number and vendor
// @Tags         purchase-orders
// @Produce      json
// @Param        search query string false "PO number or vendor"
// @Param        status query string false "Order status" Enums(PENDING, IN_PROGRESS, COMPLETED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]poapp.PurchaseOrderListItemResponse}
// @Failure      400 {object} dto.Response
// @Router       /purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query ListPurchaseOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	query.Normalize()

	page, err := h.orderService.List(c.Request.Context(), tenantID, poapp.ListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		Status:   query.Status,
		Search:   query.Search,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Orders, page.TotalCount, page.CurrentPage, page.PageSize)
}

// UpdateDetails godoc
// @ID           updatePurchaseOrderDetails
// @Summary      Edit purchase order details
// @Description  Updates PO number, vendor, status and dates; items and payments are untouched
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body UpdateDetailsRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=poapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /purchase-orders/{id} [put]
func (h *PurchaseOrderHandler) UpdateDetails(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.UpdateDetails(c.Request.Context(), tenantID, orderID, poapp.UpdateDetailsRequest{
		OrderNumber: req.OrderNumber,
		VendorName:  req.VendorName,
		Status:      req.Status,
		OrderDate:   req.OrderDate,
		ReadyDate:   req.ReadyDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// UpdateStatus godoc
// @ID           updatePurchaseOrderStatus
// @Summary      Set purchase order status
// @Description  Manual override; the next payment or item change re-derives the status
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body UpdateStatusRequest true "New status"
// @Success      200 {object} dto.Response{data=poapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /purchase-orders/{id}/status [put]
func (h *PurchaseOrderHandler) UpdateStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), tenantID, orderID, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// UpdateShipping godoc
// @ID           updatePurchaseOrderShipping
// @Summary      Set shipping cost
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body UpdateShippingRequest true "Shipping cost"
// @Success      200 {object} dto.Response{data=poapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /purchase-orders/{id}/shipping [put]
func (h *PurchaseOrderHandler) UpdateShipping(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req UpdateShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.UpdateShipping(c.Request.Context(), tenantID, orderID, req.ShippingCost)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// UpdateDueDate godoc
// @ID           updatePurchaseOrderDueDate
// @Summary      Set or clear the due date
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body UpdateDueDateRequest true "Due date, null to clear"
// @Success      200 {object} dto.Response{data=poapp.PurchaseOrderResponse}
// @Failure      404 {object} dto.Response
// @Router       /purchase-orders/{id}/due-date [put]
func (h *PurchaseOrderHandler) UpdateDueDate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req UpdateDueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.UpdateDueDate(c.Request.Context(), tenantID, orderID, req.DueDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// UpdateNote godoc
// @ID           updatePurchaseOrderNote
// @Summary      Replace the note
// @Description  Replaces the note and keeps the current attachment
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body UpdateNoteRequest true "Note"
// @Success      200 {object} dto.Response{data=poapp.PurchaseOrderResponse}
// @Failure      404 {object} dto.Response
// @Router       /purchase-orders/{id}/note [put]
func (h *PurchaseOrderHandler) UpdateNote(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.UpdateNote(c.Request.Context(), tenantID, orderID, req.Note, nil)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// UploadAttachment godoc
// @ID           uploadPurchaseOrderAttachment
// @Summary      Upload an attachment
// @Description  Stores the file and records its reference on the order together with the note
// @Tags         purchase-orders
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        file formData file true "Attachment"
// @Param        note formData string false "Note"
// @Success      200 {object} dto.Response{data=poapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      413 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /purchase-orders/{id}/attachment [post]
func (h *PurchaseOrderHandler) UploadAttachment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	fileHeader, err := c.FormFile(AttachmentFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Attachment is too large")
			return
		}
		h.BadRequest(c, "Attachment file is required")
		return
	}
	if h.maxAttachmentSize > 0 && fileHeader.Size > h.maxAttachmentSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Attachment is too large")
		return
	}

	upload, err := readUpload(fileHeader)
	if err != nil {
		h.BadRequest(c, "Failed to read attachment")
		return
	}

	order, err := h.orderService.UpdateNote(c.Request.Context(), tenantID, orderID, c.PostForm("note"), upload)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

func readUpload(fileHeader *multipart.FileHeader) (*poapp.AttachmentUpload, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return &poapp.AttachmentUpload{
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

// GetAttachmentURL godoc
// @ID           getPurchaseOrderAttachmentUrl
// @Summary      Get an attachment download link
// @Description  Returns a time-limited URL for the order's attachment
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=poapp.AttachmentURLResponse}
// @Failure      404 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /purchase-orders/{id}/attachment-url [get]
func (h *PurchaseOrderHandler) GetAttachmentURL(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	link, err := h.orderService.GetAttachmentURL(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, link)
}

// Delete godoc
// @ID           deletePurchaseOrder
// @Summary      Delete a purchase order
// @Description  Removes the order together with its items and payments
// @Tags         purchase-orders
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response
// @Router       /purchase-orders/{id} [delete]
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), tenantID, orderID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AddItem godoc
// @ID           addPurchaseOrderItem
// @Summary      Add a line item
// @Description  Adds a catalog or manual item; totals are re-summed and status re-derived
// @Tags         purchase-order-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body LineItemInput true "Line item"
// @Success      201 {object} dto.Response{data=poapp.LineItemResult}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /purchase-orders/{id}/items [post]
func (h *PurchaseOrderHandler) AddItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req LineItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.orderService.AddItem(c.Request.Context(), tenantID, orderID, toAppItem(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// UpdateItem godoc
// @ID           updatePurchaseOrderItem
// @Summary      Edit a line item
// @Tags         purchase-order-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        item_id path string true "Line item ID" format(uuid)
// @Param        request body UpdateItemRequest true "Quantity and unit cost"
// @Success      200 {object} dto.Response{data=poapp.LineItemResult}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /purchase-orders/{id}/items/{item_id} [put]
func (h *PurchaseOrderHandler) UpdateItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	itemID, err := parseUUIDParam(c, "item_id")
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.orderService.UpdateItem(c.Request.Context(), tenantID, orderID, itemID, poapp.UpdateItemRequest{
		Quantity: req.Quantity,
		UnitCost: req.UnitCost,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RemoveItem godoc
// @ID           removePurchaseOrderItem
// @Summary      Remove a line item
// @Tags         purchase-order-items
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        item_id path string true "Line item ID" format(uuid)
// @Success      200 {object} dto.Response{data=poapp.LineItemResult}
// @Failure      404 {object} dto.Response
// @Router       /purchase-orders/{id}/items/{item_id} [delete]
func (h *PurchaseOrderHandler) RemoveItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	itemID, err := parseUUIDParam(c, "item_id")
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	result, err := h.orderService.RemoveItem(c.Request.Context(), tenantID, orderID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ReceiveItem godoc
// @ID           receivePurchaseOrderItem
// @Summary      Receive units of a line item
// @Description  Adds to the received quantity; receiving more than is outstanding fails with 422
// @Tags         purchase-order-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        item_id path string true "Line item ID" format(uuid)
// @Param        request body ReceiveItemRequest true "Units received"
// @Success      200 {object} dto.Response{data=poapp.LineItemResult}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /purchase-orders/{id}/items/{item_id}/receive [post]
func (h *PurchaseOrderHandler) ReceiveItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	itemID, err := parseUUIDParam(c, "item_id")
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req ReceiveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.orderService.ReceiveItem(c.Request.Context(), tenantID, orderID, itemID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RecordPayment godoc
// @ID           recordPurchaseOrderPayment
// @Summary      Record a payment
// @Description  Appends a payment and re-derives the status. Send Idempotency-Key to guard against double submission.
// @Tags         purchase-order-payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        Idempotency-Key header string false "Client generated submission key"
// @Param        request body RecordPaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=poapp.PaymentResult}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /purchase-orders/{id}/payments [post]
func (h *PurchaseOrderHandler) RecordPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.orderService.RecordPayment(c.Request.Context(), tenantID, orderID, poapp.RecordPaymentRequest{
		Amount: req.Amount,
		PaidAt: req.PaidAt,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// UpdatePaymentDate godoc
// @ID           updatePurchaseOrderPaymentDate
// @Summary      Change a payment date
// @Tags         purchase-order-payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        payment_id path string true "Payment ID" format(uuid)
// @Param        request body UpdatePaymentDateRequest true "Payment date"
// @Success      200 {object} dto.Response{data=poapp.PaymentResult}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /purchase-orders/{id}/payments/{payment_id}/date [put]
func (h *PurchaseOrderHandler) UpdatePaymentDate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	paymentID, err := parseUUIDParam(c, "payment_id")
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req UpdatePaymentDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.orderService.UpdatePaymentDate(c.Request.Context(), tenantID, orderID, paymentID, *req.PaidAt)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
