package controllers

import (
	"github.com/gofiber/fiber/v2"

	"sams_go/middleware"
	"sams_go/services"
	"sams_go/utils"
)

type BatchController struct {
	Service *services.BatchService
	Reports *services.ReportService
}

func NewBatchController(service *services.BatchService, reports *services.ReportService) *BatchController {
	return &BatchController{Service: service, Reports: reports}
}

// CreateBatch creates a new batch
func (bc *BatchController) CreateBatch(c *fiber.Ctx) error {
	var req services.BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.ValidateStruct(&req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	batch, err := bc.Service.CreateBatch(&req)
	if err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "batches", batch.BatchID, req)
	return utils.SuccessStatus(c, fiber.StatusCreated, "Batch created successfully", batch)
}

// GetBatch returns a specific batch by ID
func (bc *BatchController) GetBatch(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid batch ID")
	}

	batch, err := bc.Service.GetBatchByID(id)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Batch retrieved successfully", batch)
}

// GetBatches returns all batches
func (bc *BatchController) GetBatches(c *fiber.Ctx) error {
	batches, err := bc.Service.GetAllBatches()
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Batches retrieved successfully", batches)
}

// UpdateBatch updates an existing batch
func (bc *BatchController) UpdateBatch(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid batch ID")
	}

	var req services.BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.ValidateStruct(&req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	batch, err := bc.Service.UpdateBatch(id, &req)
	if err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "batches", id, req)
	return utils.Success(c, "Batch updated successfully", batch)
}

// DeleteBatch deletes an empty batch
func (bc *BatchController) DeleteBatch(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid batch ID")
	}

	if err := bc.Service.DeleteBatch(id); err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "DELETE", "batches", id, nil)
	return utils.Success(c, "Batch deleted successfully", nil)
}

// UpdateBatchStatus applies a status transition
func (bc *BatchController) UpdateBatchStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid batch ID")
	}

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.ValidateStruct(&req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	batch, err := bc.Service.UpdateStatus(id, req.Status)
	if err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "batches", id, req)
	return utils.Success(c, "Batch status updated successfully", batch)
}

// GetActiveBatches returns batches with status ACTIVE
func (bc *BatchController) GetActiveBatches(c *fiber.Ctx) error {
	batches, err := bc.Service.GetActiveBatches()
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Active batches retrieved successfully", batches)
}

// GetAvailableBatches returns active batches with free slots
func (bc *BatchController) GetAvailableBatches(c *fiber.Ctx) error {
	batches, err := bc.Service.GetBatchesWithAvailableSlots()
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Batches with available slots retrieved successfully", batches)
}

// SearchBatches searches batches by name
func (bc *BatchController) SearchBatches(c *fiber.Ctx) error {
	name := c.Query("name")
	batches, err := bc.Service.SearchByName(name)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Search completed successfully", batches)
}

// GetBatchSummary returns attendance statistics for a batch
func (bc *BatchController) GetBatchSummary(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid batch ID")
	}

	summary, err := bc.Service.GetBatchSummary(id)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Batch summary generated successfully", summary)
}

// ExportBatchReport streams the batch attendance sheet as an Excel workbook
func (bc *BatchController) ExportBatchReport(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid batch ID")
	}

	name, content, err := bc.Reports.BatchAttendanceReport(id)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(content)
}
