package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"sams_go/services"
	"sams_go/utils"
)

// parseID parses a numeric path parameter.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// respondError maps the service error taxonomy to HTTP statuses:
// not-found 404, duplicate 409, invalid-operation and invalid-argument 400,
// everything else 500.
func respondError(c *fiber.Ctx, err error) error {
	var (
		notFound   *services.NotFoundError
		duplicate  *services.DuplicateError
		invalidOp  *services.InvalidOperationError
		invalidArg *services.InvalidArgumentError
	)

	switch {
	case errors.As(err, &notFound):
		return utils.Error(c, fiber.StatusNotFound, notFound.Message)
	case errors.As(err, &duplicate):
		return utils.Error(c, fiber.StatusConflict, duplicate.Message)
	case errors.As(err, &invalidOp):
		return utils.Error(c, fiber.StatusBadRequest, invalidOp.Message)
	case errors.As(err, &invalidArg):
		return utils.Error(c, fiber.StatusBadRequest, invalidArg.Message)
	default:
		return utils.Error(c, fiber.StatusInternalServerError, "An unexpected error occurred: "+err.Error())
	}
}
