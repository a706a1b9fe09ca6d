package controller

import (
	"github.com/gofiber/fiber/v2"

	"qbank-admin/internal/dto"
	"qbank-admin/internal/pkg/serverutils"
	"qbank-admin/internal/service"
	"qbank-admin/pkg/staging"
)

type IFileController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type fileController struct {
	service service.IFileService
}

func NewFileController(service service.IFileService) IFileController {
	return &fileController{service: service}
}

func (c *fileController) RegisterRoutes(r fiber.Router) {
	r.Get("/files", c.List)
}

func (c *fileController) List(ctx *fiber.Ctx) error {
	var req dto.ListFilesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return staging.NewValidationError("invalid query: " + err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get files", res))
}
