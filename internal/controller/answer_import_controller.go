package controller

import (
	"github.com/gofiber/fiber/v2"

	"qbank-admin/internal/dto"
	"qbank-admin/internal/pkg/serverutils"
	"qbank-admin/internal/service"
	"qbank-admin/pkg/staging"
)

type IAnswerImportController interface {
	RegisterRoutes(r fiber.Router)
	Preview(ctx *fiber.Ctx) error
	Commit(ctx *fiber.Ctx) error
}

type answerImportController struct {
	service service.IAnswerImportService
}

func NewAnswerImportController(service service.IAnswerImportService) IAnswerImportController {
	return &answerImportController{service: service}
}

func (c *answerImportController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/answers")
	h.Post("/preview", c.Preview)
	h.Post("/commit", c.Commit)
}

func (c *answerImportController) Preview(ctx *fiber.Ctx) error {
	var req dto.PreviewAnswersRequest
	if err := ctx.BodyParser(&req); err != nil {
		return staging.NewValidationError("invalid form: " + err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	doc, err := readDocument(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Preview(ctx.UserContext(), &req, doc)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Answer document parsed", res))
}

func (c *answerImportController) Commit(ctx *fiber.Ctx) error {
	var req staging.AnswerCommitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return staging.NewValidationError("invalid body: " + err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Commit(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Answer commit processed", res))
}
