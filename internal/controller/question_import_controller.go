package controller

import (
	"github.com/gofiber/fiber/v2"

	"qbank-admin/internal/dto"
	"qbank-admin/internal/pkg/serverutils"
	"qbank-admin/internal/service"
	"qbank-admin/pkg/staging"
)

type IQuestionImportController interface {
	RegisterRoutes(r fiber.Router)
	Preview(ctx *fiber.Ctx) error
	Image(ctx *fiber.Ctx) error
	Commit(ctx *fiber.Ctx) error
}

type questionImportController struct {
	service service.IQuestionImportService
}

func NewQuestionImportController(service service.IQuestionImportService) IQuestionImportController {
	return &questionImportController{service: service}
}

func (c *questionImportController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/questions")
	h.Post("/preview", c.Preview)
	h.Get("/image/:sessionId/:index", c.Image)
	h.Post("/commit", c.Commit)
}

func (c *questionImportController) Preview(ctx *fiber.Ctx) error {
	var req dto.PreviewQuestionsRequest
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
	return ctx.JSON(serverutils.SuccessResponse("Question document parsed", res))
}

func (c *questionImportController) Image(ctx *fiber.Ctx) error {
	index, err := ctx.ParamsInt("index")
	if err != nil || index < 0 {
		return staging.NewValidationError("invalid image index", staging.FieldError{Field: "index", Error: ctx.Params("index")})
	}

	img, err := c.service.Image(ctx.UserContext(), ctx.Params("sessionId"), index)
	if err != nil {
		return err
	}
	ctx.Set(fiber.HeaderContentType, img.ContentType)
	ctx.Set(fiber.HeaderCacheControl, "private, max-age=60")
	return ctx.Send(img.Data)
}

func (c *questionImportController) Commit(ctx *fiber.Ctx) error {
	var query dto.CommitQuestionsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return staging.NewValidationError("invalid query: " + err.Error())
	}
	var req staging.QuestionCommitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return staging.NewValidationError("invalid body: " + err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Commit(ctx.UserContext(), &req, query.SaveCopy)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Question commit processed", res))
}
