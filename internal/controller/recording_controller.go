package controller

import (
	"github.com/capitalrow/MinaProd-sub007/internal/dto"
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/serverutils"
	"github.com/capitalrow/MinaProd-sub007/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IRecordingController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	SubmitChunk(ctx *fiber.Ctx) error
	Stop(ctx *fiber.Ctx) error
	Abort(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Transcript(ctx *fiber.Ctx) error
	Results(ctx *fiber.Ctx) error
	Rerun(ctx *fiber.Ctx) error
	SemanticSearch(ctx *fiber.Ctx) error
}

type recordingController struct {
	sessionService    service.ISessionService
	ingestService     service.IIngestService
	pipelineService   service.IPipelineService
	transcriptService service.ITranscriptService
}

func NewRecordingController(
	sessionService service.ISessionService,
	ingestService service.IIngestService,
	pipelineService service.IPipelineService,
	transcriptService service.ITranscriptService,
) IRecordingController {
	return &recordingController{
		sessionService:    sessionService,
		ingestService:     ingestService,
		pipelineService:   pipelineService,
		transcriptService: transcriptService,
	}
}

func (c *recordingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/recording/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("search", c.SemanticSearch)
	h.Post("", c.Start)
	h.Post(":id/chunks", c.SubmitChunk)
	h.Post(":id/stop", c.Stop)
	h.Post(":id/abort", c.Abort)
	h.Get(":id", c.Show)
	h.Get(":id/transcript", c.Transcript)
	h.Get(":id/results", c.Results)
	h.Post(":id/results/rerun", c.Rerun)
}

func (c *recordingController) Start(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.StartSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}

	res, err := c.sessionService.Start(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create recording session", res))
}

func (c *recordingController) SubmitChunk(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil || id == uuid.Nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session id"))
	}

	var req dto.SubmitChunkRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ack, err := c.ingestService.SubmitChunk(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	if ack == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Session not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit chunk", ack))
}

func (c *recordingController) Stop(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	var req dto.StopSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}
	req.Id = id

	res, err := c.pipelineService.Stop(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Session not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success stop recording session", res))
}

func (c *recordingController) Abort(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	var req dto.AbortSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}
	req.Id = id

	res, err := c.pipelineService.Abort(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Session not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success abort recording session", res))
}

func (c *recordingController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.sessionService.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Session not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show recording session", res))
}

func (c *recordingController) Transcript(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))
	includeInterim := ctx.QueryBool("interim", false)

	res, err := c.transcriptService.GetTranscript(ctx.Context(), userId, id, includeInterim)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Session not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show transcript", res))
}

func (c *recordingController) Results(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.transcriptService.GetResults(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Session not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show enrichment results", res))
}

func (c *recordingController) Rerun(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	if err := c.pipelineService.Rerun(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Post-processing re-run dispatched", nil))
}

func (c *recordingController) SemanticSearch(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	q := ctx.Query("q", "")
	if q == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Query parameter q is required"))
	}
	limit := ctx.QueryInt("limit", 10)

	res, err := c.transcriptService.SemanticSearch(ctx.Context(), userId, q, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success semantic search transcripts", res))
}
