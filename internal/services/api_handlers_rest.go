package services

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"photoedit/internal/editor"
	"photoedit/types"
	"photoedit/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (a *Api) Index() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, ed := a.session(ctx)
		return ctx.Render("index", newPageData(id, a.backend.BaseURL(), ed.Snapshot()))
	}
}

func (a *Api) State() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		_, ed := a.session(ctx)
		return ctx.Status(fiber.StatusOK).JSON(editorState(ed.Snapshot()))
	}
}

// SelectImage takes the first "image" part of a picker or drop upload. A
// request without one leaves the editor untouched.
func (a *Api) SelectImage() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		_, ed := a.session(ctx)

		files, err := uploadedFiles(ctx, "image")
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
				Error:   err.Error(),
				Message: "invalid upload",
			})
		}

		// the page sends its latest prompt along with the file
		if prompt, ok := formField(ctx, "prompt"); ok {
			ed.SetPrompt(prompt)
		}
		if ed.SelectFiles(files) {
			HttpLogger("select", ctx).Info("image selected", "name", files[0].Name, "bytes", len(files[0].Data))
		}
		return a.respond(ctx, fiber.StatusOK, editorState(ed.Snapshot()))
	}
}

func (a *Api) SetPrompt() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		_, ed := a.session(ctx)
		ed.SetPrompt(ctx.FormValue("prompt"))
		return a.respond(ctx, fiber.StatusOK, editorState(ed.Snapshot()))
	}
}

// StartEdit validates the session's editor and hands the attempt to the
// runner. The outcome arrives later over the websocket and in /state.
func (a *Api) StartEdit() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, ed := a.session(ctx)
		logger := HttpLogger("edit", ctx)

		if prompt, ok := formField(ctx, "prompt"); ok {
			ed.SetPrompt(prompt)
		}

		attempt, err := ed.Begin()
		var ve *editor.ValidationError
		switch {
		case errors.As(err, &ve):
			a.metrics.rejected("validation")
			logger.Debug("edit rejected", "reason", ve.Reason)
			return a.fail(ctx, fiber.StatusUnprocessableEntity, err, ve.Message)
		case errors.Is(err, editor.ErrInFlight):
			return a.fail(ctx, fiber.StatusConflict, err, "an edit is already running")
		case err != nil:
			return a.fail(ctx, fiber.StatusInternalServerError, err, "failed to start edit")
		}

		jobID := uuid.NewString()
		if err := a.runner.Enqueue(EditJob{
			JobID:     jobID,
			SessionID: id,
			Attempt:   attempt,
		}); err != nil {
			attempt.Abort(err)
			a.metrics.rejected("aborted")

			code := fiber.StatusServiceUnavailable
			if errors.Is(err, ErrEditQueueFull) {
				code = fiber.StatusTooManyRequests
			}
			logger.Warn("edit not queued", "err", err)
			return a.fail(ctx, code, err, "failed to enqueue edit")
		}

		logger.Info("edit queued", "jobId", jobID)
		if !wantsJSON(ctx) {
			return ctx.Redirect("/", fiber.StatusSeeOther)
		}
		return ctx.Status(fiber.StatusAccepted).JSON(types.EditAcceptedResponse{
			JobID: jobID,
			State: editorState(ed.Snapshot()),
		})
	}
}

// Preview serves a session's own selected image. Refs of other sessions and
// revoked refs are not found; non-image uploads are never served as markup.
func (a *Api) Preview() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		p, ok := a.ownedPreview(ctx.Cookies(sessionCookie), ctx.Params("ref"))
		if !ok {
			return ctx.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
				Error:   "preview not found",
				Message: "the preview was replaced or has expired",
			})
		}

		ctx.Set(fiber.HeaderContentType, previewContentType(p.ContentType))
		ctx.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		ctx.Set(fiber.HeaderCacheControl, "private, max-age=3600")
		return ctx.Status(fiber.StatusOK).Send(p.Data)
	}
}

func (a *Api) ownedPreview(sessionID, ref string) (editor.Preview, bool) {
	ed, ok := a.sessions.Get(sessionID)
	if !ok || ref == "" || ed.Snapshot().PreviewRef != ref {
		return editor.Preview{}, false
	}
	return a.previews.Lookup(ref)
}

func previewContentType(contentType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if strings.HasPrefix(mediaType, "image/") && mediaType != "image/svg+xml" {
		return mediaType
	}
	return fiber.MIMEOctetStream
}

func (a *Api) session(ctx *fiber.Ctx) (string, *editor.Editor) {
	current := ctx.Cookies(sessionCookie)
	id, ed := a.sessions.Acquire(current)
	ctx.Locals(sessionKey, id)
	if id != current {
		ctx.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return id, ed
}

// respond answers API clients with body and browsers with a redirect back to
// the page, which renders the same state.
func (a *Api) respond(ctx *fiber.Ctx, status int, body any) error {
	if wantsJSON(ctx) {
		return ctx.Status(status).JSON(body)
	}
	return ctx.Redirect("/", fiber.StatusSeeOther)
}

func (a *Api) fail(ctx *fiber.Ctx, status int, err error, message string) error {
	return a.respond(ctx, status, types.ErrorResponse{
		Error:   err.Error(),
		Message: message,
	})
}

func wantsJSON(ctx *fiber.Ctx) bool {
	return strings.Contains(ctx.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

func isMultipart(ctx *fiber.Ctx) bool {
	return strings.HasPrefix(string(ctx.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

func formField(ctx *fiber.Ctx, name string) (string, bool) {
	if isMultipart(ctx) {
		form, err := ctx.MultipartForm()
		if err != nil {
			return "", false
		}
		if v, ok := form.Value[name]; ok && len(v) > 0 {
			return v[0], true
		}
		return "", false
	}

	args := ctx.Request().PostArgs()
	if !args.Has(name) {
		return "", false
	}
	return string(args.Peek(name)), true
}

// uploadedFiles reads only the first file of field; editors take one file
// per selection.
func uploadedFiles(ctx *fiber.Ctx, field string) ([]editor.File, error) {
	if !isMultipart(ctx) {
		return nil, nil
	}
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}

	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil
	}

	fh := headers[0]
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}

	return []editor.File{{
		Name:        utils.SanitizeFilename(fh.Filename, "image"),
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}}, nil
}
