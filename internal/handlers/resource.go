package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/festival/internal/handlers/render"
	"github.com/nkiryanov/festival/internal/logger"
	"github.com/nkiryanov/festival/internal/service/content"
)

// Content service over one document type, see content.BandService
type documentService[T any, In any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, in In) (T, error)
	Update(ctx context.Context, id string, in In) (T, error)
	SetImage(ctx context.Context, id string, upd content.ImageUpdate) (T, error)
	Delete(ctx context.Context, id string) error
}

// CRUD handlers of one document type
// Req is JSON request body, it is converted to service input by toInput
type resource[T any, In any, Req any] struct {
	svc    documentService[T, In]
	logger logger.Logger

	// Document name for messages: "Band", "News article"
	name string
	// Multipart form field with image
	imageField string
	// Max multipart image size
	maxUploadBytes int64

	toInput    func(Req) (In, error)
	toResponse func(T) any

	// Public listing, svc.List if nil
	list func(ctx context.Context) ([]T, error)
	// Documents hidden from public get, all visible if nil
	visible func(T) bool
}

func (res *resource[T, In, Req]) notFound() string {
	return res.name + " not found"
}

func (res *resource[T, In, Req]) responses(items []T) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, res.toResponse(item))
	}
	return out
}

func (res *resource[T, In, Req]) handleList() http.Handler {
	list := res.list
	if list == nil {
		list = res.svc.List
	}
	return res.listWith(list)
}

// List every document, public filters are not applied
func (res *resource[T, In, Req]) handleListAll() http.Handler {
	return res.listWith(res.svc.List)
}

func (res *resource[T, In, Req]) listWith(list func(ctx context.Context) ([]T, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items, err := list(r.Context())
		if err != nil {
			renderError(w, res.logger, err, res.notFound())
			return
		}

		render.JSON(w, res.responses(items))
	})
}

func (res *resource[T, In, Req]) handleGet() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		item, err := res.svc.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			renderError(w, res.logger, err, res.notFound())
			return
		}

		if res.visible != nil && !res.visible(item) {
			render.ServiceError(w, res.notFound(), http.StatusNotFound)
			return
		}

		render.JSON(w, res.toResponse(item))
	})
}

func (res *resource[T, In, Req]) handleCreate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in, ok := res.bind(w, r)
		if !ok {
			return
		}

		item, err := res.svc.Create(r.Context(), in)
		if err != nil {
			renderError(w, res.logger, err, res.notFound())
			return
		}

		render.Created(w, res.toResponse(item), res.name+" created successfully")
	})
}

func (res *resource[T, In, Req]) handleUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in, ok := res.bind(w, r)
		if !ok {
			return
		}

		item, err := res.svc.Update(r.Context(), r.PathValue("id"), in)
		if err != nil {
			renderError(w, res.logger, err, res.notFound())
			return
		}

		render.Success(w, http.StatusOK, res.toResponse(item), res.name+" updated successfully")
	})
}

func (res *resource[T, In, Req]) handleDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := res.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
			renderError(w, res.logger, err, res.notFound())
			return
		}

		render.Success(w, http.StatusOK, nil, res.name+" deleted successfully")
	})
}

// Replace document image with multipart upload
func (res *resource[T, In, Req]) handleUploadImage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upd, err := multipartImage(w, r, res.imageField, res.maxUploadBytes)
		if err != nil {
			renderError(w, res.logger, err, res.notFound())
			return
		}

		item, err := res.svc.SetImage(r.Context(), r.PathValue("id"), upd)
		if err != nil {
			renderError(w, res.logger, err, res.notFound())
			return
		}

		render.Success(w, http.StatusOK, res.toResponse(item), "Image uploaded successfully")
	})
}

// Decode, validate and convert request body. Error response is written if not ok
func (res *resource[T, In, Req]) bind(w http.ResponseWriter, r *http.Request) (In, bool) {
	var in In

	req, err := render.BindAndValidate[Req](w, r)
	if err != nil {
		return in, false
	}

	in, err = res.toInput(req)
	if err != nil {
		renderError(w, res.logger, err, res.notFound())
		return in, false
	}

	return in, true
}
