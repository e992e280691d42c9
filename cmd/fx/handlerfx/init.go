package handlerfx

import (
	"skymate/internal/api/handler"
	"skymate/internal/api/router"

	"go.uber.org/fx"
)

var Module = fx.Provide(
	handler.NewAuthHandler,
	handler.NewPhotoHandler,
	handler.NewLikeHandler,
	handler.NewSearchHandler,
	provideHandlers,
)

func provideHandlers(
	auth *handler.AuthHandler,
	photo *handler.PhotoHandler,
	like *handler.LikeHandler,
	search *handler.SearchHandler,
) router.Handlers {
	return router.Handlers{Auth: auth, Photo: photo, Like: like, Search: search}
}
