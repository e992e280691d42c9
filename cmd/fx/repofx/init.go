package repofx

import (
	"skymate/internal/repository"

	"go.uber.org/fx"
)

var Module = fx.Provide(
	repository.NewUserRepository,
	repository.NewPhotoRepository,
	repository.NewLikeRepository,
	repository.NewSchemaInspector,
)
