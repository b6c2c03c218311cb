package content

import (
	"github.com/quillhq/quill/internal/content/service"
	"go.uber.org/fx"
)

var Module = fx.Module("content.service",
	fx.Provide(
		service.NewCounter,
		service.NewService,
	),
)
