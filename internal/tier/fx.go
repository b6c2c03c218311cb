package tier

import (
	"github.com/quillhq/quill/internal/tier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tier.service",
	fx.Provide(service.NewService),
)
