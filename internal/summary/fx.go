package summary

import (
	"github.com/quillhq/quill/internal/summary/service"
	"go.uber.org/fx"
)

var Module = fx.Module("summary.service",
	fx.Provide(service.NewService),
)
