package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/quillhq/quill/internal/admission"
	"github.com/quillhq/quill/internal/clock"
	"github.com/quillhq/quill/internal/config"
	"github.com/quillhq/quill/internal/content"
	"github.com/quillhq/quill/internal/lock"
	"github.com/quillhq/quill/internal/logger"
	"github.com/quillhq/quill/internal/migration"
	"github.com/quillhq/quill/internal/notification"
	"github.com/quillhq/quill/internal/notification/provider"
	"github.com/quillhq/quill/internal/observability/metrics"
	"github.com/quillhq/quill/internal/scheduler"
	"github.com/quillhq/quill/internal/server"
	"github.com/quillhq/quill/internal/summary"
	"github.com/quillhq/quill/internal/tier"
	"github.com/quillhq/quill/internal/usage"
	"github.com/quillhq/quill/internal/user"
	"github.com/quillhq/quill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,
		metrics.Module,
		migration.Module,

		// Functional domains
		user.Module,
		tier.Module,
		usage.Module,
		admission.Module,
		provider.Module,
		notification.Module,
		content.Module,
		summary.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
