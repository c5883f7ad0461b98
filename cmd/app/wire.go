//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/faq-matcher/internal/bootstrap"
	"github.com/yanqian/faq-matcher/internal/domain/faq"
	"github.com/yanqian/faq-matcher/internal/infra/catalogload"
	"github.com/yanqian/faq-matcher/internal/infra/config"
	httpiface "github.com/yanqian/faq-matcher/internal/interface/http"
	"github.com/yanqian/faq-matcher/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideFAQConfig,
		provideFAQBackend,
		provideFAQStore,
		provideVectorCache,
		provideEmbedder,
		provideArtifactSource,
		provideLoader,
		provideSnapshotHolder,
		provideTokenValidator,
		faq.NewService,
		wire.Bind(new(faq.Loader), new(*catalogload.Loader)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
