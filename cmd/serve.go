package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/document"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve screening runs over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	assessor, err := newAssessor(config.Oracle, logger)
	if err != nil {
		logger.Fatal("building the oracle client", zap.Error(err))
	}

	extractor := document.NewAutoExtractor()
	pipeline := screening.New(extractor, assessor, logger)

	srvCfg := server.Config{}
	if config.Server != nil {
		srvCfg.Addr = config.Server.Addr
		srvCfg.MaxUploadSize = config.Server.MaxUploadMB << 20
	}

	logger.Info("starting the resume screening server", zap.String("version", version))

	if err := server.New(pipeline, extractor, logger, srvCfg).Run(ctx); err != nil {
		logger.Fatal("http server stopped", zap.Error(err))
	}
}
